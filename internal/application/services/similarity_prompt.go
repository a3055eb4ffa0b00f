package services

import (
	"fmt"
	"strings"

	"github.com/medbook/backend/internal/domain/entities"
)

const similaritySystemPrompt = `You are a relevance scorer for a healthcare booking platform. You compare a patient's search query with a list of candidates and return ONLY valid JSON with this schema:
{
  "results": [ { "id": string, "score": number } ]
}
Rules:
- Only use ids that appear in the candidate list. Never invent ids.
- score is a number between 0 and 1.
- 0.85-1.0: strong match (same treatment, doctor, clinic or device, or a direct synonym).
- 0.60-0.85: good match (closely related, same concern or body area).
- 0.40-0.60: medium match (plausible alternative the patient may want).
- Avoid 0 unless the candidate is completely unrelated to the query.
- Judge meaning, not spelling. Handle typos, Swedish and English wording.`

const laserNegationRule = `The query excludes laser treatments. Give laser-based candidates a score below 0.2, and still return the best non-laser semantic alternatives for the remaining candidates.`

var laserNegations = []string{"non laser", "non-laser", "not laser", "without laser"}

// excludesLaser reports whether the query asks for non-laser alternatives.
func excludesLaser(query string) bool {
	q := strings.ToLower(query)
	for _, phrase := range laserNegations {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}

// buildSimilarityUserPrompt lists one "id|text" line per candidate. IDs must
// already satisfy ValidCandidateID; text is compacted onto the line.
func buildSimilarityUserPrompt(query string, batch []entities.SimilarityCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search query: %s\n", compactText(query))
	if excludesLaser(query) {
		b.WriteString(laserNegationRule)
		b.WriteString("\n")
	}
	b.WriteString("\nCandidates (id|text):\n")
	for _, c := range batch {
		b.WriteString(c.ID)
		b.WriteString("|")
		b.WriteString(compactText(c.Text))
		b.WriteString("\n")
	}
	return b.String()
}

// BuildCandidates projects rows into similarity candidates: the id function
// selects the row key and the text functions select the fields compared
// against the query. Empty fields are skipped.
func BuildCandidates[T any](rows []T, id func(T) string, textFields ...func(T) string) []entities.SimilarityCandidate {
	candidates := make([]entities.SimilarityCandidate, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, 0, len(textFields))
		for _, field := range textFields {
			if v := compactText(field(row)); v != "" {
				parts = append(parts, v)
			}
		}
		candidates = append(candidates, entities.SimilarityCandidate{
			ID:   id(row),
			Text: strings.Join(parts, " - "),
		})
	}
	return candidates
}

// compactText collapses whitespace, including newlines, to single spaces so
// a candidate always fits on one prompt line.
func compactText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ValidCandidateID reports whether id can be written on a prompt line: it
// must be non-empty and free of the "|" separator and line breaks.
func ValidCandidateID(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.ContainsAny(id, "|\r\n")
}
