package services

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/medbook/backend/internal/domain/entities"
)

var errNoJSONObject = errors.New("no json object in llm response")

type similarityEnvelope struct {
	Results []similarityEntry `json:"results"`
}

type similarityEntry struct {
	ID    any `json:"id"`
	Score any `json:"score"`
}

// extractJSONObject returns the first balanced top-level {...} in text,
// ignoring braces inside JSON strings.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// parseSimilarityResponse extracts scores for the ids in batch. Unknown ids
// and entries without a numeric score are dropped; a duplicated id keeps its
// highest score.
func parseSimilarityResponse(raw string, batch []entities.SimilarityCandidate) ([]entities.SimilarityScore, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return nil, errNoJSONObject
	}

	var envelope similarityEnvelope
	if err := json.Unmarshal([]byte(obj), &envelope); err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(batch))
	for _, c := range batch {
		known[c.ID] = struct{}{}
	}

	best := make(map[string]float64, len(envelope.Results))
	order := make([]string, 0, len(envelope.Results))
	for _, entry := range envelope.Results {
		id, ok := scalarString(entry.ID)
		if !ok {
			continue
		}
		if _, exists := known[id]; !exists {
			continue
		}
		score, ok := scalarFloat(entry.Score)
		if !ok {
			continue
		}
		prev, seen := best[id]
		if !seen {
			order = append(order, id)
		}
		if !seen || score > prev {
			best[id] = score
		}
	}

	scores := make([]entities.SimilarityScore, 0, len(order))
	for _, id := range order {
		scores = append(scores, entities.SimilarityScore{ID: id, Score: best[id]})
	}
	return scores, nil
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		id := strings.TrimSpace(val)
		return id, id != ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

func scalarFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
