package entities

import "strings"

// EmbeddingTarget is a catalog row whose stored embeddings are missing.
// NameText is only set for treatments, which also carry a name embedding.
type EmbeddingTarget struct {
	Entity   SearchEntity
	ID       string
	Text     string
	NameText string
}

// EmbeddingText is the text a treatment's full embedding is computed from.
func (t *Treatment) EmbeddingText() string {
	return joinNonEmpty(". ", t.Name, t.Benefits, t.Description, strings.Join(t.Concerns, ", "))
}

// EmbeddingText is the text a doctor's embedding is computed from.
func (d *Doctor) EmbeddingText() string {
	return joinNonEmpty(". ", d.Name, d.Specialization, d.ClinicName, d.Address, JoinNames(d.Treatments))
}

// EmbeddingText is the text a clinic's embedding is computed from.
func (c *Clinic) EmbeddingText() string {
	return joinNonEmpty(". ", c.Name, c.Address, c.Description, JoinNames(c.Treatments))
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
