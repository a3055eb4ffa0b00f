package entities

// Treatment is a bookable treatment with precomputed embeddings.
type Treatment struct {
	ID            string   `json:"treatment_id" db:"treatment_id"`
	Name          string   `json:"name" db:"name"`
	NameSV        string   `json:"name_sv,omitempty" db:"name_sv"`
	Benefits      string   `json:"benefits,omitempty" db:"benefits"`
	BenefitsSV    string   `json:"benefits_sv,omitempty" db:"benefits_sv"`
	Description   string   `json:"description,omitempty" db:"description"`
	DescriptionSV string   `json:"description_sv,omitempty" db:"description_sv"`
	Concerns      []string `json:"concerns,omitempty" db:"concerns"`

	// Embeddings are produced by the ingestion pipeline and never serialized.
	Embeddings     []float64 `json:"-" db:"embeddings"`
	NameEmbeddings []float64 `json:"-" db:"name_embeddings"`

	Match *MatchScore `json:"match,omitempty"`
}
