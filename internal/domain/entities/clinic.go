package entities

// Clinic is a physical clinic searchable by name, address and treatments.
type Clinic struct {
	ID          string           `json:"clinic_id" db:"clinic_id"`
	Name        string           `json:"name" db:"name"`
	Address     string           `json:"address,omitempty" db:"address"`
	Description string           `json:"description,omitempty" db:"description"`
	Treatments  []TranslatedName `json:"treatments,omitempty"`

	Embeddings []float64 `json:"-" db:"embeddings"`

	Match *MatchScore `json:"match,omitempty"`
}
