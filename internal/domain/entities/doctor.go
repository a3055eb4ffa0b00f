package entities

// Doctor is a practitioner searchable by name, specialization and treatments.
type Doctor struct {
	ID             string           `json:"doctor_id" db:"doctor_id"`
	Name           string           `json:"name" db:"name"`
	Specialization string           `json:"specialization,omitempty" db:"specialization"`
	ClinicName     string           `json:"clinic_name,omitempty" db:"clinic_name"`
	Address        string           `json:"address,omitempty" db:"address"`
	Treatments     []TranslatedName `json:"treatments,omitempty"`

	Embeddings []float64 `json:"-" db:"embeddings"`

	Match *MatchScore `json:"match,omitempty"`
}
