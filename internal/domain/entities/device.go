package entities

// Device is a product or device in the catalog. Devices are only ranked by
// the LLM path and carry no embeddings.
type Device struct {
	ID            string `json:"device_id" db:"device_id"`
	Name          string `json:"name" db:"name"`
	NameSV        string `json:"name_sv,omitempty" db:"name_sv"`
	Category      string `json:"category,omitempty" db:"category"`
	Description   string `json:"description,omitempty" db:"description"`
	DescriptionSV string `json:"description_sv,omitempty" db:"description_sv"`

	Match *MatchScore `json:"match,omitempty"`
}
