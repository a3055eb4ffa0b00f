package entities

import "strings"

// Language selects which localized display fields are surfaced in results.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSwedish Language = "sv"
)

// ParseLanguage maps a request value to a Language, defaulting to English.
func ParseLanguage(value string) Language {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sv", "se", "swedish":
		return LanguageSwedish
	default:
		return LanguageEnglish
	}
}

// Localize returns sv when the language is Swedish and sv is set, otherwise en.
func (l Language) Localize(en, sv string) string {
	if l == LanguageSwedish && sv != "" {
		return sv
	}
	return en
}

// SearchEntity names the kind of row a search ranks.
type SearchEntity string

const (
	SearchEntityTreatment SearchEntity = "treatment"
	SearchEntityDoctor    SearchEntity = "doctor"
	SearchEntityClinic    SearchEntity = "clinic"
	SearchEntityDevice    SearchEntity = "device"
)

// SearchMode names the ranking path used for a search.
type SearchMode string

const (
	SearchModeVector SearchMode = "vector"
	SearchModeAI     SearchMode = "ai"
)

// SearchOptions are the per-call ranking options.
type SearchOptions struct {
	// Threshold is the minimum final score a row needs to be kept.
	// Nil means the configured default (0.40); an explicit 0 keeps every
	// scored row.
	Threshold *float64
	// TopN caps the result length when positive.
	TopN     int
	Language Language
}

// ScoreThreshold returns a threshold option set to value.
func ScoreThreshold(value float64) *float64 {
	return &value
}

// MatchScore carries the scores a row was ranked by. Score is the final
// value compared against the threshold.
type MatchScore struct {
	NameScore   float64 `json:"name_score,omitempty"`
	FullScore   float64 `json:"full_score,omitempty"`
	HybridScore float64 `json:"hybrid_score,omitempty"`
	Score       float64 `json:"score"`
}

// SimilarityCandidate is one row as presented to the similarity LLM.
type SimilarityCandidate struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SimilarityScore is the LLM-assigned score for one candidate ID.
type SimilarityScore struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// TranslatedName is a display string with an optional Swedish variant.
type TranslatedName struct {
	Name   string `json:"name"`
	NameSV string `json:"name_sv,omitempty"`
}

// LocalizeNames projects names into the requested language.
func LocalizeNames(names []TranslatedName, lang Language) []TranslatedName {
	if len(names) == 0 {
		return names
	}
	out := make([]TranslatedName, len(names))
	for i, n := range names {
		out[i] = TranslatedName{Name: lang.Localize(n.Name, n.NameSV)}
	}
	return out
}

// JoinNames returns the English names joined with ", ".
func JoinNames(names []TranslatedName) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if n.Name != "" {
			parts = append(parts, n.Name)
		}
	}
	return strings.Join(parts, ", ")
}
