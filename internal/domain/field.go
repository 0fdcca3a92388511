package domain

// FieldType tags the input kind of a dynamic field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextArea FieldType = "textarea"
	FieldTypeDropdown FieldType = "dropdown"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
)

// FieldDefinition is a server-declared descriptor for one dynamic field.
type FieldDefinition struct {
	UniqueID  string    `json:"uniqueId"`
	Label     string    `json:"label"`
	FieldType FieldType `json:"fieldType"`
	Options   []string  `json:"options,omitempty"`
	IsVisible *bool     `json:"isVisible,omitempty"`
	IsHidden  bool      `json:"isHidden"`
	SortOrder *int      `json:"sortOrder,omitempty"`
}

// Order returns the sort order, treating a missing value as zero.
func (f FieldDefinition) Order() int {
	if f.SortOrder == nil {
		return 0
	}
	return *f.SortOrder
}

// SentimentResult is the outcome of ticket sentiment analysis.
type SentimentResult struct {
	Sentiment string   `json:"sentiment"`
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary"`
}

// SentimentRequest is the body of POST /api/analyze-sentiment.
type SentimentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ClientMood  string `json:"clientMood"`
}
