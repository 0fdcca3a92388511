package composer

import (
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// FallbackSentiment is used whenever sentiment analysis fails.
func FallbackSentiment() domain.SentimentResult {
	return domain.SentimentResult{
		Sentiment: "neutral",
		Tags:      []string{"support"},
		Summary:   "Support ticket",
	}
}

// Sanitizer cleans rich-text descriptions before they leave the service.
type Sanitizer interface {
	Sanitize(s string) string
}

// NewDescriptionSanitizer returns the policy applied to ticket descriptions.
func NewDescriptionSanitizer() Sanitizer {
	return bluemonday.UGCPolicy()
}

// BuildPayload flattens the draft into the body sent to the backend. Only
// non-empty values of currently active field definitions are included.
func (d *Draft) BuildPayload(sentiment domain.SentimentResult, sanitizer Sanitizer) domain.SubmissionPayload {
	description := strings.TrimSpace(d.Description)
	if sanitizer != nil {
		description = sanitizer.Sanitize(description)
	}

	dynamic := make(map[string]string)
	for _, def := range d.ActiveFields() {
		if v := strings.TrimSpace(d.DynamicValues[def.UniqueID]); v != "" {
			dynamic[def.UniqueID] = v
		}
	}
	if v := strings.TrimSpace(d.Class.TrainerName); v != "" {
		dynamic[domain.DynamicKeyTrainerName] = v
	}
	if v := strings.TrimSpace(d.Class.ClassName); v != "" {
		dynamic[domain.DynamicKeyClassName] = v
	}
	if d.Class.ClassDateTime != nil {
		dynamic[domain.DynamicKeyClassDateTime] = d.Class.ClassDateTime.Format(time.RFC3339)
	}

	subcategoryID := d.SubcategoryID
	if subcategoryID == domain.SubcategoryAll {
		subcategoryID = ""
	}

	clientIDs := make([]string, 0, len(d.Clients))
	for _, c := range d.Clients {
		clientIDs = append(clientIDs, c.ID.String())
	}
	sessionIDs := make([]string, 0, len(d.Sessions))
	for _, s := range d.Sessions {
		sessionIDs = append(sessionIDs, s.ID.String())
	}

	tags := append([]string{}, sentiment.Tags...)

	return domain.SubmissionPayload{
		TicketNumber:         d.Number,
		StudioID:             d.StudioID,
		Category:             d.Category,
		CategoryID:           d.CategoryID,
		SubcategoryID:        subcategoryID,
		Priority:             d.Priority,
		Title:                strings.TrimSpace(d.Title),
		Description:          description,
		CustomerName:         strings.TrimSpace(d.Customer.Name),
		CustomerEmail:        strings.TrimSpace(d.Customer.Email),
		CustomerPhone:        strings.TrimSpace(d.Customer.Phone),
		CustomerMembershipID: strings.TrimSpace(d.Customer.MembershipID),
		CustomerStatus:       strings.TrimSpace(d.Customer.MembershipStatus),
		ClientMood:           strings.TrimSpace(d.ClientMood),
		IncidentDate:         d.IncidentAt,
		DynamicFieldData:     dynamic,
		Sentiment:            sentiment.Sentiment,
		Tags:                 tags,
		Summary:              sentiment.Summary,
		ClientIDs:            clientIDs,
		SessionIDs:           sessionIDs,
		Attachments:          append([]domain.Attachment(nil), d.Attachments...),
	}
}

// SentimentRequest returns the analysis request for the draft.
func (d *Draft) SentimentRequest() domain.SentimentRequest {
	return domain.SentimentRequest{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		ClientMood:  strings.TrimSpace(d.ClientMood),
	}
}
