package dto

import (
	"time"

	"github.com/spec-kit/ticket-desk/internal/composer"
	"github.com/spec-kit/ticket-desk/internal/domain"
)

// ApplyTemplateRequest payload.
type ApplyTemplateRequest struct {
	TemplateID string `json:"template_id"`
}

// UpdateDetailsRequest payload. Omitted fields are left unchanged.
type UpdateDetailsRequest struct {
	Category      *string           `json:"category"`
	SubcategoryID *string           `json:"subcategory_id"`
	Priority      *string           `json:"priority"`
	Title         *string           `json:"title"`
	Description   *string           `json:"description"`
	ClientMood    *string           `json:"client_mood"`
	TrainerName   *string           `json:"trainer_name"`
	ClassName     *string           `json:"class_name"`
	ClassDateTime *time.Time        `json:"class_date_time"`
	DynamicValues map[string]string `json:"dynamic_values"`
}

// UpdateContextRequest payload. Omitted fields are left unchanged.
type UpdateContextRequest struct {
	StudioID         *string    `json:"studio_id"`
	IncidentAt       *time.Time `json:"incident_at"`
	CustomerName     *string    `json:"customer_name"`
	CustomerEmail    *string    `json:"customer_email"`
	CustomerPhone    *string    `json:"customer_phone"`
	MembershipID     *string    `json:"membership_id"`
	MembershipStatus *string    `json:"membership_status"`
}

// ToggleClientRequest payload. The contact fields seed the draft customer
// when this is the first client selected.
type ToggleClientRequest struct {
	ID               domain.FlexibleID `json:"id"`
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	MembershipID     string            `json:"membership_id"`
	MembershipStatus string            `json:"membership_status"`
}

// ToggleSessionRequest payload.
type ToggleSessionRequest struct {
	ID       domain.FlexibleID `json:"id"`
	Name     string            `json:"name"`
	Trainer  string            `json:"trainer"`
	StartsAt *time.Time        `json:"starts_at"`
}

// AttachmentRequest is the metadata of one uploaded file.
type AttachmentRequest struct {
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
	StorageKey string `json:"storage_key"`
}

// AddAttachmentsRequest payload for JSON uploads of file metadata.
type AddAttachmentsRequest struct {
	Files []AttachmentRequest `json:"files"`
}

// ToggleResponse reports whether an item was added or removed.
type ToggleResponse struct {
	Added bool          `json:"added"`
	Draft DraftResponse `json:"draft"`
}

// AttachmentsResponse reports files dropped by the attachment cap.
type AttachmentsResponse struct {
	Dropped int           `json:"dropped"`
	Draft   DraftResponse `json:"draft"`
}

// DraftResponse is the client view of a draft.
type DraftResponse struct {
	ID            string                   `json:"id"`
	TicketNumber  string                   `json:"ticket_number"`
	Step          string                   `json:"step"`
	TemplateID    string                   `json:"template_id,omitempty"`
	StudioID      string                   `json:"studio_id"`
	Category      string                   `json:"category"`
	CategoryID    string                   `json:"category_id"`
	SubcategoryID string                   `json:"subcategory_id"`
	Priority      domain.TicketPriority    `json:"priority"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	ClientMood    string                   `json:"client_mood"`
	IncidentAt    time.Time                `json:"incident_at"`
	Customer      composer.CustomerContact `json:"customer"`
	Class         composer.ClassContext    `json:"class"`
	Subcategories []domain.Subcategory     `json:"subcategories"`
	Fields        []composer.FieldView     `json:"fields"`
	Clients       []domain.ClientRef       `json:"clients"`
	Sessions      []domain.SessionRef      `json:"sessions"`
	Attachments   []domain.Attachment      `json:"attachments"`
	Submitting    bool                     `json:"submitting"`
	CreatedAt     time.Time                `json:"created_at"`
}

// SubmitResponse describes a created ticket.
type SubmitResponse struct {
	TicketID     string   `json:"ticket_id"`
	TicketNumber string   `json:"ticket_number"`
	Status       string   `json:"status,omitempty"`
	Sentiment    string   `json:"sentiment"`
	Tags         []string `json:"tags"`
	Summary      string   `json:"summary"`
	Notice       string   `json:"notice"`
	Redirect     string   `json:"redirect"`
}

// NewDraftResponse maps a draft snapshot.
func NewDraftResponse(d *composer.Draft) DraftResponse {
	inputs := d.FieldInputs()
	fields := make([]composer.FieldView, 0, len(inputs))
	for _, in := range inputs {
		fields = append(fields, in.View())
	}
	subs := d.Subcategories()
	if subs == nil {
		subs = []domain.Subcategory{}
	}
	return DraftResponse{
		ID:            d.ID,
		TicketNumber:  d.Number,
		Step:          d.Step.String(),
		TemplateID:    d.TemplateID,
		StudioID:      d.StudioID,
		Category:      d.Category,
		CategoryID:    d.CategoryID,
		SubcategoryID: d.SubcategoryID,
		Priority:      d.Priority,
		Title:         d.Title,
		Description:   d.Description,
		ClientMood:    d.ClientMood,
		IncidentAt:    d.IncidentAt,
		Customer:      d.Customer,
		Class:         d.Class,
		Subcategories: subs,
		Fields:        fields,
		Clients:       nonNil(d.Clients),
		Sessions:      nonNil(d.Sessions),
		Attachments:   nonNil(d.Attachments),
		Submitting:    d.Submitting(),
		CreatedAt:     d.CreatedAt,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
