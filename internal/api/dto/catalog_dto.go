package dto

import "github.com/spec-kit/ticket-desk/internal/domain"

// TemplateResponse is a template as shown in the template step.
type TemplateResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Category    string                `json:"category"`
	Subcategory string                `json:"subcategory,omitempty"`
	Priority    domain.TicketPriority `json:"priority"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
}

// NewTemplateResponse maps a template.
func NewTemplateResponse(t domain.Template) TemplateResponse {
	return TemplateResponse{
		ID:          t.ID,
		Name:        t.Name,
		Category:    t.Category,
		Subcategory: t.SubcategoryName,
		Priority:    t.Priority,
		Title:       t.Title,
		Description: t.Description,
	}
}
