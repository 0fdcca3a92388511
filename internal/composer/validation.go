package composer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// Minimum lengths of the title and description; staticFields carries the same numbers.
const (
	MinTitleLength       = 5
	MinDescriptionLength = 10
)

var staticMessages = map[string]string{
	"category":    "category is required",
	"title":       fmt.Sprintf("title must be at least %d characters", MinTitleLength),
	"description": fmt.Sprintf("description must be at least %d characters", MinDescriptionLength),
	"studioId":    "studio is required",
}

// Validate checks the draft before submission. Errors are keyed by field.
func (d *Draft) Validate() error {
	details := map[string]any{}

	err := validate.Struct(staticFields{
		Category:    strings.TrimSpace(d.Category),
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		StudioID:    strings.TrimSpace(d.StudioID),
	})
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details[fe.Field()] = staticMessages[fe.Field()]
		}
	}
	if !d.Priority.Valid() {
		details["priority"] = "unknown priority"
	}
	for _, input := range d.FieldInputs() {
		if err := input.Validate(); err != nil {
			details["fields."+input.Definition().UniqueID] = err.Error()
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("ticket draft is incomplete", details)
	}
	return nil
}

// ParsePriority validates a priority string.
func ParsePriority(raw string) (domain.TicketPriority, error) {
	p := domain.TicketPriority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", apperrors.NewValidationError("unknown priority", map[string]any{"priority": raw})
	}
	return p, nil
}
