package composer

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate     = newValidator()
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-.]{5,19}$`)
	// Separators the validator tag parser would otherwise split on.
	tagEscaper = strings.NewReplacer(",", "0x2C", "|", "0x7C")
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// Studio desks type numbers with spaces, dashes and brackets, which e164 rejects.
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// oneOfTag renders options as a quoted oneof rule. ok is false when an
// option cannot be expressed inside the tag.
func oneOfTag(options []string) (tag string, ok bool) {
	if len(options) == 0 {
		return "", false
	}
	quoted := make([]string, 0, len(options))
	for _, opt := range options {
		if strings.Contains(opt, "'") {
			return "", false
		}
		quoted = append(quoted, "'"+tagEscaper.Replace(opt)+"'")
	}
	return "oneof=" + strings.Join(quoted, " "), true
}

// staticFields are the fixed draft inputs checked before submission.
type staticFields struct {
	Category    string `json:"category" validate:"required"`
	Title       string `json:"title" validate:"min=5"`
	Description string `json:"description" validate:"min=10"`
	StudioID    string `json:"studioId" validate:"required"`
}
