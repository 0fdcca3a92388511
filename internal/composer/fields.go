package composer

import (
	"errors"
	"slices"
	"sort"
	"strings"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// Labels of dynamic fields that duplicate a static input of the draft.
var deniedLabels = map[string]struct{}{
	"priority":      {},
	"category":      {},
	"subcategory":   {},
	"sub category":  {},
	"title":         {},
	"description":   {},
	"studio":        {},
	"client name":   {},
	"client email":  {},
	"client phone":  {},
	"incident date": {},
}

// IsDeniedLabel reports whether a field label collides with a static input.
func IsDeniedLabel(label string) bool {
	_, denied := deniedLabels[strings.ToLower(strings.TrimSpace(label))]
	return denied
}

// FilterDefinitions drops hidden and denylisted definitions and orders the
// rest by sort order, missing orders counting as zero.
func FilterDefinitions(defs []domain.FieldDefinition) []domain.FieldDefinition {
	out := make([]domain.FieldDefinition, 0, len(defs))
	for _, def := range defs {
		if def.IsHidden || def.UniqueID == "" || IsDeniedLabel(def.Label) {
			continue
		}
		out = append(out, def)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order() < out[j].Order()
	})
	return out
}

// FieldView is the render descriptor for one dynamic input.
type FieldView struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	FieldType domain.FieldType `json:"fieldType"`
	Control   string           `json:"control"`
	InputType string           `json:"inputType,omitempty"`
	Options   []string         `json:"options,omitempty"`
	Value     string           `json:"value"`
}

// FieldInput is a dynamic field bound to its current value.
type FieldInput interface {
	Definition() domain.FieldDefinition
	Value() string
	Set(value string)
	Validate() error
	View() FieldView
}

var (
	errInvalidEmail  = errors.New("must be a valid email address")
	errInvalidPhone  = errors.New("must be a valid phone number")
	errInvalidOption = errors.New("must be one of the listed options")
)

// NewFieldInput builds the input matching the definition's field type.
// Unknown types render as plain text.
func NewFieldInput(def domain.FieldDefinition, value string) FieldInput {
	base := baseInput{def: def, value: value}
	switch def.FieldType {
	case domain.FieldTypeTextArea:
		return &textAreaInput{base}
	case domain.FieldTypeDropdown:
		return &dropdownInput{base}
	case domain.FieldTypeEmail:
		return &emailInput{base}
	case domain.FieldTypePhone:
		return &phoneInput{base}
	default:
		return &textInput{base}
	}
}

type baseInput struct {
	def   domain.FieldDefinition
	value string
}

func (b *baseInput) Definition() domain.FieldDefinition { return b.def }
func (b *baseInput) Value() string                      { return b.value }
func (b *baseInput) Set(value string)                   { b.value = value }

func (b *baseInput) view(control, inputType string) FieldView {
	return FieldView{
		ID:        b.def.UniqueID,
		Label:     b.def.Label,
		FieldType: b.def.FieldType,
		Control:   control,
		InputType: inputType,
		Value:     b.value,
	}
}

type textInput struct{ baseInput }

func (i *textInput) Validate() error { return nil }
func (i *textInput) View() FieldView { return i.view("input", "text") }

type textAreaInput struct{ baseInput }

func (i *textAreaInput) Validate() error { return nil }
func (i *textAreaInput) View() FieldView { return i.view("textarea", "") }

type dropdownInput struct{ baseInput }

func (i *dropdownInput) Validate() error {
	v := strings.TrimSpace(i.value)
	if v == "" {
		return nil
	}
	tag, ok := oneOfTag(i.def.Options)
	if !ok {
		if slices.Contains(i.def.Options, v) {
			return nil
		}
		return errInvalidOption
	}
	if validate.Var(v, tag) != nil {
		return errInvalidOption
	}
	return nil
}

func (i *dropdownInput) View() FieldView {
	v := i.view("select", "")
	v.Options = append([]string(nil), i.def.Options...)
	return v
}

type emailInput struct{ baseInput }

func (i *emailInput) Validate() error {
	v := strings.TrimSpace(i.value)
	if v == "" || validate.Var(v, "email") == nil {
		return nil
	}
	return errInvalidEmail
}

func (i *emailInput) View() FieldView { return i.view("input", "email") }

type phoneInput struct{ baseInput }

func (i *phoneInput) Validate() error {
	v := strings.TrimSpace(i.value)
	if v == "" || validate.Var(v, "phone") == nil {
		return nil
	}
	return errInvalidPhone
}

func (i *phoneInput) View() FieldView { return i.view("input", "tel") }
