// Package composer holds the in-progress ticket draft and the rules for
// mutating it through the wizard steps.
package composer

import (
	"strings"
	"time"

	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// MaxAttachments caps the files attached to one draft.
const MaxAttachments = 5

// CustomerContact holds the static customer fields of a draft.
type CustomerContact struct {
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	MembershipID     string `json:"membershipId,omitempty"`
	MembershipStatus string `json:"membershipStatus,omitempty"`
}

// ClassContext is the optional trainer/class context of a draft.
type ClassContext struct {
	TrainerName   string     `json:"trainerName,omitempty"`
	ClassName     string     `json:"className,omitempty"`
	ClassDateTime *time.Time `json:"classDateTime,omitempty"`
}

// LookupKey identifies the category/subcategory selection a fetch was issued for.
type LookupKey struct {
	CategoryID    string
	SubcategoryID string
}

// SubcategoryFilter returns the subcategory id to send with a field fetch.
// The "All" sentinel and an empty selection both mean no filter.
func (k LookupKey) SubcategoryFilter() string {
	if k.SubcategoryID == domain.SubcategoryAll {
		return ""
	}
	return k.SubcategoryID
}

// Draft is the mutable state of one ticket being composed.
type Draft struct {
	ID        string
	Owner     string
	Number    string
	CreatedAt time.Time
	Step      Step

	TemplateID    string
	StudioID      string
	Category      string
	CategoryID    string
	SubcategoryID string
	Priority      domain.TicketPriority
	Title         string
	Description   string
	ClientMood    string
	IncidentAt    time.Time
	Customer      CustomerContact
	Class         ClassContext

	DynamicValues map[string]string
	Clients       []domain.ClientRef
	Sessions      []domain.SessionRef
	Attachments   []domain.Attachment

	subcategories    []domain.Subcategory
	subcategoriesFor string
	fields           []domain.FieldDefinition
	fieldsFor        *LookupKey

	submitting bool
}

// NewDraft returns an empty draft at the template step.
func NewDraft(id, owner, number string, now time.Time) *Draft {
	return &Draft{
		ID:            id,
		Owner:         owner,
		Number:        number,
		CreatedAt:     now,
		Step:          StepTemplate,
		Priority:      domain.TicketPriorityMedium,
		IncidentAt:    now.Local(),
		DynamicValues: map[string]string{},
	}
}

// Clone returns a deep copy suitable for building a payload outside the lock.
func (d *Draft) Clone() *Draft {
	cp := *d
	cp.DynamicValues = make(map[string]string, len(d.DynamicValues))
	for k, v := range d.DynamicValues {
		cp.DynamicValues[k] = v
	}
	cp.Clients = append([]domain.ClientRef(nil), d.Clients...)
	cp.Sessions = append([]domain.SessionRef(nil), d.Sessions...)
	cp.Attachments = append([]domain.Attachment(nil), d.Attachments...)
	cp.subcategories = append([]domain.Subcategory(nil), d.subcategories...)
	cp.fields = append([]domain.FieldDefinition(nil), d.fields...)
	if d.fieldsFor != nil {
		key := *d.fieldsFor
		cp.fieldsFor = &key
	}
	if d.Class.ClassDateTime != nil {
		ts := *d.Class.ClassDateTime
		cp.Class.ClassDateTime = &ts
	}
	return &cp
}

// Submitting reports whether a submission is in flight.
func (d *Draft) Submitting() bool { return d.submitting }

// BeginSubmit marks the draft as being submitted; a second call fails until
// EndSubmit runs.
func (d *Draft) BeginSubmit() error {
	if d.submitting {
		return apperrors.NewConflict("submission already in progress", nil)
	}
	if err := d.requireStep(StepReview); err != nil {
		return err
	}
	d.submitting = true
	return nil
}

// EndSubmit clears the in-flight marker.
func (d *Draft) EndSubmit() { d.submitting = false }

// EnsureEditable rejects mutations while a submission is in flight or outside step.
func (d *Draft) EnsureEditable(step Step) error {
	if d.submitting {
		return apperrors.NewConflict("draft is being submitted", nil)
	}
	return d.requireStep(step)
}

// Key returns the current lookup selection.
func (d *Draft) Key() LookupKey {
	return LookupKey{CategoryID: d.CategoryID, SubcategoryID: d.SubcategoryID}
}

// SelectCategory sets the category by name and its resolved id. A different
// category drops the subcategory since subcategory ids belong to one category.
// It returns true when the lookups need refreshing.
func (d *Draft) SelectCategory(name, categoryID string) bool {
	changed := categoryID != d.CategoryID
	d.Category = strings.TrimSpace(name)
	d.CategoryID = categoryID
	if changed {
		d.SubcategoryID = ""
		d.subcategories = nil
		d.subcategoriesFor = ""
		d.fields = nil
		d.fieldsFor = nil
	}
	return categoryID != ""
}

// SelectSubcategory sets the subcategory id. Only ids from the loaded list,
// the "All" sentinel or an empty value are accepted.
func (d *Draft) SelectSubcategory(subcategoryID string) error {
	subcategoryID = strings.TrimSpace(subcategoryID)
	if subcategoryID != "" && subcategoryID != domain.SubcategoryAll && !d.hasSubcategory(subcategoryID) {
		return apperrors.NewValidationError("unknown subcategory", map[string]any{"subcategoryId": subcategoryID})
	}
	d.SubcategoryID = subcategoryID
	return nil
}

// AdoptSelection takes the category, subcategory and loaded lookups from a
// staged copy of the draft.
func (d *Draft) AdoptSelection(staged *Draft) {
	d.Category = staged.Category
	d.CategoryID = staged.CategoryID
	d.SubcategoryID = staged.SubcategoryID
	d.subcategories = append([]domain.Subcategory(nil), staged.subcategories...)
	d.subcategoriesFor = staged.subcategoriesFor
	d.fields = append([]domain.FieldDefinition(nil), staged.fields...)
	d.fieldsFor = nil
	if staged.fieldsFor != nil {
		key := *staged.fieldsFor
		d.fieldsFor = &key
	}
}

// Subcategories returns the subcategory list loaded for the current category.
func (d *Draft) Subcategories() []domain.Subcategory {
	if d.subcategoriesFor != d.CategoryID {
		return nil
	}
	return d.subcategories
}

// ApplySubcategories stores a fetched subcategory list if it still belongs to
// the selected category. A subcategory no longer in the list is cleared.
// The first result reports whether the list was accepted, the second whether
// the subcategory selection was cleared.
func (d *Draft) ApplySubcategories(categoryID string, subs []domain.Subcategory) (accepted, cleared bool) {
	if categoryID == "" || categoryID != d.CategoryID {
		return false, false
	}
	d.subcategories = append([]domain.Subcategory(nil), subs...)
	d.subcategoriesFor = categoryID
	if d.SubcategoryID != "" && d.SubcategoryID != domain.SubcategoryAll && !d.hasSubcategory(d.SubcategoryID) {
		d.SubcategoryID = ""
		cleared = true
	}
	return true, cleared
}

// ApplyFieldDefinitions stores fetched definitions if key still matches the
// current selection. Definitions are filtered and ordered before storing.
func (d *Draft) ApplyFieldDefinitions(key LookupKey, defs []domain.FieldDefinition) bool {
	if key != d.Key() {
		return false
	}
	d.fields = FilterDefinitions(defs)
	k := key
	d.fieldsFor = &k
	return true
}

// ActiveFields returns the field definitions for the current selection.
func (d *Draft) ActiveFields() []domain.FieldDefinition {
	if d.fieldsFor == nil || *d.fieldsFor != d.Key() {
		return nil
	}
	return d.fields
}

// FieldInputs returns the renderable inputs for the active fields.
func (d *Draft) FieldInputs() []FieldInput {
	defs := d.ActiveFields()
	inputs := make([]FieldInput, 0, len(defs))
	for _, def := range defs {
		inputs = append(inputs, NewFieldInput(def, d.DynamicValues[def.UniqueID]))
	}
	return inputs
}

// SetDynamicValues writes values for active field definitions. Unknown ids
// are rejected so values cannot outlive the definitions they belong to.
func (d *Draft) SetDynamicValues(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	active := make(map[string]struct{}, len(d.ActiveFields()))
	for _, def := range d.ActiveFields() {
		active[def.UniqueID] = struct{}{}
	}
	unknown := map[string]any{}
	for id := range values {
		if _, ok := active[id]; !ok {
			unknown[id] = "field is not available for the selected category"
		}
	}
	if len(unknown) > 0 {
		return apperrors.NewValidationError("unknown dynamic fields", unknown)
	}
	for id, value := range values {
		d.DynamicValues[id] = value
	}
	return nil
}

// ApplyTemplate re-seeds the template fields. The subcategory is cleared and
// then matched by name against the loaded subcategory list; no match leaves
// it unset.
func (d *Draft) ApplyTemplate(tmpl domain.Template, categoryID string) {
	d.TemplateID = tmpl.ID
	d.SelectCategory(tmpl.Category, categoryID)
	d.SubcategoryID = ""
	d.Priority = tmpl.Priority
	if !d.Priority.Valid() {
		d.Priority = domain.TicketPriorityMedium
	}
	d.Title = tmpl.Title
	d.Description = tmpl.Description
	d.ResolveSubcategoryName(tmpl.SubcategoryName)
}

// ResolveSubcategoryName selects the subcategory whose name matches, if any.
func (d *Draft) ResolveSubcategoryName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, sub := range d.Subcategories() {
		if strings.EqualFold(strings.TrimSpace(sub.Name), name) {
			d.SubcategoryID = sub.ID.String()
			return true
		}
	}
	return false
}

// ToggleClient adds the client or removes it when already selected. Only the
// first client added to an empty list seeds the customer contact fields.
func (d *Draft) ToggleClient(client domain.ClientRef) (added bool) {
	for i, existing := range d.Clients {
		if existing.ID == client.ID {
			d.Clients = append(d.Clients[:i], d.Clients[i+1:]...)
			return false
		}
	}
	if len(d.Clients) == 0 {
		d.Customer = CustomerContact{
			Name:             client.FullName(),
			Email:            client.Email,
			Phone:            client.Phone,
			MembershipID:     client.MembershipID,
			MembershipStatus: client.MembershipStatus,
		}
	}
	d.Clients = append(d.Clients, client)
	return true
}

// ToggleSession adds or removes a linked session.
func (d *Draft) ToggleSession(session domain.SessionRef) (added bool) {
	for i, existing := range d.Sessions {
		if existing.ID == session.ID {
			d.Sessions = append(d.Sessions[:i], d.Sessions[i+1:]...)
			return false
		}
	}
	d.Sessions = append(d.Sessions, session)
	return true
}

// AddAttachments appends files and keeps the earliest MaxAttachments. It
// returns how many of the new files were dropped.
func (d *Draft) AddAttachments(files ...domain.Attachment) (dropped int) {
	d.Attachments = append(d.Attachments, files...)
	if len(d.Attachments) > MaxAttachments {
		dropped = len(d.Attachments) - MaxAttachments
		d.Attachments = d.Attachments[:MaxAttachments:MaxAttachments]
	}
	return dropped
}

// RemoveAttachment removes the file at index.
func (d *Draft) RemoveAttachment(index int) error {
	if index < 0 || index >= len(d.Attachments) {
		return apperrors.NewNotFound("attachment", map[string]any{"index": index})
	}
	d.Attachments = append(d.Attachments[:index], d.Attachments[index+1:]...)
	return nil
}

func (d *Draft) hasSubcategory(id string) bool {
	for _, sub := range d.Subcategories() {
		if sub.ID.String() == id {
			return true
		}
	}
	return false
}
