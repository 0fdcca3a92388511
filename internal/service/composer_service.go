package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/composer"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// TicketListPath is where the client navigates after a successful submission.
const TicketListPath = "/tickets"

// DraftBackend is the part of the ticketing API the composer needs.
type DraftBackend interface {
	Subcategories(ctx context.Context, categoryID string) ([]domain.Subcategory, error)
	FieldDefinitions(ctx context.Context, categoryID, subcategoryID string) ([]domain.FieldDefinition, error)
	CreateTicket(ctx context.Context, payload domain.SubmissionPayload) (*domain.CreatedTicket, error)
}

// SentimentAnalyzer produces sentiment, tags and a summary for a ticket.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, req domain.SentimentRequest) (*domain.SentimentResult, error)
}

// TemplateSource lists ticket templates.
type TemplateSource interface {
	List(ctx context.Context) ([]domain.Template, error)
	GetByID(ctx context.Context, id string) (*domain.Template, error)
}

// CategoryLookup resolves category names to backend ids.
type CategoryLookup interface {
	CategoryID(name string) (string, bool)
}

// StudioDirectory lists the studios a ticket can be filed against.
type StudioDirectory interface {
	Studios(ctx context.Context) []domain.Studio
}

// defaultAnalyzerTimeout caps sentiment analysis when no timeout is configured.
const defaultAnalyzerTimeout = 8 * time.Second

// ComposerService drives ticket drafts through the creation wizard.
type ComposerService struct {
	store      *composer.Store
	backend    DraftBackend
	analyzer   SentimentAnalyzer
	templates  TemplateSource
	categories CategoryLookup
	studios    StudioDirectory
	numbers    *composer.NumberGenerator
	sanitizer  composer.Sanitizer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time

	analyzerTimeout time.Duration
}

// ComposerDependencies bundles collaborators for the composer service.
type ComposerDependencies struct {
	Store      *composer.Store
	Backend    DraftBackend
	Analyzer   SentimentAnalyzer
	Templates  TemplateSource
	Categories CategoryLookup
	Studios    StudioDirectory
	Numbers    *composer.NumberGenerator
	Sanitizer  composer.Sanitizer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Now        func() time.Time

	// AnalyzerTimeout bounds sentiment analysis during Submit. Analysis never
	// gets more than half of the caller's remaining deadline either.
	AnalyzerTimeout time.Duration
}

// DetailsInput carries the details-step fields. Nil fields are left untouched.
type DetailsInput struct {
	Category      *string
	SubcategoryID *string
	Priority      *string
	Title         *string
	Description   *string
	ClientMood    *string
	TrainerName   *string
	ClassName     *string
	ClassDateTime *time.Time
	DynamicValues map[string]string
}

// ContextInput carries the context-step fields. Nil fields are left untouched.
type ContextInput struct {
	StudioID         *string
	IncidentAt       *time.Time
	CustomerName     *string
	CustomerEmail    *string
	CustomerPhone    *string
	MembershipID     *string
	MembershipStatus *string
}

// SubmitResult describes a created ticket.
type SubmitResult struct {
	Ticket       *domain.CreatedTicket
	TicketNumber string
	Sentiment    domain.SentimentResult
	Notice       string
	Redirect     string
}

// NewComposerService constructs the service.
func NewComposerService(deps ComposerDependencies) *ComposerService {
	s := &ComposerService{
		store:      deps.Store,
		backend:    deps.Backend,
		analyzer:   deps.Analyzer,
		templates:  deps.Templates,
		categories: deps.Categories,
		studios:    deps.Studios,
		numbers:    deps.Numbers,
		sanitizer:  deps.Sanitizer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        deps.Now,

		analyzerTimeout: deps.AnalyzerTimeout,
	}
	if s.store == nil {
		s.store = composer.NewStore()
	}
	if s.numbers == nil {
		s.numbers = composer.NewNumberGenerator(nil, nil)
	}
	if s.sanitizer == nil {
		s.sanitizer = composer.NewDescriptionSanitizer()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.analyzerTimeout <= 0 {
		s.analyzerTimeout = defaultAnalyzerTimeout
	}
	return s
}

// CreateDraft opens a new draft for owner.
func (s *ComposerService) CreateDraft(ctx context.Context, owner string) (*composer.Draft, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, apperrors.NewUnauthorized("missing session")
	}
	draft := composer.NewDraft(uuid.NewString(), owner, s.numbers.Next(), s.now())
	s.store.Put(draft)
	s.metrics.DraftCreated()
	s.publishEvent(ctx, events.Event{
		Type:    events.EventDraftCreated,
		DraftID: draft.ID,
		Actor:   owner,
		Payload: events.DraftCreatedPayload{TicketNumber: draft.Number},
	})
	return draft.Clone(), nil
}

// GetDraft returns a snapshot of the draft.
func (s *ComposerService) GetDraft(ctx context.Context, owner, draftID string) (*composer.Draft, error) {
	return s.mutate(owner, draftID, func(*composer.Draft) error { return nil })
}

// DiscardDraft drops a draft, e.g. when the user navigates away.
func (s *ComposerService) DiscardDraft(ctx context.Context, owner, draftID string) error {
	entry, err := s.store.Get(owner, draftID)
	if err != nil {
		return err
	}
	entry.Lock()
	defer entry.Unlock()
	if entry.Draft.Submitting() {
		return apperrors.NewConflict("draft is being submitted", nil)
	}
	s.store.Delete(draftID)
	return nil
}

// DiscardAll drops every open draft of owner.
func (s *ComposerService) DiscardAll(ctx context.Context, owner string) int {
	return s.store.DeleteOwner(owner)
}

// ApplyTemplate seeds the draft from a template and moves to the details step.
// The template's subcategory is matched by name once the subcategory list for
// its category has been fetched.
func (s *ComposerService) ApplyTemplate(ctx context.Context, owner, draftID, templateID string) (*composer.Draft, error) {
	if s.templates == nil {
		return nil, apperrors.NewNotFound("template", map[string]any{"id": templateID})
	}
	tmpl, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	categoryID := s.categoryID(tmpl.Category)

	entry, err := s.store.Get(owner, draftID)
	if err != nil {
		return nil, err
	}
	entry.Lock()
	if err := entry.Draft.EnsureEditable(composer.StepTemplate); err != nil {
		entry.Unlock()
		return nil, err
	}
	entry.Draft.ApplyTemplate(*tmpl, categoryID)
	_ = entry.Draft.Next()
	entry.Unlock()

	s.refreshLookups(ctx, entry)

	entry.Lock()
	d := entry.Draft
	resolved := false
	if d.CategoryID == categoryID && d.SubcategoryID == "" {
		resolved = d.ResolveSubcategoryName(tmpl.SubcategoryName)
	}
	subcategoryID := d.SubcategoryID
	entry.Unlock()

	if resolved {
		s.refreshFields(ctx, entry)
	} else if tmpl.SubcategoryName != "" && subcategoryID == "" {
		s.logger.Debug("template subcategory not resolved",
			zap.String("template_id", tmpl.ID),
			zap.String("subcategory", tmpl.SubcategoryName))
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTemplateApplied,
		DraftID: draftID,
		Actor:   owner,
		Payload: events.TemplateAppliedPayload{
			TemplateID:    tmpl.ID,
			Category:      tmpl.Category,
			SubcategoryID: subcategoryID,
		},
	})
	return s.GetDraft(ctx, owner, draftID)
}

// StartBlank leaves the template step without a template.
func (s *ComposerService) StartBlank(ctx context.Context, owner, draftID string) (*composer.Draft, error) {
	return s.mutate(owner, draftID, func(d *composer.Draft) error {
		if d.Submitting() {
			return apperrors.NewConflict("draft is being submitted", nil)
		}
		return d.StartBlank()
	})
}

// Next advances the wizard.
func (s *ComposerService) Next(ctx context.Context, owner, draftID string) (*composer.Draft, error) {
	return s.mutate(owner, draftID, func(d *composer.Draft) error {
		if err := d.EnsureEditable(d.Step); err != nil {
			return err
		}
		return d.Next()
	})
}

// Back moves the wizard one step back keeping all entered data.
func (s *ComposerService) Back(ctx context.Context, owner, draftID string) (*composer.Draft, error) {
	return s.mutate(owner, draftID, func(d *composer.Draft) error {
		if err := d.EnsureEditable(d.Step); err != nil {
			return err
		}
		return d.Back()
	})
}

// UpdateDetails applies details-step edits. A category change refreshes the
// subcategory list and field definitions before a subcategory or dynamic
// values from the same input are applied. The edit is staged on a copy and
// committed only once every part of it is valid, so a rejected input leaves
// the draft untouched.
func (s *ComposerService) UpdateDetails(ctx context.Context, owner, draftID string, input DetailsInput) (*composer.Draft, error) {
	var priority domain.TicketPriority
	if input.Priority != nil {
		p, err := composer.ParsePriority(*input.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}
	var categoryID string
	if input.Category != nil {
		categoryID = s.categoryID(*input.Category)
	}

	entry, err := s.store.Get(owner, draftID)
	if err != nil {
		return nil, err
	}

	entry.Lock()
	if err := entry.Draft.EnsureEditable(composer.StepDetails); err != nil {
		entry.Unlock()
		return nil, err
	}
	staged := entry.Draft.Clone()
	entry.Unlock()
	base := staged.Key()

	if input.Category != nil {
		changed := categoryID != staged.CategoryID
		if staged.SelectCategory(*input.Category, categoryID) && (changed || staged.Subcategories() == nil) {
			s.stageLookups(ctx, staged)
		}
	}
	if input.SubcategoryID != nil {
		before := staged.Key()
		if err := staged.SelectSubcategory(*input.SubcategoryID); err != nil {
			return nil, err
		}
		if (staged.Key() != before || staged.ActiveFields() == nil) && staged.CategoryID != "" {
			s.stageFields(ctx, staged)
		}
	}
	if err := staged.SetDynamicValues(input.DynamicValues); err != nil {
		return nil, err
	}

	entry.Lock()
	defer entry.Unlock()
	d := entry.Draft
	if err := d.EnsureEditable(composer.StepDetails); err != nil {
		return nil, err
	}
	touchesSelection := input.Category != nil || input.SubcategoryID != nil || len(input.DynamicValues) > 0
	superseded := touchesSelection && d.Key() != base
	if superseded {
		// Another update moved the selection while this one was fetching.
		// A plain category pick loses to the newer one; anything validated
		// against the old selection has to be resent.
		if input.SubcategoryID != nil || len(input.DynamicValues) > 0 {
			return nil, apperrors.NewConflict("category selection changed, resend the update", map[string]any{
				"categoryId": d.CategoryID,
			})
		}
		s.metrics.StaleLookup("selection")
	}

	input.applyText(d, priority)
	if touchesSelection && !superseded {
		d.AdoptSelection(staged)
		if err := d.SetDynamicValues(input.DynamicValues); err != nil {
			return nil, err
		}
	}
	return d.Clone(), nil
}

// applyText copies the free-form details fields, none of which can fail.
func (in DetailsInput) applyText(d *composer.Draft, priority domain.TicketPriority) {
	if priority != "" {
		d.Priority = priority
	}
	if in.Title != nil {
		d.Title = *in.Title
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.ClientMood != nil {
		d.ClientMood = *in.ClientMood
	}
	if in.TrainerName != nil {
		d.Class.TrainerName = *in.TrainerName
	}
	if in.ClassName != nil {
		d.Class.ClassName = *in.ClassName
	}
	if in.ClassDateTime != nil {
		ts := *in.ClassDateTime
		if ts.IsZero() {
			d.Class.ClassDateTime = nil
		} else {
			d.Class.ClassDateTime = &ts
		}
	}
}

// UpdateContext applies context-step edits.
func (s *ComposerService) UpdateContext(ctx context.Context, owner, draftID string, input ContextInput) (*composer.Draft, error) {
	var studioID string
	if input.StudioID != nil {
		studioID = strings.TrimSpace(*input.StudioID)
		if err := s.checkStudio(ctx, studioID); err != nil {
			return nil, err
		}
	}
	return s.mutate(owner, draftID, func(d *composer.Draft) error {
		if err := d.EnsureEditable(composer.StepContext); err != nil {
			return err
		}
		if input.StudioID != nil {
			d.StudioID = studioID
		}
		if input.IncidentAt != nil && !input.IncidentAt.IsZero() {
			d.IncidentAt = *input.IncidentAt
		}
		if input.CustomerName != nil {
			d.Customer.Name = *input.CustomerName
		}
		if input.CustomerEmail != nil {
			d.Customer.Email = *input.CustomerEmail
		}
		if input.CustomerPhone != nil {
			d.Customer.Phone = *input.CustomerPhone
		}
		if input.MembershipID != nil {
			d.Customer.MembershipID = *input.MembershipID
		}
		if input.MembershipStatus != nil {
			d.Customer.MembershipStatus = *input.MembershipStatus
		}
		return nil
	})
}

// checkStudio rejects ids missing from the studio list. Clearing the studio
// is always allowed.
func (s *ComposerService) checkStudio(ctx context.Context, studioID string) error {
	if studioID == "" || s.studios == nil {
		return nil
	}
	for _, st := range s.studios.Studios(ctx) {
		if st.ID.String() == studioID {
			return nil
		}
	}
	return apperrors.NewValidationError("unknown studio", map[string]any{"studioId": studioID})
}

// ToggleClient selects or deselects a client. The first client selected into
// an empty list seeds the customer contact fields.
func (s *ComposerService) ToggleClient(ctx context.Context, owner, draftID string, client domain.ClientRef) (*composer.Draft, bool, error) {
	if client.ID == "" {
		return nil, false, apperrors.NewValidationError("client id is required", map[string]any{"id": "required"})
	}
	var added bool
	d, err := s.mutate(owner, draftID, func(d *composer.Draft) error {
		if err := d.EnsureEditable(composer.StepContext); err != nil {
			return err
		}
		added = d.ToggleClient(client)
		return nil
	})
	return d, added, err
}

// ToggleSession links or unlinks a session.
func (s *ComposerService) ToggleSession(ctx context.Context, owner, draftID string, session domain.SessionRef) (*composer.Draft, bool, error) {
	if session.ID == "" {
		return nil, false, apperrors.NewValidationError("session id is required", map[string]any{"id": "required"})
	}
	var added bool
	d, err := s.mutate(owner, draftID, func(d *composer.Draft) error {
		if err := d.EnsureEditable(composer.StepContext); err != nil {
			return err
		}
		added = d.ToggleSession(session)
		return nil
	})
	return d, added, err
}

// AddAttachments attaches files keeping the earliest ones when the cap is hit.
// It returns how many of the given files were dropped.
func (s *ComposerService) AddAttachments(ctx context.Context, owner, draftID string, files []domain.Attachment) (*composer.Draft, int, error) {
	var dropped int
	d, err := s.mutate(owner, draftID, func(d *composer.Draft) error {
		if err := d.EnsureEditable(composer.StepContext); err != nil {
			return err
		}
		dropped = d.AddAttachments(files...)
		return nil
	})
	if err == nil && dropped > 0 {
		s.logger.Info("attachments over limit dropped",
			zap.String("draft_id", draftID),
			zap.Int("dropped", dropped))
	}
	return d, dropped, err
}

// RemoveAttachment removes the attachment at index.
func (s *ComposerService) RemoveAttachment(ctx context.Context, owner, draftID string, index int) (*composer.Draft, error) {
	return s.mutate(owner, draftID, func(d *composer.Draft) error {
		if err := d.EnsureEditable(composer.StepContext); err != nil {
			return err
		}
		return d.RemoveAttachment(index)
	})
}

// FieldInputs returns the renderable dynamic fields of the draft.
func (s *ComposerService) FieldInputs(ctx context.Context, owner, draftID string) ([]composer.FieldView, error) {
	entry, err := s.store.Get(owner, draftID)
	if err != nil {
		return nil, err
	}
	entry.Lock()
	defer entry.Unlock()
	inputs := entry.Draft.FieldInputs()
	views := make([]composer.FieldView, 0, len(inputs))
	for _, in := range inputs {
		views = append(views, in.View())
	}
	return views, nil
}

// Submit sends the draft as a new ticket. Sentiment analysis failures fall
// back to a neutral result; a failed create keeps the draft for retry.
// Analysis runs under its own shorter deadline so a slow analyzer cannot
// starve the create call.
func (s *ComposerService) Submit(ctx context.Context, owner, draftID string) (*SubmitResult, error) {
	entry, err := s.store.Get(owner, draftID)
	if err != nil {
		return nil, err
	}

	entry.Lock()
	if err := entry.Draft.BeginSubmit(); err != nil {
		entry.Unlock()
		return nil, err
	}
	if err := entry.Draft.Validate(); err != nil {
		entry.Draft.EndSubmit()
		entry.Unlock()
		return nil, err
	}
	snapshot := entry.Draft.Clone()
	entry.Unlock()

	sentiment := s.analyze(ctx, owner, snapshot)
	payload := snapshot.BuildPayload(sentiment, s.sanitizer)

	created, err := s.backend.CreateTicket(ctx, payload)
	if err != nil {
		entry.Lock()
		entry.Draft.EndSubmit()
		entry.Unlock()

		s.metrics.Submission("failed")
		s.logger.Warn("ticket creation failed",
			zap.String("draft_id", draftID),
			zap.String("ticket_number", snapshot.Number),
			zap.Error(err))
		s.publishEvent(ctx, events.Event{
			Type:    events.EventTicketSubmitFailed,
			DraftID: draftID,
			Actor:   owner,
			Payload: events.TicketSubmitFailedPayload{TicketNumber: snapshot.Number, Message: err.Error()},
		})
		return nil, apperrors.NewTicketCreateFailed(err.Error(), err)
	}

	s.store.Delete(draftID)
	entry.Lock()
	entry.Draft.EndSubmit()
	entry.Unlock()

	s.metrics.Submission("created")
	s.logger.Info("ticket created",
		zap.String("draft_id", draftID),
		zap.String("ticket_id", created.ID.String()),
		zap.String("ticket_number", snapshot.Number))
	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketSubmitted,
		DraftID: draftID,
		Actor:   owner,
		Payload: events.TicketSubmittedPayload{
			TicketID:     created.ID.String(),
			TicketNumber: snapshot.Number,
			Priority:     snapshot.Priority,
			Title:        payload.Title,
			Sentiment:    sentiment.Sentiment,
		},
	})

	return &SubmitResult{
		Ticket:       created,
		TicketNumber: snapshot.Number,
		Sentiment:    sentiment,
		Notice:       fmt.Sprintf("Ticket %s created", snapshot.Number),
		Redirect:     TicketListPath,
	}, nil
}

// analysisTimeout is the configured analyzer timeout, capped at half of
// whatever is left of the caller's deadline.
func (s *ComposerService) analysisTimeout(ctx context.Context) time.Duration {
	timeout := s.analyzerTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if half := time.Until(deadline) / 2; half < timeout {
			timeout = half
		}
	}
	return timeout
}

func (s *ComposerService) analyze(ctx context.Context, owner string, d *composer.Draft) domain.SentimentResult {
	reason := "analyzer not configured"
	if s.analyzer != nil {
		actx, cancel := context.WithTimeout(ctx, s.analysisTimeout(ctx))
		result, err := s.analyzer.Analyze(actx, d.SentimentRequest())
		cancel()
		if err == nil && result != nil && result.Sentiment != "" {
			return *result
		}
		reason = "empty analysis result"
		if err != nil {
			reason = err.Error()
		}
	}
	s.logger.Warn("sentiment analysis unavailable, using fallback",
		zap.String("draft_id", d.ID),
		zap.String("reason", reason))
	s.metrics.SentimentFallback()
	s.publishEvent(ctx, events.Event{
		Type:    events.EventSentimentFallback,
		DraftID: d.ID,
		Actor:   owner,
		Payload: events.SentimentFallbackPayload{Reason: reason},
	})
	return composer.FallbackSentiment()
}

// refreshLookups fetches the subcategory list and field definitions for the
// current category concurrently and applies whatever still matches the
// selection once both return.
func (s *ComposerService) refreshLookups(ctx context.Context, entry *composer.Entry) {
	entry.Lock()
	key := entry.Draft.Key()
	entry.Unlock()
	if key.CategoryID == "" {
		return
	}

	subs, defs := s.fetchLookups(ctx, key)

	entry.Lock()
	accepted, cleared := entry.Draft.ApplySubcategories(key.CategoryID, subs)
	if !accepted {
		s.metrics.StaleLookup("subcategories")
	}
	if !entry.Draft.ApplyFieldDefinitions(key, defs) {
		s.metrics.StaleLookup("fields")
	}
	entry.Unlock()

	if cleared {
		s.refreshFields(ctx, entry)
	}
}

// refreshFields fetches field definitions for the current selection.
func (s *ComposerService) refreshFields(ctx context.Context, entry *composer.Entry) {
	entry.Lock()
	key := entry.Draft.Key()
	entry.Unlock()
	if key.CategoryID == "" {
		return
	}

	defs := s.fetchFields(ctx, key)

	entry.Lock()
	defer entry.Unlock()
	if !entry.Draft.ApplyFieldDefinitions(key, defs) {
		s.metrics.StaleLookup("fields")
		s.logger.Debug("discarded stale field definitions",
			zap.String("category_id", key.CategoryID),
			zap.String("subcategory_id", key.SubcategoryID))
	}
}

// stageLookups loads lookups into a draft copy nobody else can see.
func (s *ComposerService) stageLookups(ctx context.Context, d *composer.Draft) {
	key := d.Key()
	if key.CategoryID == "" {
		return
	}
	subs, defs := s.fetchLookups(ctx, key)
	_, cleared := d.ApplySubcategories(key.CategoryID, subs)
	d.ApplyFieldDefinitions(key, defs)
	if cleared {
		s.stageFields(ctx, d)
	}
}

func (s *ComposerService) stageFields(ctx context.Context, d *composer.Draft) {
	key := d.Key()
	if key.CategoryID == "" {
		return
	}
	d.ApplyFieldDefinitions(key, s.fetchFields(ctx, key))
}

// fetchLookups runs both fetches for key in parallel. Failures degrade to
// empty lists.
func (s *ComposerService) fetchLookups(ctx context.Context, key composer.LookupKey) ([]domain.Subcategory, []domain.FieldDefinition) {
	var (
		wg      sync.WaitGroup
		subs    []domain.Subcategory
		defs    []domain.FieldDefinition
		subsErr error
		defsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		subs, subsErr = s.backend.Subcategories(ctx, key.CategoryID)
	}()
	go func() {
		defer wg.Done()
		defs, defsErr = s.backend.FieldDefinitions(ctx, key.CategoryID, key.SubcategoryFilter())
	}()
	wg.Wait()

	if subsErr != nil {
		s.lookupFailed("subcategories", key, subsErr)
		subs = nil
	}
	if defsErr != nil {
		s.lookupFailed("fields", key, defsErr)
		defs = nil
	}
	return subs, defs
}

func (s *ComposerService) fetchFields(ctx context.Context, key composer.LookupKey) []domain.FieldDefinition {
	defs, err := s.backend.FieldDefinitions(ctx, key.CategoryID, key.SubcategoryFilter())
	if err != nil {
		s.lookupFailed("fields", key, err)
		return nil
	}
	return defs
}

func (s *ComposerService) lookupFailed(kind string, key composer.LookupKey, err error) {
	s.metrics.LookupFailure(kind)
	s.logger.Warn("failed to fetch",
		zap.String("kind", kind),
		zap.String("category_id", key.CategoryID),
		zap.String("subcategory_id", key.SubcategoryID),
		zap.Error(err))
}

// mutate runs fn under the draft lock and returns a snapshot.
func (s *ComposerService) mutate(owner, draftID string, fn func(*composer.Draft) error) (*composer.Draft, error) {
	entry, err := s.store.Get(owner, draftID)
	if err != nil {
		return nil, err
	}
	entry.Lock()
	defer entry.Unlock()
	if err := fn(entry.Draft); err != nil {
		return nil, err
	}
	return entry.Draft.Clone(), nil
}

func (s *ComposerService) categoryID(name string) string {
	if s.categories == nil {
		return ""
	}
	id, ok := s.categories.CategoryID(name)
	if !ok {
		return ""
	}
	return id
}

func (s *ComposerService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
