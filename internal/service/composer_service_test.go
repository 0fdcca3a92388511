package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/composer"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

type fakeBackend struct {
	mu         sync.Mutex
	subs       map[string][]domain.Subcategory
	fields     map[composer.LookupKey][]domain.FieldDefinition
	subsErr    error
	fieldsErr  error
	gates      map[string]chan struct{}
	started    chan string
	createGate chan struct{}
	createErr  error

	subCalls   []string
	fieldCalls []composer.LookupKey
	created    []domain.SubmissionPayload
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		subs:    map[string][]domain.Subcategory{},
		fields:  map[composer.LookupKey][]domain.FieldDefinition{},
		gates:   map[string]chan struct{}{},
		started: make(chan string, 16),
	}
}

func (f *fakeBackend) wait(ctx context.Context, categoryID string) error {
	f.mu.Lock()
	gate := f.gates[categoryID]
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	f.started <- categoryID
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) Subcategories(ctx context.Context, categoryID string) ([]domain.Subcategory, error) {
	f.mu.Lock()
	f.subCalls = append(f.subCalls, categoryID)
	f.mu.Unlock()
	if err := f.wait(ctx, categoryID); err != nil {
		return nil, err
	}
	if f.subsErr != nil {
		return nil, f.subsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[categoryID], nil
}

func (f *fakeBackend) FieldDefinitions(ctx context.Context, categoryID, subcategoryID string) ([]domain.FieldDefinition, error) {
	key := composer.LookupKey{CategoryID: categoryID, SubcategoryID: subcategoryID}
	f.mu.Lock()
	f.fieldCalls = append(f.fieldCalls, key)
	f.mu.Unlock()
	if err := f.wait(ctx, categoryID); err != nil {
		return nil, err
	}
	if f.fieldsErr != nil {
		return nil, f.fieldsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields[key], nil
}

func (f *fakeBackend) CreateTicket(ctx context.Context, payload domain.SubmissionPayload) (*domain.CreatedTicket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.createGate != nil {
		f.started <- "create"
		<-f.createGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, payload)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.CreatedTicket{ID: "42", TicketNumber: payload.TicketNumber, Status: "open"}, nil
}

func (f *fakeBackend) calls() ([]string, []composer.LookupKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subCalls...), append([]composer.LookupKey(nil), f.fieldCalls...)
}

type fakeAnalyzer struct {
	result *domain.SentimentResult
	err    error
	// stall makes Analyze hang until its context gives up.
	stall bool
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, req domain.SentimentRequest) (*domain.SentimentResult, error) {
	if a.stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return a.result, a.err
}

type fakeTemplates map[string]domain.Template

func (f fakeTemplates) List(ctx context.Context) ([]domain.Template, error) {
	out := make([]domain.Template, 0, len(f))
	for _, t := range f {
		out = append(out, t)
	}
	return out, nil
}

func (f fakeTemplates) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	t, ok := f[id]
	if !ok {
		return nil, apperrors.NewNotFound("template", map[string]any{"id": id})
	}
	return &t, nil
}

type staticCategories map[string]string

func (c staticCategories) CategoryID(name string) (string, bool) {
	id, ok := c[name]
	return id, ok
}

type staticStudios []domain.Studio

func (s staticStudios) Studios(ctx context.Context) []domain.Studio { return s }

type composerFixture struct {
	svc      *ComposerService
	backend  *fakeBackend
	analyzer *fakeAnalyzer
	metrics  *observability.Metrics
	events   *eventRecorder
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newComposerFixture(t *testing.T, opts ...func(*ComposerDependencies)) *composerFixture {
	t.Helper()
	backend := newFakeBackend()
	analyzer := &fakeAnalyzer{result: &domain.SentimentResult{Sentiment: "negative", Tags: []string{"billing"}, Summary: "Refund"}}
	metrics := observability.NewMetrics()
	recorder := &eventRecorder{}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{
		events.EventDraftCreated, events.EventTemplateApplied, events.EventSentimentFallback,
		events.EventTicketSubmitted, events.EventTicketSubmitFailed,
	} {
		dispatcher.Subscribe(et, recorder.handle)
	}
	now := func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }

	deps := ComposerDependencies{
		Backend:  backend,
		Analyzer: analyzer,
		Templates: fakeTemplates{
			"refund": {ID: "refund", Name: "Refund", Category: "Billing & Payments", Priority: domain.TicketPriorityHigh,
				Title: "Refund request", Description: "Customer requests a refund", SubcategoryName: "Refunds"},
			"mystery": {ID: "mystery", Name: "Mystery", Category: "Billing & Payments", Priority: domain.TicketPriorityLow,
				Title: "Something", Description: "Something happened", SubcategoryName: "Does not exist"},
		},
		Categories: staticCategories{"Billing & Payments": "2", "Membership": "3"},
		Numbers:    composer.NewNumberGenerator(now, func(int) int { return 7 }),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Now:        now,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	svc := NewComposerService(deps)
	return &composerFixture{svc: svc, backend: backend, analyzer: analyzer, metrics: metrics, events: recorder}
}

func strPtr(s string) *string { return &s }

func (f *composerFixture) readyForReview(t *testing.T, owner string) *composer.Draft {
	t.Helper()
	ctx := context.Background()
	d, err := f.svc.CreateDraft(ctx, owner)
	require.NoError(t, err)
	_, err = f.svc.StartBlank(ctx, owner, d.ID)
	require.NoError(t, err)
	_, err = f.svc.UpdateDetails(ctx, owner, d.ID, DetailsInput{
		Category:    strPtr("Billing & Payments"),
		Title:       strPtr("Double charge"),
		Description: strPtr("Customer was charged twice for March"),
	})
	require.NoError(t, err)
	_, err = f.svc.Next(ctx, owner, d.ID)
	require.NoError(t, err)
	_, err = f.svc.UpdateContext(ctx, owner, d.ID, ContextInput{StudioID: strPtr("1")})
	require.NoError(t, err)
	d, err = f.svc.Next(ctx, owner, d.ID)
	require.NoError(t, err)
	require.Equal(t, composer.StepReview, d.Step)
	return d
}

func TestCreateDraftAssignsNumber(t *testing.T) {
	f := newComposerFixture(t)

	d, err := f.svc.CreateDraft(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "TKT-240309-0007", d.Number)
	assert.Equal(t, composer.StepTemplate, d.Step)
	assert.Equal(t, []events.EventType{events.EventDraftCreated}, f.events.types())

	_, err = f.svc.CreateDraft(context.Background(), " ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestDraftsAreScopedToOwner(t *testing.T) {
	f := newComposerFixture(t)
	d, err := f.svc.CreateDraft(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = f.svc.GetDraft(context.Background(), "user-2", d.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	require.NoError(t, f.svc.DiscardDraft(context.Background(), "user-1", d.ID))
	_, err = f.svc.GetDraft(context.Background(), "user-1", d.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestCategoryChangeFetchesSubcategoriesAndFields(t *testing.T) {
	f := newComposerFixture(t)
	f.backend.fields[composer.LookupKey{CategoryID: "3"}] = []domain.FieldDefinition{
		{UniqueID: "plan", Label: "Plan", FieldType: domain.FieldTypeText},
		{UniqueID: "prio", Label: "Priority", FieldType: domain.FieldTypeText},
	}
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")
	_, _ = f.svc.StartBlank(ctx, "u", d.ID)

	d, err := f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{Category: strPtr("Membership")})
	require.NoError(t, err)

	subCalls, fieldCalls := f.backend.calls()
	assert.Equal(t, []string{"3"}, subCalls)
	// No subcategories exist for the category, the field fetch still happens unfiltered.
	assert.Equal(t, []composer.LookupKey{{CategoryID: "3"}}, fieldCalls)
	assert.Empty(t, d.Subcategories())
	require.Len(t, d.ActiveFields(), 1)
	assert.Equal(t, "plan", d.ActiveFields()[0].UniqueID)
}

func TestUnknownCategoryIssuesNoFetch(t *testing.T) {
	f := newComposerFixture(t)
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")
	_, _ = f.svc.StartBlank(ctx, "u", d.ID)

	d, err := f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{Category: strPtr("Unlisted")})
	require.NoError(t, err)
	assert.Equal(t, "Unlisted", d.Category)
	assert.Empty(t, d.CategoryID)

	subCalls, fieldCalls := f.backend.calls()
	assert.Empty(t, subCalls)
	assert.Empty(t, fieldCalls)
}

func TestSubcategorySelectionRefetchesFields(t *testing.T) {
	f := newComposerFixture(t)
	f.backend.subs["2"] = []domain.Subcategory{{ID: "11", Name: "Refunds"}, {ID: "12", Name: "Invoices"}}
	f.backend.fields[composer.LookupKey{CategoryID: "2", SubcategoryID: "11"}] = []domain.FieldDefinition{
		{UniqueID: "amount", Label: "Amount", FieldType: domain.FieldTypeText},
	}
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")
	_, _ = f.svc.StartBlank(ctx, "u", d.ID)

	d, err := f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{
		Category:      strPtr("Billing & Payments"),
		SubcategoryID: strPtr("11"),
		DynamicValues: map[string]string{"amount": "49.99"},
	})
	require.NoError(t, err)
	assert.Equal(t, "11", d.SubcategoryID)
	assert.Equal(t, "49.99", d.DynamicValues["amount"])

	_, fieldCalls := f.backend.calls()
	assert.Equal(t, []composer.LookupKey{{CategoryID: "2"}, {CategoryID: "2", SubcategoryID: "11"}}, fieldCalls)

	_, err = f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{SubcategoryID: strPtr("99")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestSubcategoryAllOmitsFilter(t *testing.T) {
	f := newComposerFixture(t)
	f.backend.subs["2"] = []domain.Subcategory{{ID: "11", Name: "Refunds"}}
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")
	_, _ = f.svc.StartBlank(ctx, "u", d.ID)
	_, err := f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{Category: strPtr("Billing & Payments"), SubcategoryID: strPtr("11")})
	require.NoError(t, err)

	d, err = f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{SubcategoryID: strPtr(domain.SubcategoryAll)})
	require.NoError(t, err)
	assert.Equal(t, domain.SubcategoryAll, d.SubcategoryID)

	_, fieldCalls := f.backend.calls()
	require.Len(t, fieldCalls, 3)
	assert.Equal(t, composer.LookupKey{CategoryID: "2"}, fieldCalls[2])
}

func TestStaleCategoryResultsAreDiscarded(t *testing.T) {
	f := newComposerFixture(t)
	f.backend.subs["2"] = []domain.Subcategory{{ID: "11", Name: "Refunds"}}
	f.backend.fields[composer.LookupKey{CategoryID: "2"}] = []domain.FieldDefinition{{UniqueID: "amount", Label: "Amount"}}
	f.backend.subs["3"] = []domain.Subcategory{{ID: "31", Name: "Freeze"}}
	f.backend.fields[composer.LookupKey{CategoryID: "3"}] = []domain.FieldDefinition{{UniqueID: "plan", Label: "Plan"}}
	release := make(chan struct{})
	f.backend.gates["2"] = release

	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")
	_, _ = f.svc.StartBlank(ctx, "u", d.ID)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{Category: strPtr("Billing & Payments")})
		done <- err
	}()
	<-f.backend.started
	<-f.backend.started

	_, err := f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{Category: strPtr("Membership")})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	d, err = f.svc.GetDraft(ctx, "u", d.ID)
	require.NoError(t, err)
	assert.Equal(t, "3", d.CategoryID)
	require.Len(t, d.Subcategories(), 1)
	assert.Equal(t, "Freeze", d.Subcategories()[0].Name)
	require.Len(t, d.ActiveFields(), 1)
	assert.Equal(t, "plan", d.ActiveFields()[0].UniqueID)
}

func TestRejectedDetailsUpdateLeavesDraftUnchanged(t *testing.T) {
	f := newComposerFixture(t)
	f.backend.subs["2"] = []domain.Subcategory{{ID: "11", Name: "Refunds"}}
	f.backend.fields[composer.LookupKey{CategoryID: "2"}] = []domain.FieldDefinition{{UniqueID: "amount", Label: "Amount"}}
	f.backend.subs["3"] = []domain.Subcategory{{ID: "31", Name: "Freeze"}}
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")
	_, _ = f.svc.StartBlank(ctx, "u", d.ID)

	_, err := f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{
		Category:      strPtr("Billing & Payments"),
		Title:         strPtr("Double charge"),
		DynamicValues: map[string]string{"amount": "10"},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{
		Title:         strPtr("Brand new title"),
		Priority:      strPtr("high"),
		DynamicValues: map[string]string{"ghost": "x"},
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{
		Category:      strPtr("Membership"),
		SubcategoryID: strPtr("11"),
		Title:         strPtr("Membership freeze"),
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "subcategory 11 belongs to the old category")

	d, err = f.svc.GetDraft(ctx, "u", d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Double charge", d.Title)
	assert.Equal(t, domain.TicketPriorityMedium, d.Priority)
	assert.Equal(t, "Billing & Payments", d.Category)
	assert.Equal(t, "2", d.CategoryID)
	assert.Empty(t, d.SubcategoryID)
	require.Len(t, d.Subcategories(), 1)
	assert.Equal(t, "Refunds", d.Subcategories()[0].Name)
	require.Len(t, d.ActiveFields(), 1)
	assert.Equal(t, map[string]string{"amount": "10"}, d.DynamicValues)
}

func TestSupersededSelectionRejectsDependentValues(t *testing.T) {
	f := newComposerFixture(t)
	f.backend.fields[composer.LookupKey{CategoryID: "2"}] = []domain.FieldDefinition{{UniqueID: "amount", Label: "Amount"}}
	f.backend.fields[composer.LookupKey{CategoryID: "3"}] = []domain.FieldDefinition{{UniqueID: "plan", Label: "Plan"}}
	release := make(chan struct{})
	f.backend.gates["2"] = release

	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")
	_, _ = f.svc.StartBlank(ctx, "u", d.ID)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{
			Category:      strPtr("Billing & Payments"),
			Title:         strPtr("Refund"),
			DynamicValues: map[string]string{"amount": "10"},
		})
		done <- err
	}()
	<-f.backend.started
	<-f.backend.started

	_, err := f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{Category: strPtr("Membership")})
	require.NoError(t, err)

	close(release)
	assert.True(t, apperrors.IsCode(<-done, apperrors.CodeConflict))

	d, err = f.svc.GetDraft(ctx, "u", d.ID)
	require.NoError(t, err)
	assert.Equal(t, "3", d.CategoryID)
	assert.Empty(t, d.Title)
	assert.Empty(t, d.DynamicValues)
}

func TestFetchFailuresDegradeToEmptyLists(t *testing.T) {
	f := newComposerFixture(t)
	f.backend.subsErr = apperrors.NewFetchFailed("subcategories", errors.New("boom"))
	f.backend.fieldsErr = apperrors.NewFetchFailed("field definitions", errors.New("boom"))
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")
	_, _ = f.svc.StartBlank(ctx, "u", d.ID)

	d, err := f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{Category: strPtr("Billing & Payments")})
	require.NoError(t, err)
	assert.Empty(t, d.Subcategories())
	assert.Empty(t, d.ActiveFields())
	assert.Equal(t, "2", d.CategoryID)
}

func TestApplyTemplateResolvesSubcategoryByName(t *testing.T) {
	f := newComposerFixture(t)
	f.backend.subs["2"] = []domain.Subcategory{{ID: "11", Name: "Refunds"}}
	f.backend.fields[composer.LookupKey{CategoryID: "2", SubcategoryID: "11"}] = []domain.FieldDefinition{{UniqueID: "amount", Label: "Amount"}}
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")

	d, err := f.svc.ApplyTemplate(ctx, "u", d.ID, "refund")
	require.NoError(t, err)
	assert.Equal(t, composer.StepDetails, d.Step)
	assert.Equal(t, "Billing & Payments", d.Category)
	assert.Equal(t, "2", d.CategoryID)
	assert.Equal(t, "11", d.SubcategoryID)
	assert.Equal(t, domain.TicketPriorityHigh, d.Priority)
	assert.Equal(t, "Refund request", d.Title)
	require.Len(t, d.ActiveFields(), 1)
	assert.Contains(t, f.events.types(), events.EventTemplateApplied)
}

func TestApplyTemplateUnmatchedSubcategoryStaysUnset(t *testing.T) {
	f := newComposerFixture(t)
	f.backend.subs["2"] = []domain.Subcategory{{ID: "11", Name: "Refunds"}}
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")

	d, err := f.svc.ApplyTemplate(ctx, "u", d.ID, "mystery")
	require.NoError(t, err)
	assert.Empty(t, d.SubcategoryID)
	assert.Equal(t, "Something", d.Title)

	_, err = f.svc.ApplyTemplate(ctx, "u", d.ID, "refund")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict), "templates only apply in the template step")
}

func TestStepOwnershipIsEnforced(t *testing.T) {
	f := newComposerFixture(t)
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")

	_, err := f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{Title: strPtr("Too early")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	_, err = f.svc.UpdateContext(ctx, "u", d.ID, ContextInput{StudioID: strPtr("1")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	_, err = f.svc.UpdateDetails(ctx, "u", d.ID, DetailsInput{Priority: strPtr("critical")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestUpdateContextChecksStudio(t *testing.T) {
	f := newComposerFixture(t, func(deps *ComposerDependencies) {
		deps.Studios = staticStudios{{ID: "1", Name: "Supreme HQ"}, {ID: "kwality-house", Name: "Kwality House"}}
	})
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")
	_, _ = f.svc.StartBlank(ctx, "u", d.ID)
	_, _ = f.svc.Next(ctx, "u", d.ID)

	_, err := f.svc.UpdateContext(ctx, "u", d.ID, ContextInput{StudioID: strPtr("atlantis")})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Equal(t, "atlantis", de.Details["studioId"])

	d, err = f.svc.UpdateContext(ctx, "u", d.ID, ContextInput{StudioID: strPtr(" kwality-house ")})
	require.NoError(t, err)
	assert.Equal(t, "kwality-house", d.StudioID)

	d, err = f.svc.UpdateContext(ctx, "u", d.ID, ContextInput{StudioID: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, d.StudioID)
}

func TestContextStepClientsAndAttachments(t *testing.T) {
	f := newComposerFixture(t)
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")
	_, _ = f.svc.StartBlank(ctx, "u", d.ID)
	_, _ = f.svc.Next(ctx, "u", d.ID)

	d, added, err := f.svc.ToggleClient(ctx, "u", d.ID, domain.ClientRef{ID: "c1", FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "Ana Lopez", d.Customer.Name)

	d, added, err = f.svc.ToggleClient(ctx, "u", d.ID, domain.ClientRef{ID: "c2", FirstName: "Bo", Email: "bo@example.com"})
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "ana@example.com", d.Customer.Email)

	_, _, err = f.svc.ToggleClient(ctx, "u", d.ID, domain.ClientRef{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	files := make([]domain.Attachment, 7)
	for i := range files {
		files[i] = domain.Attachment{FileName: string(rune('a'+i)) + ".png"}
	}
	d, dropped, err := f.svc.AddAttachments(ctx, "u", d.ID, files)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	require.Len(t, d.Attachments, composer.MaxAttachments)
	assert.Equal(t, "a.png", d.Attachments[0].FileName)
	assert.Equal(t, "e.png", d.Attachments[4].FileName)

	d, err = f.svc.RemoveAttachment(ctx, "u", d.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "b.png", d.Attachments[0].FileName)

	d, added, err = f.svc.ToggleSession(ctx, "u", d.ID, domain.SessionRef{ID: "s1", Name: "Spin"})
	require.NoError(t, err)
	assert.True(t, added)
	assert.Len(t, d.Sessions, 1)
}

func TestSubmitCreatesTicketAndDiscardsDraft(t *testing.T) {
	f := newComposerFixture(t)
	d := f.readyForReview(t, "u")

	res, err := f.svc.Submit(context.Background(), "u", d.ID)
	require.NoError(t, err)
	assert.Equal(t, TicketListPath, res.Redirect)
	assert.Equal(t, d.Number, res.TicketNumber)
	assert.Contains(t, res.Notice, d.Number)
	assert.Equal(t, "negative", res.Sentiment.Sentiment)

	require.Len(t, f.backend.created, 1)
	payload := f.backend.created[0]
	assert.Equal(t, "2", payload.CategoryID)
	assert.Equal(t, "1", payload.StudioID)
	assert.Equal(t, []string{"billing"}, payload.Tags)

	_, err = f.svc.GetDraft(context.Background(), "u", d.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.Contains(t, f.events.types(), events.EventTicketSubmitted)
}

func TestSubmitFallsBackWhenAnalysisFails(t *testing.T) {
	f := newComposerFixture(t)
	f.analyzer.result = nil
	f.analyzer.err = errors.New("analysis service unavailable")
	d := f.readyForReview(t, "u")

	res, err := f.svc.Submit(context.Background(), "u", d.ID)
	require.NoError(t, err)
	assert.Equal(t, composer.FallbackSentiment(), res.Sentiment)

	require.Len(t, f.backend.created, 1)
	payload := f.backend.created[0]
	assert.Equal(t, "neutral", payload.Sentiment)
	assert.Equal(t, []string{"support"}, payload.Tags)
	assert.Equal(t, "Support ticket", payload.Summary)
	assert.Contains(t, f.events.types(), events.EventSentimentFallback)
}

func TestSubmitStalledAnalyzerLeavesTimeForCreate(t *testing.T) {
	f := newComposerFixture(t)
	f.analyzer.stall = true
	d := f.readyForReview(t, "u")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	res, err := f.svc.Submit(ctx, "u", d.ID)
	require.NoError(t, err)
	assert.Equal(t, composer.FallbackSentiment(), res.Sentiment)
	require.Len(t, f.backend.created, 1)
	assert.Equal(t, "neutral", f.backend.created[0].Sentiment)
	assert.Contains(t, f.events.types(), events.EventSentimentFallback)
}

func TestSubmitAnalyzerTimeoutIsConfigurable(t *testing.T) {
	f := newComposerFixture(t, func(deps *ComposerDependencies) {
		deps.AnalyzerTimeout = 20 * time.Millisecond
	})
	f.analyzer.stall = true
	d := f.readyForReview(t, "u")

	started := time.Now()
	res, err := f.svc.Submit(context.Background(), "u", d.ID)
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)
	assert.Equal(t, composer.FallbackSentiment(), res.Sentiment)
	assert.Len(t, f.backend.created, 1)
}

func TestSubmitFailureKeepsDraftForRetry(t *testing.T) {
	f := newComposerFixture(t)
	f.backend.createErr = errors.New("studio is closed")
	d := f.readyForReview(t, "u")

	_, err := f.svc.Submit(context.Background(), "u", d.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTicketCreation))
	assert.Contains(t, err.Error(), "studio is closed")
	assert.Contains(t, f.events.types(), events.EventTicketSubmitFailed)

	kept, err := f.svc.GetDraft(context.Background(), "u", d.ID)
	require.NoError(t, err)
	assert.False(t, kept.Submitting())
	assert.Equal(t, "Double charge", kept.Title)

	f.backend.createErr = nil
	_, err = f.svc.Submit(context.Background(), "u", d.ID)
	require.NoError(t, err)
	assert.Len(t, f.backend.created, 2)
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	f := newComposerFixture(t)
	d := f.readyForReview(t, "u")
	f.backend.createGate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Submit(context.Background(), "u", d.ID)
		done <- err
	}()
	<-f.backend.started

	_, err := f.svc.Submit(context.Background(), "u", d.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	_, err = f.svc.Back(context.Background(), "u", d.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict), "no edits while submitting")

	close(f.backend.createGate)
	require.NoError(t, <-done)
	assert.Len(t, f.backend.created, 1)
}

func TestSubmitValidatesDraft(t *testing.T) {
	f := newComposerFixture(t)
	ctx := context.Background()
	d, _ := f.svc.CreateDraft(ctx, "u")
	_, _ = f.svc.StartBlank(ctx, "u", d.ID)
	_, _ = f.svc.Next(ctx, "u", d.ID)
	_, _ = f.svc.Next(ctx, "u", d.ID)

	_, err := f.svc.Submit(ctx, "u", d.ID)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Contains(t, de.Details, "title")
	assert.Contains(t, de.Details, "studioId")
	assert.Empty(t, f.backend.created)

	kept, err := f.svc.GetDraft(ctx, "u", d.ID)
	require.NoError(t, err)
	assert.False(t, kept.Submitting())
}
