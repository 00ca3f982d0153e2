package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/formcraft-backend/internal/builder"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stemsi/formcraft-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubmissionStore is an in-memory SubmissionStore.
type fakeSubmissionStore struct {
	mu   sync.Mutex
	subs map[uuid.UUID]model.Submission
	err  error
}

func newFakeSubmissionStore(subs ...model.Submission) *fakeSubmissionStore {
	s := &fakeSubmissionStore{subs: make(map[uuid.UUID]model.Submission)}
	for _, sub := range subs {
		s.subs[sub.ID] = sub
	}
	return s
}

func (s *fakeSubmissionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	sub, ok := s.subs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

func (s *fakeSubmissionStore) ListByForm(_ context.Context, formID uuid.UUID, _ string, limit, offset int) ([]model.SubmissionSummary, int, error) {
	all := s.filter(func(sub model.Submission) bool { return sub.FormID == formID })
	return window(all, limit, offset), len(all), s.err
}

func (s *fakeSubmissionStore) ListBySubmitter(_ context.Context, submitter string, limit, offset int) ([]model.SubmissionSummary, int, error) {
	all := s.filter(func(sub model.Submission) bool { return sub.SubmitterName == submitter })
	return window(all, limit, offset), len(all), s.err
}

func (s *fakeSubmissionStore) ListAllByForm(_ context.Context, formID uuid.UUID) ([]model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Submission
	for _, sub := range s.subs {
		if sub.FormID == formID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, s.err
}

func (s *fakeSubmissionStore) filter(keep func(model.Submission) bool) []model.SubmissionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SubmissionSummary
	for _, sub := range s.subs {
		if keep(sub) {
			out = append(out, sub.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

func window(items []model.SubmissionSummary, limit, offset int) []model.SubmissionSummary {
	if offset > len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// fakeSubmissionBuffer keeps pushed submissions in memory.
type fakeSubmissionBuffer struct {
	mu     sync.Mutex
	queued []model.Submission
	err    error
}

func (b *fakeSubmissionBuffer) Push(_ context.Context, s model.Submission) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.queued = append(b.queued, s)
	return nil
}

func (b *fakeSubmissionBuffer) Get(_ context.Context, id uuid.UUID) (model.Submission, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.queued {
		if s.ID == id {
			return s, true, nil
		}
	}
	return model.Submission{}, false, nil
}

// fillableForm is a published, visible form with a required name question
// and an optional single-select dropdown.
func fillableForm(t *testing.T) model.Form {
	t.Helper()
	name := shortTextField(t, "Full name")
	name.Required = true
	team, err := builder.NewField(model.FieldKindDropdown)
	require.NoError(t, err)
	team.Question = "Team"

	return model.Form{
		ID:      uuid.New(),
		Title:   "Onboarding",
		Status:  model.FormStatusPublished,
		Visible: true,
		Fields:  []model.Field{name, team},
	}
}

type submissionFixture struct {
	svc    *SubmissionService
	store  *fakeSubmissionStore
	buffer *fakeSubmissionBuffer
}

func newSubmissionFixture(t *testing.T, forms []model.Form, stored ...model.Submission) submissionFixture {
	t.Helper()
	formSvc, _ := newTestFormService(t, forms...)
	store := newFakeSubmissionStore(stored...)
	buffer := &fakeSubmissionBuffer{}
	svc := NewSubmissionService(formSvc, store, buffer, nil, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, time.June, 3, 9, 30, 0, 0, time.UTC) }
	return submissionFixture{svc: svc, store: store, buffer: buffer}
}

func TestSubmissionService_OpenRendersLearnerMode(t *testing.T) {
	form := fillableForm(t)
	fx := newSubmissionFixture(t, []model.Form{form})

	view, err := fx.svc.Open(context.Background(), model.ModeLearnerSubmission, form.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ModeLearnerSubmission, view.Mode)
	require.Len(t, view.Fields, 2)
	assert.Equal(t, 1, view.Fields[0].Number)
	assert.True(t, view.Fields[0].AnswerEditable)
	assert.False(t, view.Fields[0].SchemaEditable)
}

func TestSubmissionService_ModeDecidesRendering(t *testing.T) {
	form := fillableForm(t)
	fx := newSubmissionFixture(t, []model.Form{form})

	view, err := fx.svc.Open(context.Background(), model.ModeViewSubmission, form.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ModeViewSubmission, view.Mode)
	require.Len(t, view.Fields, 2)
	assert.Equal(t, builder.WidgetDisplay, view.Fields[0].Widget)
	assert.False(t, view.Fields[0].AnswerEditable)
}

func TestSubmissionService_SubmitOnlyWhenModePersists(t *testing.T) {
	form := fillableForm(t)
	fx := newSubmissionFixture(t, []model.Form{form})
	req := model.SubmitRequest{
		SubmitterName: "Riya",
		Answers:       map[string]model.Answer{form.Fields[0].ID: model.TextAnswer("Riya Sen")},
	}

	for _, mode := range []model.Mode{model.ModeBuilderEdit, model.ModeBuilderPreview, model.ModeViewSubmission} {
		_, err := fx.svc.Submit(context.Background(), mode, form.ID, req)
		assert.ErrorIs(t, err, ErrNotSubmittable, mode)
	}
	assert.Empty(t, fx.buffer.queued)
}

func TestSubmissionService_SubmitRequiresAnswers(t *testing.T) {
	form := fillableForm(t)
	fx := newSubmissionFixture(t, []model.Form{form})

	_, err := fx.svc.Submit(context.Background(), model.ModeLearnerSubmission, form.ID, model.SubmitRequest{
		SubmitterName: "Riya",
		Answers:       map[string]model.Answer{form.Fields[1].ID: model.TextAnswer("Option 1")},
	})
	assert.ErrorIs(t, err, ErrRequiredMissing)
	assert.Contains(t, err.Error(), form.Fields[0].ID)
	assert.Empty(t, fx.buffer.queued)
}

func TestSubmissionService_SubmitQueuesCleanAnswers(t *testing.T) {
	form := fillableForm(t)
	fx := newSubmissionFixture(t, []model.Form{form})

	res, err := fx.svc.Submit(context.Background(), model.ModeLearnerSubmission, form.ID, model.SubmitRequest{
		SubmitterName: "  Riya ",
		Answers: map[string]model.Answer{
			form.Fields[0].ID: model.TextAnswer("Riya Sen"),
			form.Fields[1].ID: model.TextAnswer("Not an option"),
			"ghost":           model.TextAnswer("ignored"),
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)

	require.Len(t, fx.buffer.queued, 1)
	sub := fx.buffer.queued[0]
	assert.Equal(t, res.SubmissionID, sub.ID)
	assert.Equal(t, "Riya", sub.SubmitterName)
	assert.Equal(t, "Onboarding", sub.FormTitle)
	assert.Equal(t, "Riya Sen", sub.Answers[form.Fields[0].ID].Text)
	assert.True(t, sub.Answers[form.Fields[1].ID].IsEmpty())
	assert.NotContains(t, sub.Answers, "ghost")
}

func TestSubmissionService_SubmitToHiddenForm(t *testing.T) {
	form := fillableForm(t)
	form.Visible = false
	fx := newSubmissionFixture(t, []model.Form{form})

	_, err := fx.svc.Submit(context.Background(), model.ModeLearnerSubmission, form.ID, model.SubmitRequest{SubmitterName: "Riya"})
	assert.ErrorIs(t, err, ErrFormNotVisible)
}

func TestSubmissionService_SubmitBufferFailureIsTransient(t *testing.T) {
	form := fillableForm(t)
	fx := newSubmissionFixture(t, []model.Form{form})
	fx.buffer.err = errStoreDown

	_, err := fx.svc.Submit(context.Background(), model.ModeLearnerSubmission, form.ID, model.SubmitRequest{
		SubmitterName: "Riya",
		Answers:       map[string]model.Answer{form.Fields[0].ID: model.TextAnswer("Riya")},
	})
	assert.ErrorIs(t, err, ErrTransientIO)
}

func TestSubmissionService_GetPrefersBuffer(t *testing.T) {
	form := fillableForm(t)
	stored := model.Submission{ID: uuid.New(), FormID: form.ID, SubmitterName: "Old"}
	fx := newSubmissionFixture(t, []model.Form{form}, stored)

	res, err := fx.svc.Submit(context.Background(), model.ModeLearnerSubmission, form.ID, model.SubmitRequest{
		SubmitterName: "New",
		Answers:       map[string]model.Answer{form.Fields[0].ID: model.TextAnswer("x")},
	})
	require.NoError(t, err)

	got, err := fx.svc.Get(context.Background(), res.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.SubmitterName)

	got, err = fx.svc.Get(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old", got.SubmitterName)

	_, err = fx.svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmissionService_ViewIsReadOnly(t *testing.T) {
	form := fillableForm(t)
	stored := model.Submission{
		ID:     uuid.New(),
		FormID: form.ID,
		Answers: map[string]model.Answer{
			form.Fields[0].ID: model.TextAnswer("Riya Sen"),
		},
	}
	fx := newSubmissionFixture(t, []model.Form{form}, stored)
	ctx := context.Background()

	view, err := fx.svc.View(ctx, model.ModeViewSubmission, nil, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ModeViewSubmission, view.Mode)
	require.Len(t, view.Fields, 2)
	assert.Equal(t, "Riya Sen", view.Fields[0].DisplayText)
	assert.False(t, view.Fields[0].AnswerEditable)
	require.NotNil(t, view.Submission)

	other := uuid.New()
	_, err = fx.svc.View(ctx, model.ModeViewSubmission, &other, stored.ID)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	answers, err := fx.svc.FetchStoredAnswers(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Riya Sen", answers[form.Fields[0].ID].Text)
}

func TestSubmissionService_ListByForm(t *testing.T) {
	form := fillableForm(t)
	base := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	var stored []model.Submission
	for i := 0; i < 12; i++ {
		stored = append(stored, model.Submission{
			ID:            uuid.New(),
			FormID:        form.ID,
			SubmitterName: "Riya",
			SubmittedAt:   base.Add(time.Duration(i) * time.Hour),
		})
	}
	fx := newSubmissionFixture(t, []model.Form{form}, stored...)
	ctx := context.Background()

	items, p, err := fx.svc.ListByForm(ctx, form.ID, "", 2, 5)
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, 12, p.TotalItems)
	assert.Equal(t, 3, p.TotalPages)

	_, _, err = fx.svc.ListByForm(ctx, uuid.New(), "", 1, 5)
	assert.ErrorIs(t, err, ErrFormNotFound)

	mine, _, err := fx.svc.ListBySubmitter(ctx, " Riya ", 1, 0)
	require.NoError(t, err)
	assert.Len(t, mine, DefaultPageSize)
}
