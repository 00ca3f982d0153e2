package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/formcraft-backend/internal/builder"
	"github.com/stemsi/formcraft-backend/internal/logger"
	"github.com/stemsi/formcraft-backend/internal/metrics"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stemsi/formcraft-backend/internal/repository"
	"github.com/stemsi/formcraft-backend/internal/response"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNotSubmittable     = errors.New("answers are not collected in this mode")
	ErrRequiredMissing    = &builder.ValidationError{Code: "REQUIRED_ANSWER_MISSING", Message: "required questions are unanswered"}
)

// SubmissionStore is the durable side of submissions.
type SubmissionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	ListByForm(ctx context.Context, formID uuid.UUID, search string, limit, offset int) ([]model.SubmissionSummary, int, error)
	ListBySubmitter(ctx context.Context, submitter string, limit, offset int) ([]model.SubmissionSummary, int, error)
	ListAllByForm(ctx context.Context, formID uuid.UUID) ([]model.Submission, error)
}

// SubmissionBuffer accepts submissions before they reach the store.
type SubmissionBuffer interface {
	Push(ctx context.Context, s model.Submission) error
	Get(ctx context.Context, id uuid.UUID) (model.Submission, bool, error)
}

var (
	_ SubmissionStore  = (*repository.SubmissionRepository)(nil)
	_ SubmissionBuffer = (*repository.SubmissionBuffer)(nil)
)

// FillView is a form rendered for filling or viewing.
type FillView struct {
	Form       model.Form          `json:"form"`
	Mode       model.Mode          `json:"mode"`
	Fields     []builder.FieldView `json:"fields"`
	Submission *model.Submission   `json:"submission,omitempty"`
}

// SubmissionService accepts learner submissions and serves stored ones.
type SubmissionService struct {
	forms   *FormService
	store   SubmissionStore
	buffer  SubmissionBuffer
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(forms *FormService, store SubmissionStore, buffer SubmissionBuffer, m *metrics.Metrics, log zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		forms:   forms,
		store:   store,
		buffer:  buffer,
		metrics: m,
		log:     logger.Component(log, "submission_service"),
		now:     time.Now,
	}
}

// Open renders a published, visible form with empty answers in mode
// (LEARNER_SUBMISSION on the fill routes).
func (s *SubmissionService) Open(ctx context.Context, mode model.Mode, formID uuid.UUID) (FillView, error) {
	form, err := s.forms.GetForLearner(ctx, formID)
	if err != nil {
		return FillView{}, err
	}
	store := builder.NewAnswerStore(form.Fields)
	return FillView{
		Form:   form,
		Mode:   mode,
		Fields: builder.RenderAll(form.Fields, mode, store, ""),
	}, nil
}

// Submit validates answers against the form and queues the submission.
// Answers for unknown fields are ignored and dropdown values that are not
// options are dropped before the required check. Only a mode that
// persists answers may submit.
func (s *SubmissionService) Submit(ctx context.Context, mode model.Mode, formID uuid.UUID, req model.SubmitRequest) (model.SubmitResult, error) {
	if !mode.PersistsAnswers() {
		return model.SubmitResult{}, ErrNotSubmittable
	}

	form, err := s.forms.GetForLearner(ctx, formID)
	if err != nil {
		return model.SubmitResult{}, err
	}

	store := builder.NewAnswerStore(form.Fields)
	for id, a := range req.Answers {
		f, ok := form.FieldByID(id)
		if !ok {
			continue
		}
		if err := store.Set(id, builder.ReconcileAnswer(f, a)); err != nil {
			return model.SubmitResult{}, err
		}
	}

	if missing := store.Missing(); len(missing) > 0 {
		return model.SubmitResult{}, fmt.Errorf("%w: %s", ErrRequiredMissing, strings.Join(missing, ", "))
	}

	sub := model.Submission{
		ID:             uuid.New(),
		FormID:         form.ID,
		FormTitle:      form.Title,
		SubmitterName:  strings.TrimSpace(req.SubmitterName),
		SubmitterEmail: strings.TrimSpace(req.SubmitterEmail),
		Answers:        store.Snapshot(),
		SubmittedAt:    s.now().UTC(),
	}
	if err := s.buffer.Push(ctx, sub); err != nil {
		return model.SubmitResult{}, transient("queue submission", err)
	}

	s.metrics.SubmissionAccepted()
	s.log.Info().
		Str("submission_id", sub.ID.String()).
		Str("form_id", form.ID.String()).
		Msg("Submission accepted")

	return model.SubmitResult{Success: true, SubmissionID: sub.ID}, nil
}

// Get returns a submission, looking at the not-yet-flushed buffer first.
func (s *SubmissionService) Get(ctx context.Context, id uuid.UUID) (model.Submission, error) {
	if sub, ok, err := s.buffer.Get(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("submission_id", id.String()).Msg("Buffer lookup failed, falling back to store")
	} else if ok {
		return sub, nil
	}

	sub, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Submission{}, ErrSubmissionNotFound
	}
	if err != nil {
		return model.Submission{}, transient("load submission", err)
	}
	return *sub, nil
}

// FetchStoredAnswers returns the answers of a stored submission.
func (s *SubmissionService) FetchStoredAnswers(ctx context.Context, id uuid.UUID) (map[string]model.Answer, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sub.Answers, nil
}

// View renders a stored submission against its form in mode
// (VIEW_SUBMISSION on the response routes). The answer store stays frozen
// whatever the mode. When formID is set the submission must belong to that
// form.
func (s *SubmissionService) View(ctx context.Context, mode model.Mode, formID *uuid.UUID, id uuid.UUID) (FillView, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return FillView{}, err
	}
	if formID != nil && sub.FormID != *formID {
		return FillView{}, ErrSubmissionNotFound
	}

	form, err := s.forms.Get(ctx, sub.FormID)
	if err != nil {
		return FillView{}, err
	}
	store := builder.LoadStoredAnswers(form.Fields, sub.Answers)
	return FillView{
		Form:       form,
		Mode:       mode,
		Fields:     builder.RenderAll(form.Fields, mode, store, ""),
		Submission: &sub,
	}, nil
}

// ListByForm returns one page of a form's responses.
func (s *SubmissionService) ListByForm(ctx context.Context, formID uuid.UUID, search string, page, perPage int) ([]model.SubmissionSummary, *response.Pagination, error) {
	if _, err := s.forms.Get(ctx, formID); err != nil {
		return nil, nil, err
	}
	page, perPage = normalizePage(page, perPage, DefaultPageSize)
	items, total, err := s.store.ListByForm(ctx, formID, strings.TrimSpace(search), perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, transient("list submissions", err)
	}
	return items, response.NewPagination(page, perPage, total), nil
}

// ListBySubmitter returns the submissions made under a name.
func (s *SubmissionService) ListBySubmitter(ctx context.Context, submitter string, page, perPage int) ([]model.SubmissionSummary, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage, DefaultPageSize)
	items, total, err := s.store.ListBySubmitter(ctx, strings.TrimSpace(submitter), perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, transient("list submissions", err)
	}
	return items, response.NewPagination(page, perPage, total), nil
}
