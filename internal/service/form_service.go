package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
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

const (
	DefaultFormTitle = "Untitled Form"
	MaxTitleLength   = 80

	// DefaultPageSize is the dashboard page size.
	DefaultPageSize = 9
)

// Domain Errors
var (
	ErrTitleRequired    = &builder.ValidationError{Code: "TITLE_REQUIRED", Message: "form title is required to publish"}
	ErrNoFields         = &builder.ValidationError{Code: "NO_FIELDS", Message: "form has no fields, cannot publish"}
	ErrTitleTooLong     = &builder.ValidationError{Code: "TITLE_TOO_LONG", Message: "form title must be at most 80 characters"}
	ErrAlreadyPublished = errors.New("published form cannot be saved as draft")
	ErrFormNotFound     = errors.New("form not found")
	ErrNotPublished     = errors.New("form is not published")
	ErrFormNotVisible   = errors.New("form is not available to learners")
	ErrInvalidStatus    = errors.New("unknown form status")
	ErrTransientIO      = errors.New("storage temporarily unavailable")
)

func transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransientIO, err)
}

// FormListQuery filters the dashboard list.
type FormListQuery struct {
	Page    int
	PerPage int
	Search  string
	Status  model.FormStatus
}

// FormService owns the form collection lifecycle. Each mutation loads the
// whole collection, applies the change and writes it back.
type FormService struct {
	repo    repository.FormRepository
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time

	// mu serializes read-modify-write cycles of this instance.
	mu sync.Mutex
}

// NewFormService creates a new FormService. m may be nil.
func NewFormService(repo repository.FormRepository, m *metrics.Metrics, log zerolog.Logger) *FormService {
	return &FormService{
		repo:    repo,
		metrics: m,
		log:     logger.Component(log, "form_service"),
		now:     time.Now,
	}
}

// Create returns a new, unsaved form. It exists only in the caller's hands
// until Save is called.
func (s *FormService) Create(actor string) model.Form {
	return model.Form{
		ID:        uuid.New(),
		Fields:    []model.Field{},
		CreatedBy: actor,
	}
}

// Save writes form with the requested status. A published target requires
// a title and at least one field; any rejection leaves the stored
// collection untouched. New forms are prepended, existing ones replaced in
// place.
func (s *FormService) Save(ctx context.Context, form model.Form, status model.FormStatus, actor string) (model.Form, error) {
	if !status.Valid() {
		return model.Form{}, ErrInvalidStatus
	}

	doc := form.Clone()
	doc.Title = strings.TrimSpace(doc.Title)
	doc.HeaderName = strings.TrimSpace(doc.HeaderName)

	if status == model.FormStatusPublished {
		if doc.Title == "" {
			return model.Form{}, ErrTitleRequired
		}
		if len(doc.Fields) == 0 {
			return model.Form{}, ErrNoFields
		}
	}
	if len([]rune(doc.Title)) > MaxTitleLength {
		return model.Form{}, ErrTitleTooLong
	}
	if len(doc.Fields) > builder.MaxFields {
		return model.Form{}, builder.ErrMaxFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	forms, err := s.repo.LoadAll(ctx)
	if err != nil {
		return model.Form{}, transient("load forms", err)
	}

	idx := indexOfForm(forms, doc.ID)
	if idx >= 0 && forms[idx].Status == model.FormStatusPublished && status == model.FormStatusDraft {
		return model.Form{}, ErrAlreadyPublished
	}

	if doc.Title == "" {
		doc.Title = DefaultFormTitle
	}
	if doc.HeaderName == "" {
		doc.HeaderName = doc.Title
	}
	if doc.HeaderDescription == "" {
		doc.HeaderDescription = doc.Description
	}
	if doc.Fields == nil {
		doc.Fields = []model.Field{}
	}

	now := s.now()
	date := now.Format(model.AuditDateLayout)
	if idx >= 0 {
		prev := forms[idx]
		doc.Visible = prev.Visible
		doc.CreatedBy, doc.CreatedDate = prev.CreatedBy, prev.CreatedDate
		doc.PublishedBy, doc.PublishedDate = prev.PublishedBy, prev.PublishedDate
	}
	if status == model.FormStatusPublished {
		doc.PublishedBy, doc.PublishedDate = actor, date
	} else {
		doc.CreatedBy, doc.CreatedDate = actor, date
	}
	doc.Status = status
	doc.UpdatedAt = now

	next := make([]model.Form, 0, len(forms)+1)
	if idx >= 0 {
		next = append(next, forms...)
		next[idx] = doc
	} else {
		next = append(next, doc)
		next = append(next, forms...)
	}

	if err := s.repo.SaveAll(ctx, next); err != nil {
		return model.Form{}, transient("save forms", err)
	}

	s.metrics.FormSaved(string(status))
	s.log.Info().
		Str("form_id", doc.ID.String()).
		Str("status", string(status)).
		Int("fields", len(doc.Fields)).
		Msg("Form saved")

	return doc.Clone(), nil
}

// Get returns one form.
func (s *FormService) Get(ctx context.Context, id uuid.UUID) (model.Form, error) {
	forms, err := s.repo.LoadAll(ctx)
	if err != nil {
		return model.Form{}, transient("load forms", err)
	}
	idx := indexOfForm(forms, id)
	if idx < 0 {
		return model.Form{}, ErrFormNotFound
	}
	return forms[idx], nil
}

// GetForLearner returns a form only when it is published and visible.
func (s *FormService) GetForLearner(ctx context.Context, id uuid.UUID) (model.Form, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return model.Form{}, err
	}
	if f.Status != model.FormStatusPublished || !f.Visible {
		return model.Form{}, ErrFormNotVisible
	}
	return f, nil
}

// List returns one page of the dashboard in stored order (newest first).
func (s *FormService) List(ctx context.Context, q FormListQuery) ([]model.FormSummary, *response.Pagination, error) {
	forms, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, nil, transient("load forms", err)
	}

	filtered := filterForms(forms, func(f model.Form) bool {
		if q.Status != "" && f.Status != q.Status {
			return false
		}
		return matchesTitle(f, q.Search)
	})
	return paginate(filtered, q.Page, q.PerPage)
}

// ListVisible returns the published, visible forms a learner may open.
func (s *FormService) ListVisible(ctx context.Context, search string, page, perPage int) ([]model.FormSummary, *response.Pagination, error) {
	forms, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, nil, transient("load forms", err)
	}

	filtered := filterForms(forms, func(f model.Form) bool {
		return f.Status == model.FormStatusPublished && f.Visible && matchesTitle(f, search)
	})
	return paginate(filtered, page, perPage)
}

// Delete removes the form from the collection for good.
func (s *FormService) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	forms, err := s.repo.LoadAll(ctx)
	if err != nil {
		return transient("load forms", err)
	}
	idx := indexOfForm(forms, id)
	if idx < 0 {
		return ErrFormNotFound
	}

	next := make([]model.Form, 0, len(forms)-1)
	next = append(next, forms[:idx]...)
	next = append(next, forms[idx+1:]...)
	if err := s.repo.SaveAll(ctx, next); err != nil {
		return transient("save forms", err)
	}

	s.metrics.FormDeleted()
	s.log.Info().Str("form_id", id.String()).Msg("Form deleted")
	return nil
}

// SetVisibility toggles learner access. Only published forms qualify.
func (s *FormService) SetVisibility(ctx context.Context, id uuid.UUID, visible bool) (model.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	forms, err := s.repo.LoadAll(ctx)
	if err != nil {
		return model.Form{}, transient("load forms", err)
	}
	idx := indexOfForm(forms, id)
	if idx < 0 {
		return model.Form{}, ErrFormNotFound
	}
	if forms[idx].Status != model.FormStatusPublished {
		return model.Form{}, ErrNotPublished
	}
	if forms[idx].Visible == visible {
		return forms[idx], nil
	}

	forms[idx].Visible = visible
	forms[idx].UpdatedAt = s.now()
	if err := s.repo.SaveAll(ctx, forms); err != nil {
		return model.Form{}, transient("save forms", err)
	}
	return forms[idx], nil
}

func indexOfForm(forms []model.Form, id uuid.UUID) int {
	for i := range forms {
		if forms[i].ID == id {
			return i
		}
	}
	return -1
}

func matchesTitle(f model.Form, search string) bool {
	search = strings.TrimSpace(search)
	return search == "" || strings.Contains(strings.ToLower(f.Title), strings.ToLower(search))
}

func filterForms(forms []model.Form, keep func(model.Form) bool) []model.FormSummary {
	out := []model.FormSummary{}
	for _, f := range forms {
		if keep(f) {
			out = append(out, f.Summary())
		}
	}
	return out
}

func normalizePage(page, perPage, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = fallback
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

func paginate[T any](items []T, page, perPage int) ([]T, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage, DefaultPageSize)

	start := (page - 1) * perPage
	if start > len(items) {
		start = len(items)
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], response.NewPagination(page, perPage, len(items)), nil
}
