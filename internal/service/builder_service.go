package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/formcraft-backend/internal/builder"
	"github.com/stemsi/formcraft-backend/internal/logger"
	"github.com/stemsi/formcraft-backend/internal/metrics"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stemsi/formcraft-backend/internal/repository"
)

var (
	ErrSessionNotFound = errors.New("builder session not found")
	ErrSessionReadOnly = errors.New("published form is read-only in the builder")
)

// PreviewResult is what the preview pane gets back after an interaction.
type PreviewResult struct {
	Changed   bool                `json:"changed"`
	CloseList bool                `json:"close_list"`
	Fields    []builder.FieldView `json:"fields"`
}

// BuilderService drives builder sessions. Each session wraps a
// FieldListController that is restored from the session store, mutated and
// stored back under a per-session lock.
type BuilderService struct {
	sessions repository.SessionRepository
	forms    *FormService
	events   EventPublisher
	metrics  *metrics.Metrics
	log      zerolog.Logger
	locks    *keyedMutex
	now      func() time.Time
}

// NewBuilderService creates a new BuilderService. events and m may be nil.
func NewBuilderService(
	sessions repository.SessionRepository,
	forms *FormService,
	events EventPublisher,
	m *metrics.Metrics,
	log zerolog.Logger,
) *BuilderService {
	return &BuilderService{
		sessions: sessions,
		forms:    forms,
		events:   events,
		metrics:  m,
		log:      logger.Component(log, "builder_service"),
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// ─── Session lifecycle ─────────────────────────────────────────────────

// Start opens a session on an existing form, or on a new unsaved form when
// formID is nil.
func (s *BuilderService) Start(ctx context.Context, formID *uuid.UUID, actor string) (model.BuilderSession, error) {
	var (
		form  model.Form
		isNew bool
	)
	if formID == nil {
		form = s.forms.Create(actor)
		isNew = true
	} else {
		f, err := s.forms.Get(ctx, *formID)
		if err != nil {
			return model.BuilderSession{}, err
		}
		form = f
	}

	now := s.now()
	sess := model.BuilderSession{
		ID:        uuid.New(),
		IsNew:     isNew,
		ReadOnly:  form.Status == model.FormStatusPublished,
		Editor:    builder.NewFieldListController(form.Fields).Snapshot(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	form.Fields = nil
	sess.Form = form

	if err := s.sessions.Set(ctx, sess); err != nil {
		return model.BuilderSession{}, transient("store session", err)
	}

	s.metrics.SessionOpened()
	s.log.Info().
		Str("session_id", sess.ID.String()).
		Str("form_id", form.ID.String()).
		Bool("is_new", isNew).
		Bool("read_only", sess.ReadOnly).
		Msg("Builder session started")

	return sess, nil
}

// Get returns the stored session.
func (s *BuilderService) Get(ctx context.Context, id uuid.UUID) (model.BuilderSession, error) {
	return s.load(ctx, id)
}

// Close discards the session. Unsaved changes are lost.
func (s *BuilderService) Close(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return transient("delete session", err)
	}
	s.metrics.SessionClosed()
	s.log.Info().Str("session_id", id.String()).Msg("Builder session closed")
	return nil
}

// UpdateConfig edits the form configuration and header. Header fields that
// were never set follow the title and description.
func (s *BuilderService) UpdateConfig(ctx context.Context, id uuid.UUID, req model.FormConfigRequest) (model.BuilderSession, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return model.BuilderSession{}, err
	}
	if sess.ReadOnly {
		return sess, ErrSessionReadOnly
	}

	f := &sess.Form
	if req.Title != nil {
		f.Title = *req.Title
	}
	if req.Description != nil {
		f.Description = *req.Description
	}
	if req.HeaderName != nil {
		f.HeaderName = *req.HeaderName
	} else if f.HeaderName == "" {
		f.HeaderName = f.Title
	}
	if req.HeaderDescription != nil {
		f.HeaderDescription = *req.HeaderDescription
	} else if f.HeaderDescription == "" {
		f.HeaderDescription = f.Description
	}

	sess.UpdatedAt = s.now()
	if err := s.sessions.Set(ctx, sess); err != nil {
		return model.BuilderSession{}, transient("store session", err)
	}
	s.metrics.BuilderOperation("config")
	return sess, nil
}

// Save commits the session's field list through FormService. On failure
// the session is left exactly as it was so the user can retry.
func (s *BuilderService) Save(ctx context.Context, id uuid.UUID, status model.FormStatus, actor string) (model.Form, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return model.Form{}, err
	}
	if sess.ReadOnly {
		return model.Form{}, ErrSessionReadOnly
	}

	doc := sess.Form.Clone()
	doc.Fields = sess.Editor.Fields
	saved, err := s.forms.Save(ctx, doc, status, actor)
	if err != nil {
		return model.Form{}, err
	}

	sess.Form = saved.Clone()
	sess.Form.Fields = nil
	sess.IsNew = false
	sess.ReadOnly = saved.Status == model.FormStatusPublished
	sess.UpdatedAt = s.now()
	if err := s.sessions.Set(ctx, sess); err != nil {
		// The form itself is stored; only the session lags behind.
		s.log.Warn().Err(err).Str("session_id", id.String()).Msg("Failed to store session after save")
	}
	return saved, nil
}

// ─── Drag gesture ──────────────────────────────────────────────────────

func (s *BuilderService) DragStart(ctx context.Context, id uuid.UUID, p model.DragPayload) (model.BuilderSession, error) {
	return s.mutate(ctx, id, "drag_start", func(c *builder.FieldListController) error {
		return c.DragStart(p)
	})
}

// DragOver records the hovered index. Repeating the same index stores and
// publishes nothing.
func (s *BuilderService) DragOver(ctx context.Context, id uuid.UUID, index int) (model.BuilderSession, error) {
	return s.mutate(ctx, id, "drag_over", func(c *builder.FieldListController) error {
		c.DragOver(index)
		return nil
	})
}

func (s *BuilderService) Drop(ctx context.Context, id uuid.UUID) (model.BuilderSession, builder.DropResult, error) {
	var res builder.DropResult
	sess, err := s.mutate(ctx, id, "drop", func(c *builder.FieldListController) error {
		var err error
		res, err = c.Drop()
		return err
	})
	return sess, res, err
}

func (s *BuilderService) Cancel(ctx context.Context, id uuid.UUID) (model.BuilderSession, error) {
	return s.mutate(ctx, id, "cancel", func(c *builder.FieldListController) error {
		c.Cancel()
		return nil
	})
}

// ─── Field operations ──────────────────────────────────────────────────

func (s *BuilderService) Insert(ctx context.Context, id uuid.UUID, kind model.FieldKind, index *int) (model.BuilderSession, error) {
	return s.mutate(ctx, id, "insert", func(c *builder.FieldListController) error {
		_, err := c.Insert(kind, index)
		return err
	})
}

func (s *BuilderService) UpdateField(ctx context.Context, id uuid.UUID, fieldID string, patch model.FieldPatch) (model.BuilderSession, error) {
	return s.mutate(ctx, id, "update_field", func(c *builder.FieldListController) error {
		_, err := c.Update(fieldID, patch)
		return err
	})
}

func (s *BuilderService) RemoveField(ctx context.Context, id uuid.UUID, fieldID string) (model.BuilderSession, error) {
	return s.mutate(ctx, id, "remove_field", func(c *builder.FieldListController) error {
		return c.Remove(fieldID)
	})
}

func (s *BuilderService) DuplicateField(ctx context.Context, id uuid.UUID, fieldID string) (model.BuilderSession, error) {
	return s.mutate(ctx, id, "duplicate_field", func(c *builder.FieldListController) error {
		_, err := c.Duplicate(fieldID)
		return err
	})
}

func (s *BuilderService) AddOption(ctx context.Context, id uuid.UUID, fieldID string) (model.BuilderSession, error) {
	return s.mutate(ctx, id, "add_option", func(c *builder.FieldListController) error {
		_, err := c.AddOption(fieldID)
		return err
	})
}

func (s *BuilderService) UpdateOption(ctx context.Context, id uuid.UUID, fieldID string, optionID int, value string) (model.BuilderSession, error) {
	return s.mutate(ctx, id, "update_option", func(c *builder.FieldListController) error {
		_, err := c.UpdateOption(fieldID, optionID, value)
		return err
	})
}

func (s *BuilderService) DeleteOption(ctx context.Context, id uuid.UUID, fieldID string, optionID int) (model.BuilderSession, error) {
	return s.mutate(ctx, id, "delete_option", func(c *builder.FieldListController) error {
		_, err := c.DeleteOption(fieldID, optionID)
		return err
	})
}

// SetActive selects a field; an empty id clears the selection.
func (s *BuilderService) SetActive(ctx context.Context, id uuid.UUID, fieldID string) (model.BuilderSession, error) {
	return s.mutate(ctx, id, "set_active", func(c *builder.FieldListController) error {
		if fieldID == "" {
			c.ClearActive()
			return nil
		}
		return c.SetActive(fieldID)
	})
}

// ─── Preview ───────────────────────────────────────────────────────────

// Preview renders the session's fields in mode (BUILDER_PREVIEW on the
// preview routes) with its scratch answers, reconciled against the current
// field definitions.
func (s *BuilderService) Preview(ctx context.Context, mode model.Mode, id uuid.UUID) ([]builder.FieldView, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	store := previewStore(sess)
	return builder.RenderAll(sess.Editor.Fields, mode, store, ""), nil
}

// PreviewAnswer applies one simulated interaction to the preview pane.
// Preview answers are scratch values and never become a submission. The
// answer handlers ignore the interaction when mode does not take answers.
func (s *BuilderService) PreviewAnswer(ctx context.Context, mode model.Mode, id uuid.UUID, req model.AnswerChangeRequest) (PreviewResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return PreviewResult{}, err
	}
	field, ok := findField(sess.Editor.Fields, req.FieldID)
	if !ok {
		return PreviewResult{}, builder.ErrFieldNotFound
	}

	store := previewStore(sess)
	var res PreviewResult
	switch {
	case req.Option != nil:
		res.Changed, res.CloseList = builder.OnOptionClick(mode, field, store, *req.Option)
	case req.File != nil:
		res.Changed = builder.OnFileChosen(mode, field, store, *req.File)
	case req.Value != nil:
		res.Changed = builder.OnChange(mode, field, store, *req.Value)
	}

	if res.Changed {
		sess.Preview = store.Snapshot()
		sess.UpdatedAt = s.now()
		if err := s.sessions.Set(ctx, sess); err != nil {
			return PreviewResult{}, transient("store session", err)
		}
	}
	res.Fields = builder.RenderAll(sess.Editor.Fields, mode, store, "")
	return res, nil
}

// ClearPreview resets every preview answer to empty.
func (s *BuilderService) ClearPreview(ctx context.Context, mode model.Mode, id uuid.UUID) ([]builder.FieldView, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	store := builder.NewAnswerStore(sess.Editor.Fields)
	sess.Preview = nil
	sess.UpdatedAt = s.now()
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, transient("store session", err)
	}
	return builder.RenderAll(sess.Editor.Fields, mode, store, ""), nil
}

// PreviewField returns the current definition of one field, for uploads
// made from the preview pane.
func (s *BuilderService) PreviewField(ctx context.Context, id uuid.UUID, fieldID string) (model.Field, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return model.Field{}, err
	}
	f, ok := findField(sess.Editor.Fields, fieldID)
	if !ok {
		return model.Field{}, builder.ErrFieldNotFound
	}
	return f, nil
}

// ─── helpers ───────────────────────────────────────────────────────────

func (s *BuilderService) load(ctx context.Context, id uuid.UUID) (model.BuilderSession, error) {
	sess, ok, err := s.sessions.Get(ctx, id)
	if err != nil {
		return model.BuilderSession{}, transient("load session", err)
	}
	if !ok {
		return model.BuilderSession{}, ErrSessionNotFound
	}
	return sess, nil
}

// mutate runs fn against the session's controller. The session is stored
// and an event published only when the controller's version moved; the
// operation's own error is returned alongside the resulting session.
func (s *BuilderService) mutate(ctx context.Context, id uuid.UUID, op string, fn func(*builder.FieldListController) error) (model.BuilderSession, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return model.BuilderSession{}, err
	}
	if sess.ReadOnly {
		s.metrics.BuilderRejection(op, "read_only")
		return sess, ErrSessionReadOnly
	}

	c := builder.RestoreFieldListController(sess.Editor)
	before := c.Version()
	opErr := fn(c)
	if opErr != nil {
		s.metrics.BuilderRejection(op, rejectionReason(opErr))
		s.log.Debug().Err(opErr).Str("session_id", id.String()).Str("op", op).Msg("Builder operation rejected")
	}
	if c.Version() == before {
		return sess, opErr
	}

	sess.Editor = c.Snapshot()
	sess.UpdatedAt = s.now()
	if err := s.sessions.Set(ctx, sess); err != nil {
		return model.BuilderSession{}, transient("store session", err)
	}

	s.metrics.BuilderOperation(op)
	s.publish(ctx, sess, op)
	return sess, opErr
}

func (s *BuilderService) publish(ctx context.Context, sess model.BuilderSession, op string) {
	if s.events == nil {
		return
	}
	ev := model.BuilderEvent{
		SessionID: sess.ID,
		Operation: op,
		Version:   sess.Editor.Version,
		Editor:    sess.Editor,
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("Failed to publish builder event")
	}
}

func previewStore(sess model.BuilderSession) *builder.AnswerStore {
	store := builder.NewAnswerStore(sess.Editor.Fields)
	for id, a := range sess.Preview {
		_ = store.Set(id, a)
	}
	store.Reconcile(sess.Editor.Fields)
	return store
}

func findField(fields []model.Field, id string) (model.Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return model.Field{}, false
}

func rejectionReason(err error) string {
	var ve *builder.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Code
	case errors.Is(err, builder.ErrFieldNotFound):
		return "FIELD_NOT_FOUND"
	case errors.Is(err, builder.ErrOptionNotFound):
		return "OPTION_NOT_FOUND"
	default:
		return "OTHER"
	}
}
