package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/formcraft-backend/internal/builder"
	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/handler"
	"github.com/stemsi/formcraft-backend/internal/middleware"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stemsi/formcraft-backend/internal/repository"
	"github.com/stemsi/formcraft-backend/internal/service"
	"github.com/stemsi/formcraft-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var setupOnce sync.Once

// memorySubmissions serves as both the buffer and the durable store.
type memorySubmissions struct {
	mu   sync.Mutex
	subs []model.Submission
}

func (m *memorySubmissions) Push(_ context.Context, s model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, s)
	return nil
}

func (m *memorySubmissions) Get(_ context.Context, id uuid.UUID) (model.Submission, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.ID == id {
			return s, true, nil
		}
	}
	return model.Submission{}, false, nil
}

func (m *memorySubmissions) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	s, ok, _ := m.Get(ctx, id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memorySubmissions) ListByForm(ctx context.Context, formID uuid.UUID, _ string, _, _ int) ([]model.SubmissionSummary, int, error) {
	all, _ := m.ListAllByForm(ctx, formID)
	out := make([]model.SubmissionSummary, 0, len(all))
	for _, s := range all {
		out = append(out, s.Summary())
	}
	return out, len(out), nil
}

func (m *memorySubmissions) ListBySubmitter(_ context.Context, submitter string, _, _ int) ([]model.SubmissionSummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.SubmissionSummary{}
	for _, s := range m.subs {
		if s.SubmitterName == submitter {
			out = append(out, s.Summary())
		}
	}
	return out, len(out), nil
}

func (m *memorySubmissions) ListAllByForm(_ context.Context, formID uuid.UUID) ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Submission
	for _, s := range m.subs {
		if s.FormID == formID {
			out = append(out, s)
		}
	}
	return out, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code     string            `json:"code"`
		Message  string            `json:"message"`
		Fields   map[string]string `json:"fields"`
		Redirect string            `json:"redirect"`
	} `json:"error"`
}

type testAPI struct {
	t        *testing.T
	router   *gin.Engine
	handlers *Handlers
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	setupOnce.Do(validator.Setup)

	cfg := &config.Config{GinMode: gin.TestMode, DefaultActor: "Current User", MaxUploadBytes: 10 << 20}
	log := zerolog.Nop()

	forms := service.NewFormService(repository.NewMemoryFormRepository(), nil, log)
	subs := &memorySubmissions{}
	submissions := service.NewSubmissionService(forms, subs, subs, nil, log)
	builderSvc := service.NewBuilderService(repository.NewMemorySessionRepository(), forms, nil, nil, log)
	uploads := service.NewUploadService(cfg)

	h := &Handlers{
		Form:       handler.NewFormHandler(forms, 9),
		Builder:    handler.NewBuilderHandler(builderSvc, uploads),
		Fill:       handler.NewFillHandler(forms, submissions, uploads, 9),
		Submission: handler.NewSubmissionHandler(submissions, service.NewExportService(forms, subs, log), 9),
	}
	return &testAPI{t: t, router: SetupRouter(h, cfg, Options{Log: log}), handlers: h}
}

func (a *testAPI) do(method, path string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Actor", "Karan Patel")

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type sessionPayload struct {
	Session model.BuilderSession `json:"session"`
}

func TestRouter_BuildPublishAndSubmit(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(http.MethodPost, "/api/v1/admin/builder/sessions", nil)
	require.Equal(t, http.StatusCreated, code)
	sess := decode[sessionPayload](t, env.Data).Session
	base := "/api/v1/admin/builder/sessions/" + sess.ID.String()

	code, _ = api.do(http.MethodPut, base+"/config", map[string]string{"title": "Access Request"})
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodPost, base+"/fields", map[string]string{"kind": "BOGUS"})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "kind")

	code, env = api.do(http.MethodPost, base+"/fields", map[string]string{"kind": "SHORT_TEXT"})
	require.Equal(t, http.StatusOK, code)
	sess = decode[sessionPayload](t, env.Data).Session
	require.Len(t, sess.Editor.Fields, 1)
	fieldID := sess.Editor.Fields[0].ID

	code, _ = api.do(http.MethodPatch, base+"/fields/"+fieldID, map[string]interface{}{
		"question": "Full name",
		"required": true,
	})
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodPost, base+"/save", map[string]string{"status": "published"})
	require.Equal(t, http.StatusOK, code)
	saved := decode[struct {
		Form model.Form `json:"form"`
	}](t, env.Data).Form
	assert.Equal(t, "Karan Patel", saved.PublishedBy)

	// Published forms are frozen in the builder.
	code, env = api.do(http.MethodPost, base+"/fields", map[string]string{"kind": "NUMBER"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "READ_ONLY", env.Error.Code)

	formPath := "/api/v1/learner/forms/" + saved.ID.String()
	code, env = api.do(http.MethodGet, formPath, nil)
	assert.Equal(t, http.StatusNotFound, code, "hidden until made visible")
	assert.Equal(t, "/", env.Error.Redirect)

	code, _ = api.do(http.MethodPatch, "/api/v1/admin/forms/"+saved.ID.String()+"/visibility", map[string]bool{"visible": true})
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodGet, formPath, nil)
	require.Equal(t, http.StatusOK, code)
	view := decode[service.FillView](t, env.Data)
	assert.Equal(t, model.ModeLearnerSubmission, view.Mode)

	code, env = api.do(http.MethodPost, formPath+"/submit", map[string]interface{}{
		"submitter_name": "Riya",
		"answers":        map[string]string{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "REQUIRED_ANSWER_MISSING", env.Error.Code)

	code, env = api.do(http.MethodPost, formPath+"/submit", map[string]interface{}{
		"submitter_name": "Riya",
		"answers":        map[string]string{fieldID: "Riya Sen"},
	})
	require.Equal(t, http.StatusCreated, code)
	res := decode[model.SubmitResult](t, env.Data)
	assert.True(t, res.Success)

	code, env = api.do(http.MethodGet, "/api/v1/admin/forms/"+saved.ID.String()+"/responses/"+res.SubmissionID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	stored := decode[service.FillView](t, env.Data)
	assert.Equal(t, model.ModeViewSubmission, stored.Mode)
	require.Len(t, stored.Fields, 1)
	assert.Equal(t, "Riya Sen", stored.Fields[0].DisplayText)
}

type renderedPayload struct {
	Mode   model.Mode          `json:"mode"`
	Fields []builder.FieldView `json:"fields"`
}

func TestRouter_RouteModeDecidesWidget(t *testing.T) {
	api := newTestAPI(t)

	_, env := api.do(http.MethodPost, "/api/v1/admin/builder/sessions", nil)
	sess := decode[sessionPayload](t, env.Data).Session
	base := "/api/v1/admin/builder/sessions/" + sess.ID.String()

	code, env := api.do(http.MethodPost, base+"/fields", map[string]string{"kind": "DROPDOWN"})
	require.Equal(t, http.StatusOK, code)
	canvas := decode[renderedPayload](t, env.Data)
	assert.Equal(t, model.ModeBuilderEdit, canvas.Mode)
	require.Len(t, canvas.Fields, 1)
	assert.Equal(t, builder.WidgetEditor, canvas.Fields[0].Widget)
	fieldID := canvas.Fields[0].FieldID

	code, env = api.do(http.MethodGet, base+"/preview", nil)
	require.Equal(t, http.StatusOK, code)
	preview := decode[renderedPayload](t, env.Data)
	assert.Equal(t, model.ModeBuilderPreview, preview.Mode)
	assert.Equal(t, builder.WidgetInput, preview.Fields[0].Widget)
	assert.False(t, preview.Fields[0].Persist)

	code, _ = api.do(http.MethodPut, base+"/config", map[string]string{"title": "Team Survey"})
	require.Equal(t, http.StatusOK, code)
	code, env = api.do(http.MethodPost, base+"/save", map[string]string{"status": "published"})
	require.Equal(t, http.StatusOK, code)
	formID := decode[struct {
		Form model.Form `json:"form"`
	}](t, env.Data).Form.ID
	code, _ = api.do(http.MethodPatch, "/api/v1/admin/forms/"+formID.String()+"/visibility", map[string]bool{"visible": true})
	require.Equal(t, http.StatusOK, code)

	formPath := "/api/v1/learner/forms/" + formID.String()
	code, env = api.do(http.MethodGet, formPath, nil)
	require.Equal(t, http.StatusOK, code)
	fill := decode[renderedPayload](t, env.Data)
	assert.Equal(t, model.ModeLearnerSubmission, fill.Mode)
	assert.Equal(t, builder.WidgetInput, fill.Fields[0].Widget)
	assert.True(t, fill.Fields[0].Persist)

	code, env = api.do(http.MethodPost, formPath+"/submit", map[string]interface{}{
		"submitter_name": "Riya",
		"answers":        map[string]string{fieldID: "Option 1"},
	})
	require.Equal(t, http.StatusCreated, code)
	res := decode[model.SubmitResult](t, env.Data)

	code, env = api.do(http.MethodGet, "/api/v1/learner/submissions/"+res.SubmissionID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	stored := decode[renderedPayload](t, env.Data)
	assert.Equal(t, model.ModeViewSubmission, stored.Mode)
	assert.Equal(t, builder.WidgetDisplay, stored.Fields[0].Widget)
	assert.Equal(t, "Option 1", stored.Fields[0].DisplayText)

	// The same handler mounted under another mode renders for that mode.
	r := gin.New()
	r.GET("/forms/:id", middleware.WithMode(model.ModeViewSubmission), api.handlers.Fill.Open)
	r.POST("/forms/:id/submit", middleware.WithMode(model.ModeViewSubmission), api.handlers.Fill.Submit)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forms/"+formID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	var viewEnv envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &viewEnv))
	remounted := decode[renderedPayload](t, viewEnv.Data)
	assert.Equal(t, model.ModeViewSubmission, remounted.Mode)
	assert.Equal(t, builder.WidgetDisplay, remounted.Fields[0].Widget)

	body := bytes.NewBufferString(`{"submitter_name":"Riya","answers":{"` + fieldID + `":"Option 1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/forms/"+formID.String()+"/submit", body)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "READ_ONLY")
}

func TestRouter_DragGesture(t *testing.T) {
	api := newTestAPI(t)

	_, env := api.do(http.MethodPost, "/api/v1/admin/builder/sessions", nil)
	sess := decode[sessionPayload](t, env.Data).Session
	base := "/api/v1/admin/builder/sessions/" + sess.ID.String()

	code, _ := api.do(http.MethodPost, base+"/drag/start", map[string]string{"type": "new_field", "kind": "DROPDOWN"})
	require.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodPost, base+"/drag/over", map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodPost, base+"/drag/drop", nil)
	require.Equal(t, http.StatusOK, code)
	dropped := decode[struct {
		Session model.BuilderSession `json:"session"`
		Drop    struct {
			Changed bool   `json:"changed"`
			FieldID string `json:"field_id"`
		} `json:"drop"`
	}](t, env.Data)
	assert.True(t, dropped.Drop.Changed)
	require.Len(t, dropped.Session.Editor.Fields, 1)
	assert.Equal(t, model.FieldKindDropdown, dropped.Session.Editor.Fields[0].Kind)

	code, env = api.do(http.MethodPost, base+"/drag/start", map[string]string{"type": "existing_field"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "field_id")
}

func TestRouter_NotFoundAndBadIDs(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(http.MethodGet, "/api/v1/admin/builder/sessions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)

	code, env = api.do(http.MethodGet, "/api/v1/admin/forms/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	code, env = api.do(http.MethodGet, "/api/v1/learner/submissions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "/", env.Error.Redirect)

	code, env = api.do(http.MethodGet, "/api/v1/admin/forms?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "status")
}
