package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/formcraft-backend/internal/builder"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stemsi/formcraft-backend/internal/response"
	"github.com/stemsi/formcraft-backend/internal/service"
	ws "github.com/stemsi/formcraft-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveError(t *testing.T, write func(*gin.Context, error), err error) (int, response.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	write(c, err)

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return w.Code, body
}

func TestWriteError_Mappings(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"max fields", builder.ErrMaxFields, http.StatusUnprocessableEntity, response.ErrMaxFieldsReached},
		{"wrapped missing answers", fmt.Errorf("%w: f1", service.ErrRequiredMissing), http.StatusUnprocessableEntity, response.ErrRequiredMissing},
		{"field not found", builder.ErrFieldNotFound, http.StatusNotFound, response.ErrFieldNotFound},
		{"read only", service.ErrSessionReadOnly, http.StatusConflict, response.ErrReadOnly},
		{"file too large", fmt.Errorf("%w: 9 bytes", service.ErrFileTooLarge), http.StatusBadRequest, response.ErrFileTooLarge},
		{"storage down", fmt.Errorf("load forms: %w: %w", service.ErrTransientIO, errors.New("dial tcp")), http.StatusServiceUnavailable, response.ErrStorageUnavailable},
		{"unmapped", errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serveError(t, writeError, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.code, errorCodeOf(tt.err))
		})
	}
}

func TestWriteError_ValidationKeepsMessage(t *testing.T) {
	err := &builder.ValidationError{Code: builder.ErrInvalidPatch.Code, Message: "question must be at most 150 characters"}
	status, body := serveError(t, writeError, err)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, response.ErrInvalidField, body.Error.Code)
	assert.Equal(t, "question must be at most 150 characters", body.Error.Message)
}

func TestWriteViewError_RedirectsHome(t *testing.T) {
	for _, err := range []error{service.ErrFormNotFound, service.ErrFormNotVisible, service.ErrSubmissionNotFound} {
		status, body := serveError(t, writeViewError, err)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "/", body.Error.Redirect)
	}

	status, body := serveError(t, writeViewError, builder.ErrAnswersFrozen)
	assert.Equal(t, http.StatusConflict, status)
	assert.Empty(t, body.Error.Redirect)
}

func TestStateFrame(t *testing.T) {
	ev := model.BuilderEvent{
		SessionID: uuid.New(),
		Operation: "drag_over",
		Version:   7,
	}
	payload, err := json.Marshal(ev)
	require.NoError(t, err)

	var got ws.StateResponse
	require.NoError(t, json.Unmarshal(stateFrame(string(payload)), &got))
	assert.Equal(t, ws.EventState, got.Event)
	assert.Equal(t, ev.SessionID, got.State.SessionID)
	assert.Equal(t, uint64(7), got.State.Version)
}

func TestBuildUpgrader_CheckOrigin(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Origin", origin)
		return r
	}

	open := buildUpgrader(nil)
	assert.True(t, open.CheckOrigin(req("https://anything.example")))

	strict := buildUpgrader([]string{"https://forms.example"})
	assert.True(t, strict.CheckOrigin(req("https://FORMS.example")))
	assert.False(t, strict.CheckOrigin(req("https://evil.example")))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m 42s", formatDuration(42*time.Second))
	assert.Equal(t, "2h 5m 0s", formatDuration(2*time.Hour+5*time.Minute))
	assert.Equal(t, "1d 1h 0m 3s", formatDuration(25*time.Hour+3*time.Second))
}
