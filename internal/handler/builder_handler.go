package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/formcraft-backend/internal/builder"
	"github.com/stemsi/formcraft-backend/internal/middleware"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stemsi/formcraft-backend/internal/response"
	"github.com/stemsi/formcraft-backend/internal/service"
	"github.com/stemsi/formcraft-backend/internal/validator"
)

// BuilderHandler exposes builder sessions: the canvas, drag gestures and
// field editing.
type BuilderHandler struct {
	builderService *service.BuilderService
	uploadService  *service.UploadService
}

// NewBuilderHandler creates a new BuilderHandler.
func NewBuilderHandler(builderService *service.BuilderService, uploadService *service.UploadService) *BuilderHandler {
	return &BuilderHandler{builderService: builderService, uploadService: uploadService}
}

// sessionView is the canvas as the editor draws it.
type sessionView struct {
	Session model.BuilderSession `json:"session"`
	Mode    model.Mode           `json:"mode"`
	Fields  []builder.FieldView  `json:"fields"`
	Drop    *builder.DropResult  `json:"drop,omitempty"`
}

// newSessionView renders the canvas in the mode of the route.
func newSessionView(c *gin.Context, sess model.BuilderSession) sessionView {
	mode := middleware.GetMode(c)
	return sessionView{
		Session: sess,
		Mode:    mode,
		Fields:  builder.RenderAll(sess.Editor.Fields, mode, nil, sess.Editor.ActiveFieldID),
	}
}

// ─── Session lifecycle ─────────────────────────────────────────────────

// Start godoc
// POST /api/v1/admin/builder/sessions
// Opens the builder on a new form, or on form_id when given.
func (h *BuilderHandler) Start(c *gin.Context) {
	var req model.StartSessionRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	sess, err := h.builderService.Start(c.Request.Context(), req.FormID, middleware.GetActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, newSessionView(c, sess))
}

// Get godoc
// GET /api/v1/admin/builder/sessions/:id
func (h *BuilderHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	sess, err := h.builderService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, newSessionView(c, sess))
}

// Close godoc
// DELETE /api/v1/admin/builder/sessions/:id
func (h *BuilderHandler) Close(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.builderService.Close(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "session closed"})
}

// UpdateConfig godoc
// PUT /api/v1/admin/builder/sessions/:id/config
func (h *BuilderHandler) UpdateConfig(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.FormConfigRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.builderService.UpdateConfig(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, newSessionView(c, sess))
}

// Save godoc
// POST /api/v1/admin/builder/sessions/:id/save
// Saves the session as a draft or publishes it.
func (h *BuilderHandler) Save(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.SaveFormRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	form, err := h.builderService.Save(c.Request.Context(), id, req.Status, middleware.GetActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"form": form})
}

// ─── Drag gesture ──────────────────────────────────────────────────────

// DragStart godoc
// POST /api/v1/admin/builder/sessions/:id/drag/start
func (h *BuilderHandler) DragStart(c *gin.Context) {
	var req model.DragStartRequest
	h.bindAndMutate(c, &req, func(id uuid.UUID) (model.BuilderSession, error) {
		return h.builderService.DragStart(c.Request.Context(), id, req.Payload())
	})
}

// DragOver godoc
// POST /api/v1/admin/builder/sessions/:id/drag/over
func (h *BuilderHandler) DragOver(c *gin.Context) {
	var req model.DragOverRequest
	h.bindAndMutate(c, &req, func(id uuid.UUID) (model.BuilderSession, error) {
		return h.builderService.DragOver(c.Request.Context(), id, *req.Index)
	})
}

// Drop godoc
// POST /api/v1/admin/builder/sessions/:id/drag/drop
func (h *BuilderHandler) Drop(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	sess, res, err := h.builderService.Drop(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	view := newSessionView(c, sess)
	view.Drop = &res
	response.Success(c, http.StatusOK, view)
}

// Cancel godoc
// POST /api/v1/admin/builder/sessions/:id/drag/cancel
func (h *BuilderHandler) Cancel(c *gin.Context) {
	h.mutate(c, func(id uuid.UUID) (model.BuilderSession, error) {
		return h.builderService.Cancel(c.Request.Context(), id)
	})
}

// ─── Fields ────────────────────────────────────────────────────────────

// InsertField godoc
// POST /api/v1/admin/builder/sessions/:id/fields
// Adds a field from the palette without dragging.
func (h *BuilderHandler) InsertField(c *gin.Context) {
	var req model.InsertFieldRequest
	h.bindAndMutate(c, &req, func(id uuid.UUID) (model.BuilderSession, error) {
		return h.builderService.Insert(c.Request.Context(), id, req.Kind, req.Index)
	})
}

// UpdateField godoc
// PATCH /api/v1/admin/builder/sessions/:id/fields/:field_id
func (h *BuilderHandler) UpdateField(c *gin.Context) {
	var patch model.FieldPatch
	h.bindAndMutate(c, &patch, func(id uuid.UUID) (model.BuilderSession, error) {
		return h.builderService.UpdateField(c.Request.Context(), id, c.Param("field_id"), patch)
	})
}

// RemoveField godoc
// DELETE /api/v1/admin/builder/sessions/:id/fields/:field_id
func (h *BuilderHandler) RemoveField(c *gin.Context) {
	h.mutate(c, func(id uuid.UUID) (model.BuilderSession, error) {
		return h.builderService.RemoveField(c.Request.Context(), id, c.Param("field_id"))
	})
}

// DuplicateField godoc
// POST /api/v1/admin/builder/sessions/:id/fields/:field_id/duplicate
func (h *BuilderHandler) DuplicateField(c *gin.Context) {
	h.mutate(c, func(id uuid.UUID) (model.BuilderSession, error) {
		return h.builderService.DuplicateField(c.Request.Context(), id, c.Param("field_id"))
	})
}

// SetActive godoc
// PUT /api/v1/admin/builder/sessions/:id/active
func (h *BuilderHandler) SetActive(c *gin.Context) {
	var req model.SetActiveFieldRequest
	h.bindAndMutate(c, &req, func(id uuid.UUID) (model.BuilderSession, error) {
		return h.builderService.SetActive(c.Request.Context(), id, req.FieldID)
	})
}

// AddOption godoc
// POST /api/v1/admin/builder/sessions/:id/fields/:field_id/options
func (h *BuilderHandler) AddOption(c *gin.Context) {
	h.mutate(c, func(id uuid.UUID) (model.BuilderSession, error) {
		return h.builderService.AddOption(c.Request.Context(), id, c.Param("field_id"))
	})
}

// UpdateOption godoc
// PATCH /api/v1/admin/builder/sessions/:id/fields/:field_id/options/:option_id
func (h *BuilderHandler) UpdateOption(c *gin.Context) {
	optionID, ok := parseIntParam(c, "option_id")
	if !ok {
		return
	}
	var req model.OptionValueRequest
	h.bindAndMutate(c, &req, func(id uuid.UUID) (model.BuilderSession, error) {
		return h.builderService.UpdateOption(c.Request.Context(), id, c.Param("field_id"), optionID, req.Value)
	})
}

// DeleteOption godoc
// DELETE /api/v1/admin/builder/sessions/:id/fields/:field_id/options/:option_id
func (h *BuilderHandler) DeleteOption(c *gin.Context) {
	optionID, ok := parseIntParam(c, "option_id")
	if !ok {
		return
	}
	h.mutate(c, func(id uuid.UUID) (model.BuilderSession, error) {
		return h.builderService.DeleteOption(c.Request.Context(), id, c.Param("field_id"), optionID)
	})
}

// ─── Preview ───────────────────────────────────────────────────────────

// Preview godoc
// GET /api/v1/admin/builder/sessions/:id/preview
func (h *BuilderHandler) Preview(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	mode := middleware.GetMode(c)
	views, err := h.builderService.Preview(c.Request.Context(), mode, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"mode": mode, "fields": views})
}

// PreviewAnswer godoc
// POST /api/v1/admin/builder/sessions/:id/preview/answers
// Simulates typing, clicking an option or choosing a file.
func (h *BuilderHandler) PreviewAnswer(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.AnswerChangeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.builderService.PreviewAnswer(c.Request.Context(), middleware.GetMode(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// ClearPreview godoc
// DELETE /api/v1/admin/builder/sessions/:id/preview/answers
func (h *BuilderHandler) ClearPreview(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	mode := middleware.GetMode(c)
	views, err := h.builderService.ClearPreview(c.Request.Context(), mode, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"mode": mode, "fields": views})
}

// PreviewUpload godoc
// POST /api/v1/admin/builder/sessions/:id/preview/fields/:field_id/upload
func (h *BuilderHandler) PreviewUpload(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	field, err := h.builderService.PreviewField(c.Request.Context(), id, c.Param("field_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	acceptUpload(c, h.uploadService, field)
}

// ─── helpers ───────────────────────────────────────────────────────────

func (h *BuilderHandler) mutate(c *gin.Context, fn func(uuid.UUID) (model.BuilderSession, error)) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	sess, err := fn(id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, newSessionView(c, sess))
}

func (h *BuilderHandler) bindAndMutate(c *gin.Context, req interface{}, fn func(uuid.UUID) (model.BuilderSession, error)) {
	if _, err := uuid.Parse(c.Param("id")); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if fields := validator.Bind(c, req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.mutate(c, fn)
}
