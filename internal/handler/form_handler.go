package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/formcraft-backend/internal/builder"
	"github.com/stemsi/formcraft-backend/internal/middleware"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stemsi/formcraft-backend/internal/response"
	"github.com/stemsi/formcraft-backend/internal/service"
	"github.com/stemsi/formcraft-backend/internal/validator"
)

// FormHandler serves the admin dashboard and the learner form list.
type FormHandler struct {
	formService *service.FormService
	pageSize    int
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(formService *service.FormService, pageSize int) *FormHandler {
	return &FormHandler{formService: formService, pageSize: pageSize}
}

// List godoc
// GET /api/v1/admin/forms?page=&per_page=&search=&status=
func (h *FormHandler) List(c *gin.Context) {
	q := service.FormListQuery{
		Page:    queryInt(c, "page", 1),
		PerPage: queryInt(c, "per_page", h.pageSize),
		Search:  c.Query("search"),
		Status:  model.FormStatus(c.Query("status")),
	}
	if q.Status != "" && !q.Status.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"status": "status must be draft or published"})
		return
	}

	forms, pagination, err := h.formService.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"forms": forms}, pagination)
}

// Get godoc
// GET /api/v1/admin/forms/:id
func (h *FormHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	form, err := h.formService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"form": form})
}

// Preview godoc
// GET /api/v1/admin/forms/:id/preview
// Renders a stored form as a learner would see it, with empty answers.
func (h *FormHandler) Preview(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	form, err := h.formService.Get(c.Request.Context(), id)
	if err != nil {
		writeViewError(c, err)
		return
	}

	mode := middleware.GetMode(c)
	store := builder.NewAnswerStore(form.Fields)
	response.Success(c, http.StatusOK, service.FillView{
		Form:   form,
		Mode:   mode,
		Fields: builder.RenderAll(form.Fields, mode, store, ""),
	})
}

// SetVisibility godoc
// PATCH /api/v1/admin/forms/:id/visibility
func (h *FormHandler) SetVisibility(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.SetVisibilityRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	form, err := h.formService.SetVisibility(c.Request.Context(), id, *req.Visible)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"form": form.Summary()})
}

// Delete godoc
// DELETE /api/v1/admin/forms/:id
func (h *FormHandler) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.formService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "form deleted successfully"})
}

// ListAvailable godoc
// GET /api/v1/learner/forms?page=&per_page=&search=
func (h *FormHandler) ListAvailable(c *gin.Context) {
	forms, pagination, err := h.formService.ListVisible(
		c.Request.Context(),
		c.Query("search"),
		queryInt(c, "page", 1),
		queryInt(c, "per_page", h.pageSize),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"forms": forms}, pagination)
}
