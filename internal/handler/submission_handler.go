package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/formcraft-backend/internal/middleware"
	"github.com/stemsi/formcraft-backend/internal/response"
	"github.com/stemsi/formcraft-backend/internal/service"
)

// SubmissionHandler serves the admin responses table.
type SubmissionHandler struct {
	submissionService *service.SubmissionService
	exportService     *service.ExportService
	pageSize          int
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(submissionService *service.SubmissionService, exportService *service.ExportService, pageSize int) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		exportService:     exportService,
		pageSize:          pageSize,
	}
}

// List godoc
// GET /api/v1/admin/forms/:id/responses?page=&per_page=&search=
func (h *SubmissionHandler) List(c *gin.Context) {
	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	items, pagination, err := h.submissionService.ListByForm(
		c.Request.Context(),
		formID,
		c.Query("search"),
		queryInt(c, "page", 1),
		queryInt(c, "per_page", h.pageSize),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"submissions": items}, pagination)
}

// View godoc
// GET /api/v1/admin/forms/:id/responses/:response_id
func (h *SubmissionHandler) View(c *gin.Context) {
	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "response_id")
	if !ok {
		return
	}

	view, err := h.submissionService.View(c.Request.Context(), middleware.GetMode(c), &formID, id)
	if err != nil {
		writeViewError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Export godoc
// GET /api/v1/admin/forms/:id/responses/export
func (h *SubmissionHandler) Export(c *gin.Context) {
	formID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	file, err := h.exportService.ExportResponses(c.Request.Context(), formID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	c.Data(http.StatusOK, service.XLSXContentType, file.Data)
}
