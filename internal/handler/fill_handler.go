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

// FillHandler serves learners: filling a form, uploading files and their
// own submissions.
type FillHandler struct {
	formService       *service.FormService
	submissionService *service.SubmissionService
	uploadService     *service.UploadService
	pageSize          int
}

// NewFillHandler creates a new FillHandler.
func NewFillHandler(
	formService *service.FormService,
	submissionService *service.SubmissionService,
	uploadService *service.UploadService,
	pageSize int,
) *FillHandler {
	return &FillHandler{
		formService:       formService,
		submissionService: submissionService,
		uploadService:     uploadService,
		pageSize:          pageSize,
	}
}

// Open godoc
// GET /api/v1/learner/forms/:id
func (h *FillHandler) Open(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.submissionService.Open(c.Request.Context(), middleware.GetMode(c), id)
	if err != nil {
		writeViewError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Submit godoc
// POST /api/v1/learner/forms/:id/submit
func (h *FillHandler) Submit(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.submissionService.Submit(c.Request.Context(), middleware.GetMode(c), id, req)
	if err != nil {
		writeViewError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// Upload godoc
// POST /api/v1/learner/forms/:id/fields/:field_id/upload
func (h *FillHandler) Upload(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	form, err := h.formService.GetForLearner(c.Request.Context(), id)
	if err != nil {
		writeViewError(c, err)
		return
	}
	field, ok := form.FieldByID(c.Param("field_id"))
	if !ok {
		writeError(c, builder.ErrFieldNotFound)
		return
	}
	acceptUpload(c, h.uploadService, field)
}

// MySubmissions godoc
// GET /api/v1/learner/submissions?page=&per_page=&submitter=
// Lists the submissions made under the caller's name.
func (h *FillHandler) MySubmissions(c *gin.Context) {
	items, pagination, err := h.submissionService.ListBySubmitter(
		c.Request.Context(),
		actorName(c),
		queryInt(c, "page", 1),
		queryInt(c, "per_page", h.pageSize),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"submissions": items}, pagination)
}

// ViewSubmission godoc
// GET /api/v1/learner/submissions/:response_id
func (h *FillHandler) ViewSubmission(c *gin.Context) {
	id, ok := parseUUIDParam(c, "response_id")
	if !ok {
		return
	}

	view, err := h.submissionService.View(c.Request.Context(), middleware.GetMode(c), nil, id)
	if err != nil {
		writeViewError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// actorName is the submitter to list for: the submitter query parameter,
// else the acting name.
func actorName(c *gin.Context) string {
	if name := c.Query("submitter"); name != "" {
		return name
	}
	return middleware.GetActor(c)
}
