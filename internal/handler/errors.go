package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/formcraft-backend/internal/builder"
	"github.com/stemsi/formcraft-backend/internal/response"
	"github.com/stemsi/formcraft-backend/internal/service"
)

// errorMapping pairs a domain error with the status and code it answers.
type errorMapping struct {
	err    error
	status int
	code   response.ErrCode
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{builder.ErrMaxFields, http.StatusUnprocessableEntity, response.ErrMaxFieldsReached},
	{builder.ErrLastOption, http.StatusUnprocessableEntity, response.ErrLastOption},
	{builder.ErrUnknownKind, http.StatusUnprocessableEntity, response.ErrInvalidField},
	{builder.ErrInvalidPatch, http.StatusUnprocessableEntity, response.ErrInvalidField},
	{service.ErrTitleRequired, http.StatusUnprocessableEntity, response.ErrTitleRequired},
	{service.ErrNoFields, http.StatusUnprocessableEntity, response.ErrNoFields},
	{service.ErrRequiredMissing, http.StatusUnprocessableEntity, response.ErrRequiredMissing},

	{builder.ErrFieldNotFound, http.StatusNotFound, response.ErrFieldNotFound},
	{builder.ErrOptionNotFound, http.StatusNotFound, response.ErrOptionNotFound},
	{service.ErrSessionNotFound, http.StatusNotFound, response.ErrSessionNotFound},
	{service.ErrFormNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrSubmissionNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrFormNotVisible, http.StatusNotFound, response.ErrFormNotAvailable},

	{service.ErrSessionReadOnly, http.StatusConflict, response.ErrReadOnly},
	{service.ErrNotSubmittable, http.StatusConflict, response.ErrReadOnly},
	{builder.ErrAnswersFrozen, http.StatusConflict, response.ErrReadOnly},
	{service.ErrAlreadyPublished, http.StatusConflict, response.ErrAlreadyPublished},
	{service.ErrNotPublished, http.StatusConflict, response.ErrFormNotPublished},

	{service.ErrInvalidStatus, http.StatusBadRequest, response.ErrValidation},
	{service.ErrNotFileField, http.StatusBadRequest, response.ErrInvalidField},
	{service.ErrUnsupportedFileType, http.StatusBadRequest, response.ErrUnsupportedFile},
	{service.ErrFileTooLarge, http.StatusBadRequest, response.ErrFileTooLarge},

	{service.ErrTransientIO, http.StatusServiceUnavailable, response.ErrStorageUnavailable},
}

// writeError answers err with the matching code. Validation errors carry
// their own message; anything unmapped is logged and answered as 500.
func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			var ve *builder.ValidationError
			if m.status == http.StatusUnprocessableEntity && errors.As(err, &ve) {
				response.FailWithMessage(c, m.status, m.code, err.Error())
				return
			}
			if m.status >= http.StatusInternalServerError {
				zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("Storage unavailable")
			}
			response.Fail(c, m.status, m.code)
			return
		}
	}

	var ve *builder.ValidationError
	if errors.As(err, &ve) {
		response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrValidation, ve.Message)
		return
	}

	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Unhandled error")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// writeViewError is writeError for fill and view routes: a missing or
// unavailable form sends the client back to the default view.
func writeViewError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrFormNotFound) ||
		errors.Is(err, service.ErrFormNotVisible) ||
		errors.Is(err, service.ErrSubmissionNotFound) {
		response.NotFoundRedirect(c, "/")
		return
	}
	writeError(c, err)
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return n, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return n
}

// errorCodeOf returns the code writeError would answer err with.
func errorCodeOf(err error) response.ErrCode {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	var ve *builder.ValidationError
	if errors.As(err, &ve) {
		return response.ErrValidation
	}
	return response.ErrInternal
}
