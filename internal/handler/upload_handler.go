package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stemsi/formcraft-backend/internal/response"
	"github.com/stemsi/formcraft-backend/internal/service"
)

// acceptUpload checks the multipart "file" against field and answers with
// the reference to store as the answer. No bytes are kept.
func acceptUpload(c *gin.Context, uploads *service.UploadService, field model.Field) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	ref, err := uploads.Accept(field, header)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ref)
}
