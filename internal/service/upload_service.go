package service

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/model"
)

// Sentinel errors for uploads.
var (
	ErrNotFileField        = errors.New("field does not accept files")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// UploadService checks chosen files against a file field's limits and
// hands back a reference. File bytes are never stored.
type UploadService struct {
	cfg *config.Config
}

// NewUploadService creates a new UploadService.
func NewUploadService(cfg *config.Config) *UploadService {
	return &UploadService{cfg: cfg}
}

// Accept validates header against field and returns the reference the
// answer will carry.
func (s *UploadService) Accept(field model.Field, header *multipart.FileHeader) (model.FileRef, error) {
	if field.Kind != model.FieldKindFileUpload {
		return model.FileRef{}, ErrNotFileField
	}

	ext := strings.ToUpper(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if !acceptsFormat(field.AllowedFormats, ext) {
		return model.FileRef{}, fmt.Errorf("%w: %q (allowed: %s)",
			ErrUnsupportedFileType, ext, strings.Join(field.AllowedFormats, ", "))
	}

	limit := int64(field.MaxSizeMB * 1024 * 1024)
	if s.cfg.MaxUploadBytes > 0 && s.cfg.MaxUploadBytes < limit {
		limit = s.cfg.MaxUploadBytes
	}
	if header.Size > limit {
		return model.FileRef{}, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, limit)
	}

	return model.FileRef{
		Name: filepath.Base(header.Filename),
		URL:  "/uploads/" + uuid.NewString() + "." + strings.ToLower(ext),
	}, nil
}

func acceptsFormat(allowed []string, ext string) bool {
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}
