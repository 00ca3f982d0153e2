package service

import (
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stemsi/formcraft-backend/internal/builder"
	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileField(t *testing.T) model.Field {
	t.Helper()
	f, err := builder.NewField(model.FieldKindFileUpload)
	require.NoError(t, err)
	return f
}

func TestUploadService_Accept(t *testing.T) {
	svc := NewUploadService(&config.Config{MaxUploadBytes: 10 << 20})
	field := fileField(t) // PDF, PNG, JPG up to 2 MB

	tests := []struct {
		name    string
		file    string
		size    int64
		wantErr error
	}{
		{"accepted pdf", "resume.pdf", 1 << 20, nil},
		{"extension case ignored", "photo.PnG", 1024, nil},
		{"unsupported type", "notes.docx", 1024, ErrUnsupportedFileType},
		{"no extension", "README", 10, ErrUnsupportedFileType},
		{"over field limit", "scan.jpg", 3 << 20, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := svc.Accept(field, &multipart.FileHeader{Filename: tt.file, Size: tt.size})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.file, ref.Name)
			assert.True(t, strings.HasPrefix(ref.URL, "/uploads/"))
		})
	}
}

func TestUploadService_ServerLimitWins(t *testing.T) {
	svc := NewUploadService(&config.Config{MaxUploadBytes: 1024})
	field := fileField(t)

	_, err := svc.Accept(field, &multipart.FileHeader{Filename: "a.pdf", Size: 2048})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadService_RejectsNonFileField(t *testing.T) {
	svc := NewUploadService(&config.Config{})
	_, err := svc.Accept(shortTextField(t, "Name"), &multipart.FileHeader{Filename: "a.pdf"})
	assert.ErrorIs(t, err, ErrNotFileField)
}
