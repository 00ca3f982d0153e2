package model

import (
	"time"

	"github.com/google/uuid"
)

// FormStatus enumerates the lifecycle states of a persisted form.
type FormStatus string

const (
	FormStatusDraft     FormStatus = "draft"
	FormStatusPublished FormStatus = "published"
)

func (s FormStatus) Valid() bool {
	return s == FormStatusDraft || s == FormStatusPublished
}

// AuditDateLayout is the format of created/published dates.
const AuditDateLayout = "Jan 02, 2006"

// Form is the persisted unit: header metadata, ordered fields and status.
type Form struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	HeaderName        string     `json:"header_name"`
	HeaderDescription string     `json:"header_description"`
	Status            FormStatus `json:"status"`
	Visible           bool       `json:"visible"`
	Fields            []Field    `json:"fields"`
	CreatedBy         string     `json:"created_by,omitempty"`
	CreatedDate       string     `json:"created_date,omitempty"`
	PublishedBy       string     `json:"published_by,omitempty"`
	PublishedDate     string     `json:"published_date,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of f, including every field definition.
func (f Form) Clone() Form {
	out := f
	if f.Fields != nil {
		out.Fields = make([]Field, len(f.Fields))
		for i := range f.Fields {
			out.Fields[i] = f.Fields[i].Clone()
		}
	}
	return out
}

// FieldByID returns the field with the given id.
func (f Form) FieldByID(id string) (Field, bool) {
	for _, fld := range f.Fields {
		if fld.ID == id {
			return fld, true
		}
	}
	return Field{}, false
}

// FormSummary is the card shown on the admin dashboard.
type FormSummary struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Status        FormStatus `json:"status"`
	Visible       bool       `json:"visible"`
	FieldCount    int        `json:"field_count"`
	CreatedBy     string     `json:"created_by,omitempty"`
	CreatedDate   string     `json:"created_date,omitempty"`
	PublishedBy   string     `json:"published_by,omitempty"`
	PublishedDate string     `json:"published_date,omitempty"`
}

// Summary projects f onto its dashboard card.
func (f Form) Summary() FormSummary {
	return FormSummary{
		ID:            f.ID,
		Title:         f.Title,
		Status:        f.Status,
		Visible:       f.Visible,
		FieldCount:    len(f.Fields),
		CreatedBy:     f.CreatedBy,
		CreatedDate:   f.CreatedDate,
		PublishedBy:   f.PublishedBy,
		PublishedDate: f.PublishedDate,
	}
}

// FormConfigRequest edits the form configuration and layout header.
type FormConfigRequest struct {
	Title             *string `json:"title" binding:"omitempty,max=80"`
	Description       *string `json:"description" binding:"omitempty,max=200"`
	HeaderName        *string `json:"header_name" binding:"omitempty,max=80"`
	HeaderDescription *string `json:"header_description" binding:"omitempty,max=300"`
}

// SaveFormRequest commits a builder session as draft or published.
type SaveFormRequest struct {
	Status FormStatus `json:"status" binding:"required,oneof=draft published"`
}

// SetVisibilityRequest toggles learner access to a published form.
type SetVisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}
