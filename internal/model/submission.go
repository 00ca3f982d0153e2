package model

import (
	"time"

	"github.com/google/uuid"
)

// Submission is a learner's stored set of answers for one form.
type Submission struct {
	ID             uuid.UUID         `json:"id"`
	FormID         uuid.UUID         `json:"form_id"`
	FormTitle      string            `json:"form_title"`
	SubmitterName  string            `json:"submitter_name"`
	SubmitterEmail string            `json:"submitter_email"`
	Answers        map[string]Answer `json:"answers"`
	SubmittedAt    time.Time         `json:"submitted_at"`
}

// SubmissionSummary is one row of the responses table.
type SubmissionSummary struct {
	ID             uuid.UUID `json:"id"`
	FormID         uuid.UUID `json:"form_id"`
	FormTitle      string    `json:"form_title"`
	SubmitterName  string    `json:"submitter_name"`
	SubmitterEmail string    `json:"submitter_email"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// Summary drops the answers from s.
func (s Submission) Summary() SubmissionSummary {
	return SubmissionSummary{
		ID:             s.ID,
		FormID:         s.FormID,
		FormTitle:      s.FormTitle,
		SubmitterName:  s.SubmitterName,
		SubmitterEmail: s.SubmitterEmail,
		SubmittedAt:    s.SubmittedAt,
	}
}

// SubmitRequest is the payload a learner posts to submit a form.
type SubmitRequest struct {
	SubmitterName  string            `json:"submitter_name" binding:"required,min=1,max=120"`
	SubmitterEmail string            `json:"submitter_email" binding:"omitempty,email,max=255"`
	Answers        map[string]Answer `json:"answers"`
}

// SubmitResult is returned by the submission collaborator.
type SubmitResult struct {
	Success      bool      `json:"success"`
	SubmissionID uuid.UUID `json:"submission_id"`
}

// AnswerChangeRequest simulates one interaction with a rendered field.
type AnswerChangeRequest struct {
	FieldID string   `json:"field_id" binding:"required"`
	Value   *string  `json:"value"`
	Option  *string  `json:"option"`
	File    *FileRef `json:"file"`
}
