package model

import "fmt"

// Mode is the capability context a field is rendered under. It is derived
// from the route and never persisted.
type Mode string

const (
	ModeBuilderEdit       Mode = "BUILDER_EDIT"
	ModeBuilderPreview    Mode = "BUILDER_PREVIEW"
	ModeLearnerSubmission Mode = "LEARNER_SUBMISSION"
	ModeViewSubmission    Mode = "VIEW_SUBMISSION"
)

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	switch m {
	case ModeBuilderEdit, ModeBuilderPreview, ModeLearnerSubmission, ModeViewSubmission:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// SchemaEditable reports whether the field definition itself can change.
// Only the active field in the builder is editable.
func (m Mode) SchemaEditable(isActive bool) bool {
	switch m {
	case ModeBuilderEdit:
		return isActive
	default:
		return false
	}
}

// AnswerEditable reports whether answer handlers may change stored values.
func (m Mode) AnswerEditable() bool {
	switch m {
	case ModeBuilderPreview, ModeLearnerSubmission:
		return true
	default:
		return false
	}
}

// PersistsAnswers reports whether collected answers form a real submission.
// Preview answers are scratch values.
func (m Mode) PersistsAnswers() bool {
	switch m {
	case ModeLearnerSubmission:
		return true
	default:
		return false
	}
}

// ReadOnly reports whether every interaction is disabled.
func (m Mode) ReadOnly() bool {
	switch m {
	case ModeViewSubmission:
		return true
	default:
		return false
	}
}

// NumbersQuestions reports whether questions are shown with a 1-based number.
func (m Mode) NumbersQuestions() bool {
	switch m {
	case ModeBuilderPreview, ModeLearnerSubmission, ModeViewSubmission:
		return true
	default:
		return false
	}
}
