package builder

import "errors"

// ValidationError is a user-correctable rejection. Operations that return
// one leave their input unchanged.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches on Code so wrapped or re-worded errors still compare equal to
// the sentinels below.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func invalidPatch(msg string) *ValidationError {
	return &ValidationError{Code: ErrInvalidPatch.Code, Message: msg}
}

var (
	ErrMaxFields    = &ValidationError{Code: "MAX_FIELDS_REACHED", Message: "a form can hold at most 10 fields"}
	ErrLastOption   = &ValidationError{Code: "LAST_OPTION", Message: "A Dropdown field must have at least one option."}
	ErrUnknownKind  = &ValidationError{Code: "UNKNOWN_FIELD_KIND", Message: "unknown field kind"}
	ErrInvalidPatch = &ValidationError{Code: "INVALID_PATCH", Message: "invalid field update"}
)

var (
	ErrFieldNotFound  = errors.New("field not found")
	ErrOptionNotFound = errors.New("option not found")
	ErrAnswersFrozen  = errors.New("answers are read-only")
)
