package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Builder ───────────────────────────────────────────────────────
	ErrMaxFieldsReached ErrCode = "MAX_FIELDS_REACHED"
	ErrLastOption       ErrCode = "LAST_OPTION"
	ErrInvalidField     ErrCode = "INVALID_FIELD"
	ErrFieldNotFound    ErrCode = "FIELD_NOT_FOUND"
	ErrOptionNotFound   ErrCode = "OPTION_NOT_FOUND"
	ErrSessionNotFound  ErrCode = "SESSION_NOT_FOUND"

	// ─── Form lifecycle ────────────────────────────────────────────────
	ErrTitleRequired    ErrCode = "TITLE_REQUIRED"
	ErrNoFields         ErrCode = "NO_FIELDS"
	ErrAlreadyPublished ErrCode = "ALREADY_PUBLISHED"
	ErrFormNotPublished ErrCode = "FORM_NOT_PUBLISHED"
	ErrFormNotAvailable ErrCode = "FORM_NOT_AVAILABLE"

	// ─── Submission ────────────────────────────────────────────────────
	ErrRequiredMissing ErrCode = "REQUIRED_ANSWER_MISSING"
	ErrReadOnly        ErrCode = "READ_ONLY"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrStorageUnavailable ErrCode = "STORAGE_UNAVAILABLE"
	ErrInternal           ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Builder ───────────────────────────────────────────────────────
	case ErrMaxFieldsReached:
		return "You can add up to 10 fields only."
	case ErrLastOption:
		return "A Dropdown field must have at least one option."
	case ErrInvalidField:
		return "The field update is not valid for this field."
	case ErrFieldNotFound:
		return "Field not found."
	case ErrOptionNotFound:
		return "Option not found."
	case ErrSessionNotFound:
		return "Builder session not found or expired."

	// ─── Form lifecycle ────────────────────────────────────────────────
	case ErrTitleRequired:
		return "Form title is required to publish."
	case ErrNoFields:
		return "Please add at least one field before publishing."
	case ErrAlreadyPublished:
		return "A published form cannot be saved back to draft."
	case ErrFormNotPublished:
		return "Only published forms can change visibility."
	case ErrFormNotAvailable:
		return "This form is not available."

	// ─── Submission ────────────────────────────────────────────────────
	case ErrRequiredMissing:
		return "Please answer all required questions."
	case ErrReadOnly:
		return "This view is read-only."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File size exceeds the limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrStorageUnavailable:
		return "Storage is temporarily unavailable. Your changes were kept, please retry."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
