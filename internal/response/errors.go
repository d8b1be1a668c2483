package response

import "net/http"

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrInvalidArgument ErrCode = "INVALID_ARGUMENT"

	// ─── Quiz session ──────────────────────────────────────────────────
	ErrInvalidState    ErrCode = "INVALID_STATE"
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
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
	case ErrInvalidArgument:
		return "The requested value is out of range."

	// ─── Quiz session ──────────────────────────────────────────────────
	case ErrInvalidState:
		return "This action is not allowed in the current quiz state."
	case ErrSessionNotFound:
		return "Quiz session not found or expired."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}

// HTTPStatus returns the status code an error code is sent with.
func HTTPStatus(code ErrCode) int {
	switch code {
	case ErrValidation, ErrInvalidID, ErrInvalidPayload, ErrInvalidArgument:
		return http.StatusBadRequest
	case ErrInvalidState:
		return http.StatusConflict
	case ErrSessionNotFound, ErrNotFound:
		return http.StatusNotFound
	case ErrRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
