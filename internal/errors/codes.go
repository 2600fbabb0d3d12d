package errors

// ErrorCode represents a machine-readable error identifier for client error handling.
type ErrorCode string

// Validation errors (request input rejected before touching any dependency)
const (
	ErrCodeMissingField   ErrorCode = "missing_field"
	ErrCodeInvalidField   ErrorCode = "invalid_field"
	ErrCodeInvalidAmount  ErrorCode = "invalid_amount"
	ErrCodeInvalidAddress ErrorCode = "invalid_address"
	ErrCodeInvalidSheet   ErrorCode = "invalid_sheet"
)

// Rate limiting
const (
	ErrCodeRateLimited ErrorCode = "rate_limit_exceeded"
)

// Resource/state errors
const (
	ErrCodeSheetNotFound   ErrorCode = "sheet_not_found"
	ErrCodePaymentNotFound ErrorCode = "payment_not_found"
)

// External service errors (transient, safe to retry)
const (
	ErrCodeSheetsUnavailable ErrorCode = "sheets_unavailable"
	ErrCodeOracleUnavailable ErrorCode = "oracle_unavailable"
	ErrCodeNetworkError      ErrorCode = "network_error"
)

// Internal/system errors
const (
	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeDatabaseError ErrorCode = "database_error"
)

// IsRetryable returns whether an error code represents a retryable error.
// Transient dependency failures are retryable; validation and state errors
// are not. Rate limiting is retryable after the indicated window.
func (e ErrorCode) IsRetryable() bool {
	switch e {
	case ErrCodeRateLimited,
		ErrCodeSheetsUnavailable,
		ErrCodeOracleUnavailable,
		ErrCodeNetworkError:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	case ErrCodeMissingField,
		ErrCodeInvalidField,
		ErrCodeInvalidAmount,
		ErrCodeInvalidAddress,
		ErrCodeInvalidSheet:
		return 400

	case ErrCodeSheetNotFound,
		ErrCodePaymentNotFound:
		return 404

	case ErrCodeRateLimited:
		return 429

	case ErrCodeSheetsUnavailable,
		ErrCodeOracleUnavailable,
		ErrCodeNetworkError:
		return 502

	default:
		return 500
	}
}
