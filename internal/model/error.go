package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON   = "INVALID_JSON"
	ErrCodeMissingField  = "MISSING_FIELD"
	ErrCodeNotFound      = "COUPON_NOT_FOUND"
	ErrCodeExpired       = "COUPON_EXPIRED"
	ErrCodeAlreadyUsed   = "COUPON_ALREADY_USED"
	ErrCodeConsumeRace   = "COUPON_ALREADY_CONSUMED_OR_EXPIRED"
	ErrCodePersistence   = "PERSISTENCE_ERROR"
	ErrCodePermission    = "CAMERA_PERMISSION_DENIED"
	ErrCodeNoCamera      = "NO_CAMERA_FOUND"
	ErrCodeCamera        = "CAMERA_ERROR"
	ErrCodeUnauthorised  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	// Expected redemption outcomes; these drive the partner-facing flow back
	// to input with a specific message, they are never treated as faults.
	ErrCouponNotFound = NewDomainError(ErrCodeNotFound, "No coupon matches the given code")
	ErrCouponExpired  = NewDomainError(ErrCodeExpired, "Coupon validity window has elapsed")
	ErrAlreadyUsed    = NewDomainError(ErrCodeAlreadyUsed, "Coupon has already been used")
	// Returned when a conditional consume affected zero rows: the coupon was
	// consumed or expired between validate and consume.
	ErrAlreadyConsumedOrExpired = NewDomainError(ErrCodeConsumeRace, "Coupon was already consumed or has expired")

	// Camera/device failures, distinguished for user messaging.
	ErrCameraPermissionDenied = NewDomainError(ErrCodePermission, "Camera permission denied; enable camera access in browser settings")
	ErrNoCameraFound          = NewDomainError(ErrCodeNoCamera, "No camera device found")
	ErrCamera                 = NewDomainError(ErrCodeCamera, "Camera could not be started")

	// The backing store is unreachable or rejected the operation for a
	// reason unrelated to business rules.
	ErrPersistence = NewDomainError(ErrCodePersistence, "Coupon store operation failed")
)
