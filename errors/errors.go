package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// HasCode reports whether err is, or wraps, an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// --- Resource errors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// --- Validation errors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MalformedPayload creates a new AppError for a notification body that cannot be used.
func MalformedPayload(reason string) *AppError {
	return &AppError{
		Code: ErrCodeMalformedPayload, Message: fmt.Sprintf("Malformed payload: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// --- Remote collaborator errors ---

// RemoteCall creates a new AppError for a failed call to the remote API.
// The HTTP status of the remote response is carried through; zero maps to 502.
func RemoteCall(operation string, status int, reason string) *AppError {
	httpStatus := status
	if httpStatus == 0 {
		httpStatus = http.StatusBadGateway
	}
	details := map[string]any{"operation": operation}
	if status != 0 {
		details["status"] = status
	}
	msg := fmt.Sprintf("%s failed", operation)
	if reason != "" {
		msg = fmt.Sprintf("%s failed: %s", operation, reason)
	}
	return &AppError{
		Code: ErrCodeRemoteCall, Message: msg,
		HTTPStatus: httpStatus, Retryable: status >= 500 || status == http.StatusTooManyRequests,
		Details: details,
	}
}

// TokenAcquisition creates a new AppError for a failed token request.
func TokenAcquisition(cause error) *AppError {
	return &AppError{
		Code: ErrCodeTokenAcquisition, Message: "Unable to acquire an access token.",
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
	}
}

// Transport creates a new AppError for a streaming transport failure.
func Transport(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransport, Message: fmt.Sprintf("Transport %s failed.", operation),
		HTTPStatus: http.StatusBadGateway, Retryable: false, Cause: cause,
		Details: map[string]any{"operation": operation},
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// --- Decryption errors ---

// KeyUnwrap creates a new AppError for a symmetric key that could not be unwrapped.
func KeyUnwrap(cause error) *AppError {
	return &AppError{
		Code: ErrCodeKeyUnwrap, Message: "Unable to unwrap the notification data key.",
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false, Cause: cause,
	}
}

// SignatureMismatch creates a new AppError for a notification whose signature does not verify.
func SignatureMismatch() *AppError {
	return &AppError{
		Code: ErrCodeSignatureMismatch, Message: "Notification signature does not match its content.",
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
	}
}

// PayloadDecrypt creates a new AppError for ciphertext that fails to decrypt.
func PayloadDecrypt(cause error) *AppError {
	return &AppError{
		Code: ErrCodePayloadDecrypt, Message: "Unable to decrypt the notification payload.",
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false, Cause: cause,
	}
}

// --- Internal errors ---

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
