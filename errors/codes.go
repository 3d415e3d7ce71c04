package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Resource errors
const (
	// ErrCodeNotFound indicates an unknown subscription or event subscription id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMalformedPayload indicates a webhook body with a bad JSON shape.
	ErrCodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"
)

// Remote collaborator errors
const (
	// ErrCodeRemoteCall indicates the remote API answered with a failure status.
	ErrCodeRemoteCall ErrorCode = "REMOTE_CALL_FAILED"
	// ErrCodeTokenAcquisition indicates no bearer token could be obtained.
	ErrCodeTokenAcquisition ErrorCode = "TOKEN_ACQUISITION_FAILED"
	// ErrCodeTransport indicates a streaming transport failure.
	ErrCodeTransport ErrorCode = "TRANSPORT_FAILED"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Notification decryption errors. Never retried.
const (
	ErrCodeKeyUnwrap         ErrorCode = "KEY_UNWRAP_FAILED"
	ErrCodeSignatureMismatch ErrorCode = "SIGNATURE_MISMATCH"
	ErrCodePayloadDecrypt    ErrorCode = "PAYLOAD_DECRYPT_FAILED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:          true,
	ErrCodeTokenAcquisition: true,
	ErrCodeInternal:         false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
