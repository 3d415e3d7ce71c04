package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a client error.
type Kind int

const (
	// KindStatus is a non-2xx response.
	KindStatus Kind = iota
	// KindTimeout is a request that ran out of time.
	KindTimeout
	// KindConnection is a failure to reach the server or read its reply.
	KindConnection
	// KindRequest is a request that could not be built.
	KindRequest
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Error is a classified HTTP client error.
type Error struct {
	Kind Kind
	// StatusCode is zero unless Kind is KindStatus.
	StatusCode int
	// Reason is the status text, or the error message from the body if the
	// server sent one.
	Reason string
	Body   []byte
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("httpclient: HTTP %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Kind, e.Reason)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the request may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindConnection:
		return true
	case KindStatus:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	}
	return false
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Reason: err.Error(), Err: err}
}

// statusError returns nil for 2xx.
func statusError(code int, body []byte) *Error {
	if code >= 200 && code < 300 {
		return nil
	}
	reason := errorReason(body)
	if reason == "" {
		reason = http.StatusText(code)
	}
	return &Error{Kind: KindStatus, StatusCode: code, Reason: reason, Body: body}
}

// errorReason extracts a message from the two JSON error shapes the remote
// APIs use: {"error":{"code","message"}} and OAuth's
// {"error","error_description"}.
func errorReason(body []byte) string {
	var envelope struct {
		Error            json.RawMessage `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}
	if len(body) == 0 || json.Unmarshal(body, &envelope) != nil || len(envelope.Error) == 0 {
		return ""
	}

	var detail struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Error, &detail) == nil {
		if detail.Message != "" {
			return detail.Message
		}
		return detail.Code
	}

	var code string
	if json.Unmarshal(envelope.Error, &code) == nil {
		if envelope.ErrorDescription != "" {
			return code + ": " + envelope.ErrorDescription
		}
		return code
	}
	return ""
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// Reason returns the failure reason carried by err, or err's message.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return err.Error()
}
