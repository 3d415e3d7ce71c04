package httpclient

import (
	"encoding/json"
	"fmt"
)

// Request describes an outbound HTTP request.
type Request struct {
	Method string
	// Path is joined to BaseURL unless it is an absolute URL.
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body accepts io.Reader, []byte, string, url.Values (form encoded) or
	// any value to be JSON encoded.
	Body any
	// Auth overrides the client-level auth.
	Auth *AuthConfig
	// NoRetry sends the request once regardless of the client's retry
	// policy. Set it on calls that create remote state.
	NoRetry bool
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("httpclient: decode response: %w", err)
	}
	return nil
}
