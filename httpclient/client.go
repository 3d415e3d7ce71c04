package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kbukum/transcriptfeed/resilience"
)

// Client is an HTTP client with auth, TLS and resilience applied.
type Client struct {
	httpClient *http.Client
	config     Config
	cb         *resilience.CircuitBreaker
}

// New creates a client from cfg.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
	}

	c := &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		config:     cfg,
	}
	if cfg.CircuitBreaker != nil {
		c.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return c, nil
}

// Do sends req, retrying per the client's policy unless req.NoRetry is set.
// On a non-2xx status it returns both the response and an *Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.config.Retry == nil || req.NoRetry {
		return c.doOnce(ctx, req)
	}
	var last *Response
	resp, err := resilience.Retry(ctx, *c.config.Retry, func() (*Response, error) {
		r, err := c.doOnce(ctx, req)
		last = r
		return r, err
	})
	if err != nil {
		return last, err
	}
	return resp, nil
}

// CircuitState reports the breaker state, or closed when none is configured.
func (c *Client) CircuitState() resilience.State {
	if c.cb == nil {
		return resilience.StateClosed
	}
	return c.cb.State()
}

func (c *Client) doOnce(ctx context.Context, req Request) (*Response, error) {
	if c.cb == nil {
		return c.execute(ctx, req)
	}
	var resp *Response
	err := c.cb.Execute(func() error {
		var err error
		resp, err = c.execute(ctx, req)
		return err
	})
	return resp, err
}

func (c *Client) execute(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, newError(KindTimeout, err)
		}
		return nil, newError(KindConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindConnection, fmt.Errorf("read response body: %w", err))
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}
	if statusErr := statusError(resp.StatusCode, body); statusErr != nil {
		return result, statusErr
	}
	return result, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := req.Path
	if c.config.BaseURL != "" && !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(target, "/")
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, newError(KindRequest, fmt.Errorf("encode body: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, newError(KindRequest, err)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	auth := c.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	return httpReq, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	case url.Values:
		return strings.NewReader(v.Encode()), "application/x-www-form-urlencoded", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
