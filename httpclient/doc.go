// Package httpclient is the HTTP client behind the token and meeting API
// clients. It resolves paths against a base URL, encodes JSON and form
// bodies, applies bearer auth and wraps each call in the configured retry
// and circuit breaker policies.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://graph.microsoft.com/beta",
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "subscriptions",
//	    Body:   payload,
//	    Auth:   httpclient.BearerAuth(token),
//	})
//
// Non-2xx responses come back as *Error together with the response.
package httpclient
