package httpclient

import "net/http"

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Token is sent as a bearer token when set.
	Token string
	// Apply modifies the request for any other scheme.
	Apply func(*http.Request)
}

// BearerAuth authenticates with a bearer token.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Token: token}
}

// CustomAuth authenticates with a request modifier.
func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Apply: fn}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
	if a.Apply != nil {
		a.Apply(req)
	}
}
