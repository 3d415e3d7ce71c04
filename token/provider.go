package token

import (
	"context"

	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/logger"
)

// Provider returns a bearer token. appOnly asks for an application token
// rather than one acting for a user.
type Provider interface {
	GetBearerToken(ctx context.Context, appOnly bool) (string, error)
}

// Static returns a fixed token.
type Static string

// GetBearerToken implements Provider.
func (s Static) GetBearerToken(context.Context, bool) (string, error) {
	if s == "" {
		return "", apperrors.TokenAcquisition(nil)
	}
	return string(s), nil
}

// Router sends app-only requests to App and the rest to Delegated, falling
// back to App when Delegated is unset or fails.
type Router struct {
	App       Provider
	Delegated Provider
	Log       *logger.Logger
}

// GetBearerToken implements Provider.
func (r *Router) GetBearerToken(ctx context.Context, appOnly bool) (string, error) {
	if !appOnly && r.Delegated != nil {
		tok, err := r.Delegated.GetBearerToken(ctx, false)
		if err == nil && tok != "" {
			return tok, nil
		}
		if r.Log != nil && err != nil {
			r.Log.WithContext(ctx).Warn("Delegated token unavailable, using app token", logger.ErrorFields("delegated_token", err))
		}
	}
	return r.App.GetBearerToken(ctx, true)
}
