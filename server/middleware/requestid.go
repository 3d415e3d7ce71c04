package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/transcriptfeed/logger"
)

// HeaderRequestID carries the correlation id on requests and responses.
const HeaderRequestID = "X-Request-Id"

// RequestID makes sure every request has an X-Request-Id. The id is echoed on
// the response and stored in the request context for logger.WithContext.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)
			ctx := logger.ContextWithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
