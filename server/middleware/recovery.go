package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/logger"
)

// Recovery returns middleware that recovers from panics, logs the stack and
// answers 500 with the standard error body.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithContext(r.Context()).Error("Panic recovered", map[string]interface{}{
						"error":  fmt.Sprintf("%v", rec),
						"stack":  string(debug.Stack()),
						"path":   r.URL.Path,
						"method": r.Method,
					})
					body := apperrors.Internal(fmt.Errorf("panic: %v", rec)).ToResponse()
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(body)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
