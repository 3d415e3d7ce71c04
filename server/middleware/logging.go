package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/transcriptfeed/logger"
)

// RequestLogger returns middleware that logs every request with method,
// path, status, response size and duration. Health and info paths are
// skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSystemEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, rec.status,
				"bytes", rec.bytes,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			logByStatus(log.WithContext(r.Context()), fields, rec.status)
		})
	}
}

// responseRecorder keeps the first status written and counts body bytes.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func isSystemEndpoint(path string) bool {
	switch path {
	case "/health", "/info":
		return true
	}
	return false
}

// logByStatus logs request fields at the level matching the status code.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
