package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sotfmods/api/internal/ctxkeys"
	"github.com/sotfmods/api/internal/ui"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogging logs HTTP requests with method, path, status, and duration.
// It runs after AuthMiddleware so the caller is known.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", ClientIP(r),
		}
		if user := ctxkeys.User(r.Context()); user != nil {
			attrs = append(attrs, "user_id", user.ID)
		}
		slog.Info("http request", attrs...)
	})
}

// Recover turns a handler panic into a 500 instead of a dropped connection. Once the
// handler has started the response the panic is only logged.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("handler panic: %v", rec)
				if rw.written {
					slog.Error("panic after response started", "error", err, "method", r.Method, "path", r.URL.Path, "status", rw.statusCode)
					return
				}
				ui.RenderError(w, r, err)
			}
		}()
		next.ServeHTTP(rw, r)
	})
}
