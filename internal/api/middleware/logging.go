package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// requestUser is a holder the logging middleware plants in the context so
// Auth, which runs further down the chain, can report who the request was
// for. Context values only flow inward, hence the pointer.
type requestUser struct {
	id uuid.UUID
}

const requestUserKey contextKey = "request_user"

func setRequestUser(ctx context.Context, id uuid.UUID) {
	if holder, ok := ctx.Value(requestUserKey).(*requestUser); ok {
		holder.id = id
	}
}

// Logging records one line per request. Authenticated requests carry the
// user ID, and server errors are logged at error level so they stand out in
// shipped logs.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			holder := &requestUser{}
			r = r.WithContext(context.WithValue(r.Context(), requestUserKey, holder))

			wrapped := &responseWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"size", wrapped.size,
				"duration", time.Since(start).String(),
				"ip", getClientIP(r),
			}
			if holder.id != uuid.Nil {
				attrs = append(attrs, "user", holder.id.String())
			}

			switch {
			case wrapped.status >= http.StatusInternalServerError:
				logger.Error("request", attrs...)
			case wrapped.status >= http.StatusBadRequest:
				logger.Warn("request", attrs...)
			default:
				logger.Info("request", attrs...)
			}
		})
	}
}
