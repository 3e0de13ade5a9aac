package logger

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type requestLoggerKey struct{}

// RequestIDHeader carries the debug-server request id in both directions.
const RequestIDHeader = "X-Request-ID"

// FromContext returns the request logger attached by
// RequestLoggerMiddleware, or an entry on fallback.
func FromContext(ctx context.Context, fallback *logrus.Logger) *logrus.Entry {
	if entry, ok := ctx.Value(requestLoggerKey{}).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(fallback)
}

// RequestLoggerMiddleware assigns every request an id, echoes it in the
// response header and logs the request once it has been served.
func RequestLoggerMiddleware(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
				r.Header.Set(RequestIDHeader, id)
			}
			w.Header().Set(RequestIDHeader, id)

			entry := log.WithFields(logrus.Fields{
				"request_id": id,
				"method":     r.Method,
				"path":       r.URL.Path,
			})

			start := time.Now()
			rec := NewStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestLoggerKey{}, entry)))

			entry.WithFields(logrus.Fields{
				"status":   rec.Status(),
				"bytes":    rec.Bytes(),
				"duration": time.Since(start).String(),
			}).Debug("Request served")
		})
	}
}

// StatusRecorder remembers the status and body size written through it.
type StatusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

// NewStatusRecorder wraps w. The status defaults to 200 until a handler
// writes a header.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w}
}

func (s *StatusRecorder) WriteHeader(code int) {
	if s.status != 0 {
		return
	}
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *StatusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.WriteHeader(http.StatusOK)
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Status returns the response status.
func (s *StatusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

// Bytes returns the number of body bytes written.
func (s *StatusRecorder) Bytes() int {
	return s.bytes
}
