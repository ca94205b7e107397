// Package logging provides a middleware that logs every HTTP request with
// method, path, status and duration.
package logging

import (
	"log/slog"
	"net/http"
	"time"
)

type Middleware struct {
	level slog.Level
}

// New returns a new logging middleware that logs at the given level.
func New(level slog.Level) *Middleware {
	return &Middleware{level: level}
}

// Handler returns the logging middleware handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lw, r)

		slog.Log(r.Context(), m.level, "handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lw.status,
			"size", lw.size,
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr)
	})
}

// loggingWriter wraps a http.ResponseWriter to capture status code and size.
type loggingWriter struct {
	http.ResponseWriter

	status int
	size   int
}

func (w *loggingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *loggingWriter) Write(data []byte) (int, error) {
	n, err := w.ResponseWriter.Write(data)
	w.size += n

	return n, err
}
