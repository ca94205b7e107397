// Package recovery provides a middleware that recovers from panics and
// returns an Internal Server Error response. It should be the first
// middleware in the chain so that it also covers panics in other middlewares.
package recovery

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

type Middleware struct{}

// New returns a new recovery middleware.
func New() *Middleware {
	return &Middleware{}
}

// Handler returns the recovery middleware handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				realErr, ok := err.(error)
				if !ok {
					realErr = fmt.Errorf("%v", err)
				}

				slog.Error("recovered from panic in request handler",
					"method", r.Method,
					"path", r.URL.Path,
					"error", realErr,
					"stack", string(debug.Stack()))

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
