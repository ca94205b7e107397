// Package cors provides a middleware that handles Cross-Origin Resource
// Sharing headers and pre-flight requests.
package cors

import (
	"net/http"
	"strings"
)

type Middleware struct {
	allowedOrigins []string
	allowedMethods string
	allowedHeaders string
}

// New returns a new CORS middleware. With no explicit origins, all origins
// are allowed.
func New(allowedOrigins ...string) *Middleware {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	return &Middleware{
		allowedOrigins: allowedOrigins,
		allowedMethods: strings.Join([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		}, ", "),
		allowedHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}
}

// Handler returns the CORS middleware handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && m.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", m.allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", m.allowedHeaders)
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) originAllowed(origin string) bool {
	for _, allowed := range m.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	return false
}
