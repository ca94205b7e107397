// Package tracing provides a middleware that assigns every request a request
// id. An upstream id from the X-Request-ID header is re-used, otherwise a new
// one is generated. The id is stored in the request context and echoed in the
// response header; downstream it doubles as the audit correlation id.
package tracing

import (
	"context"
	"math/rand/v2"
	"net/http"

	"github.com/medinfohub/med-portal/internal"
)

const HeaderIdentifier = "X-Request-ID"

const idCharset = "abcdefghijklmnopqrstuvwxyz0123456789"
const idLength = 16

// maxUpstreamIdLength caps ids taken from the upstream header. The id is
// persisted as audit correlation id and must not grow unbounded.
const maxUpstreamIdLength = 64

type contextKey string

const ctxRequestId contextKey = "requestId"

type Middleware struct{}

// New returns a new tracing middleware.
func New() *Middleware {
	return &Middleware{}
}

// Handler returns the tracing middleware handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// read upstream header and re-use it
		reqId := internal.TruncateString(r.Header.Get(HeaderIdentifier), maxUpstreamIdLength)
		if reqId == "" {
			reqId = generateRandomId()
		}

		w.Header().Set(HeaderIdentifier, reqId)

		ctx := context.WithValue(r.Context(), ctxRequestId, reqId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestId returns the request id stored in the context, or an empty string.
func RequestId(ctx context.Context) string {
	if id, ok := ctx.Value(ctxRequestId).(string); ok {
		return id
	}

	return ""
}

// generateRandomId is safe for concurrent use, the global rand source is
// internally synchronized.
func generateRandomId() string {
	b := make([]byte, idLength)
	for i := range b {
		b[i] = idCharset[rand.IntN(len(idCharset))]
	}

	return string(b)
}
