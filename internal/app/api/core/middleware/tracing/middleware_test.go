package tracing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_generatesRequestId(t *testing.T) {
	var ctxId string
	handler := New().Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctxId = RequestId(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, ctxId, idLength)
	assert.Equal(t, ctxId, w.Header().Get(HeaderIdentifier))
}

func TestMiddleware_reusesUpstreamId(t *testing.T) {
	var ctxId string
	handler := New().Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctxId = RequestId(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderIdentifier, "upstream-id-42")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, "upstream-id-42", ctxId)
	assert.Equal(t, "upstream-id-42", w.Header().Get(HeaderIdentifier))
}

func TestMiddleware_truncatesUpstreamId(t *testing.T) {
	var ctxId string
	handler := New().Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctxId = RequestId(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderIdentifier, strings.Repeat("x", 500))

	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.Len(t, ctxId, maxUpstreamIdLength)
}

func TestMiddleware_concurrentRequests(t *testing.T) {
	handler := New().Handler(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))

	const requests = 64
	ids := make(chan string, requests)

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			ids <- w.Header().Get(HeaderIdentifier)
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{})
	for id := range ids {
		require.Len(t, id, idLength)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, requests, "concurrently generated ids must be unique")
}

func TestRequestId_missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Empty(t, RequestId(r.Context()))
}
