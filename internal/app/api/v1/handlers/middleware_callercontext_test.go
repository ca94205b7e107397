package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinfohub/med-portal/internal/domain"
)

func callerFromRequest(t *testing.T, prepare func(r *http.Request)) *domain.CallerContext {
	t.Helper()

	var caller *domain.CallerContext
	handler := CallerContextMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		caller = domain.GetCallerInfo(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.7:40312"
	r.Header.Set("User-Agent", "test-agent")
	if prepare != nil {
		prepare(r)
	}

	handler.ServeHTTP(httptest.NewRecorder(), r)
	require.NotNil(t, caller)

	return caller
}

func TestCallerContextMiddleware_anonymous(t *testing.T) {
	caller := callerFromRequest(t, nil)

	assert.Equal(t, domain.CtxAnonymousUserId, caller.UserId)
	assert.False(t, caller.IsAdmin)
	assert.Equal(t, "198.51.100.7", caller.IpAddress)
	assert.Equal(t, "test-agent", caller.UserAgent)
}

func TestCallerContextMiddleware_gatewayIdentity(t *testing.T) {
	caller := callerFromRequest(t, func(r *http.Request) {
		r.Header.Set("X-User-Id", "u-7")
		r.Header.Set("X-User-Name", "Dr. Demo")
		r.Header.Set("X-Session-Id", "sess-1")
		r.Header.Set("X-User-Roles", "editor, admin")
	})

	assert.Equal(t, "u-7", caller.UserId)
	assert.Equal(t, "Dr. Demo", caller.UserName)
	assert.Equal(t, "sess-1", caller.SessionId)
	assert.True(t, caller.IsAdmin)
}

func TestCallerContextMiddleware_nonAdminRoles(t *testing.T) {
	caller := callerFromRequest(t, func(r *http.Request) {
		r.Header.Set("X-User-Id", "u-7")
		r.Header.Set("X-User-Roles", "editor")
	})

	assert.False(t, caller.IsAdmin)
}
