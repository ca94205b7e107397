package handlers

import (
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/medinfohub/med-portal/internal/app/api/core/middleware/tracing"
	"github.com/medinfohub/med-portal/internal/domain"
)

// Authentication happens at the API gateway in front of this service; the
// gateway forwards the verified identity in these headers.
const (
	headerUserId    = "X-User-Id"
	headerUserName  = "X-User-Name"
	headerSessionId = "X-Session-Id"
	headerUserRoles = "X-User-Roles"
)

// CallerContextMiddleware builds the caller context for the request from the
// gateway identity headers and the network information. Requests without
// identity headers are treated as anonymous; the request id doubles as the
// audit correlation id.
func CallerContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := domain.AnonymousCallerContext()

		if userId := r.Header.Get(headerUserId); userId != "" {
			roles := strings.Split(r.Header.Get(headerUserRoles), ",")
			for i := range roles {
				roles[i] = strings.TrimSpace(roles[i])
			}

			caller = &domain.CallerContext{
				UserId:    userId,
				UserName:  r.Header.Get(headerUserName),
				SessionId: r.Header.Get(headerSessionId),
				IsAdmin:   slices.Contains(roles, "admin"),
			}
		}

		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
		caller.IpAddress = ip
		caller.UserAgent = r.UserAgent()
		caller.CorrelationId = tracing.RequestId(r.Context())

		ctx := domain.SetCallerInfo(r.Context(), caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
