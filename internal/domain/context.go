package domain

import (
	"context"
	"fmt"
)

type contextKey string

const ctxCallerInfo contextKey = "callerInfo"

const (
	CtxSystemUserId    = "_MED_SYS_SYSTEM_"
	CtxAnonymousUserId = "anonymous"
)

// CallerContext describes the identity and network context of the caller that
// triggered the current operation. It is supplied by the surrounding request
// pipeline (or a system job) and consumed by the audit core. All fields are
// best-effort: an unauthenticated caller is recorded as anonymous, a missing
// network context stays empty. A mutation must never fail because the caller
// identity is incomplete.
type CallerContext struct {
	UserId        string
	UserName      string
	SessionId     string
	IpAddress     string
	UserAgent     string
	CorrelationId string
	IsAdmin       bool
}

func (c *CallerContext) String() string {
	return fmt.Sprintf("%s|%t", c.UserId, c.IsAdmin)
}

// AnonymousCallerContext returns the caller info that is used if no explicit info is set on the context.
func AnonymousCallerContext() *CallerContext {
	return &CallerContext{
		UserId:  CtxAnonymousUserId,
		IsAdmin: false,
	}
}

// SystemCallerContext returns the caller info for internal background jobs.
func SystemCallerContext() *CallerContext {
	return &CallerContext{
		UserId:  CtxSystemUserId,
		IsAdmin: true,
	}
}

func SetCallerInfo(ctx context.Context, info *CallerContext) context.Context {
	return context.WithValue(ctx, ctxCallerInfo, info)
}

func GetCallerInfo(ctx context.Context) *CallerContext {
	rawInfo := ctx.Value(ctxCallerInfo)
	if rawInfo == nil {
		return AnonymousCallerContext()
	}

	if info, ok := rawInfo.(*CallerContext); ok {
		return info
	}

	return AnonymousCallerContext()
}

// ValidateAdminAccessRights returns ErrNoPermission if the caller is no admin.
func ValidateAdminAccessRights(ctx context.Context) error {
	if GetCallerInfo(ctx).IsAdmin {
		return nil
	}

	return ErrNoPermission
}
