package utils

import "context"

const (
	UserIDKey       contextKey = "user_id"
	UserEmailKey    contextKey = "email"
	UserRoleKey     contextKey = "role"
	UserLocationKey contextKey = "location"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

type ctxKey string

const internalRequestKey ctxKey = "internal_request"

func WithInternalRequest(ctx context.Context) context.Context {
	return context.WithValue(ctx, internalRequestKey, true)
}

func IsInternalRequest(ctx context.Context) bool {
	v, _ := ctx.Value(internalRequestKey).(bool)
	return v
}
