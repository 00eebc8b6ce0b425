package utils

import "context"

type contextKey string

// Location is the caller's profile address, printed on receipts.
type Location struct {
	Country    string
	State      string
	City       string
	PostalCode string
}

// SetUserContext sets user info into context (called by middleware)
func SetUserContext(ctx context.Context, id uint, email string, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id)
	ctx = context.WithValue(ctx, UserEmailKey, email)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return ctx
}

// GetUserIDFromContext retrieves userID safely
func GetUserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(UserIDKey).(uint)
	return id, ok
}

func GetUserEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}

func GetUserRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

// IsStaff reports whether the caller may record offline payments.
func IsStaff(ctx context.Context) bool {
	role := GetUserRoleFromContext(ctx)
	return role == RoleAdmin || role == RoleStaff
}

func WithLocation(ctx context.Context, loc Location) context.Context {
	return context.WithValue(ctx, UserLocationKey, loc)
}

func GetLocationFromContext(ctx context.Context) (Location, bool) {
	loc, ok := ctx.Value(UserLocationKey).(Location)
	return loc, ok
}
