package middleware

import (
	"context"
	"net/http"
)

// Identity headers injected by the auth gateway in front of this service.
// Authentication itself is out of scope here; the gateway has already
// verified the token and forwards the subject and role.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
)

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// Identity copies the gateway identity headers into the request context.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if uid := r.Header.Get(HeaderUserID); uid != "" {
				ctx = context.WithValue(ctx, UserIDKey, uid)
			}
			if role := r.Header.Get(HeaderUserRole); role != "" {
				ctx = context.WithValue(ctx, UserRoleKey, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated subject, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}

func UserRole(ctx context.Context) string {
	if v, ok := ctx.Value(UserRoleKey).(string); ok {
		return v
	}
	return ""
}

func IsAdmin(ctx context.Context) bool {
	return UserRole(ctx) == RoleAdmin
}
