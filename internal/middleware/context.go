// AngelaMos | 2026
// context.go

package middleware

import (
	"context"
	"time"
)

type contextKey string

const (
	RequestIDKey  contextKey = "request_id"
	ActingUserKey contextKey = "acting_user"

	userSlotKey contextKey = "acting_user_slot"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is an authenticated principal as reported by the identity store.
type Identity struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL string
}

// Session is a freshly issued token pair for an identity.
type Session struct {
	Identity         Identity
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// ActingUser is resolved once per request by the guard and handed to
// handlers through the request context.
type ActingUser struct {
	ID       string
	Email    string
	FullName string
	Role     string
}

func WithActingUser(ctx context.Context, user *ActingUser) context.Context {
	if slot, ok := ctx.Value(userSlotKey).(**ActingUser); ok {
		*slot = user
	}
	return context.WithValue(ctx, ActingUserKey, user)
}

// withUserSlot lets middleware that runs before the guard learn who the
// request was served for.
func withUserSlot(ctx context.Context, slot **ActingUser) context.Context {
	return context.WithValue(ctx, userSlotKey, slot)
}

func GetActingUser(ctx context.Context) *ActingUser {
	if user, ok := ctx.Value(ActingUserKey).(*ActingUser); ok {
		return user
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if user := GetActingUser(ctx); user != nil {
		return user.ID
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if user := GetActingUser(ctx); user != nil {
		return user.Role
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
