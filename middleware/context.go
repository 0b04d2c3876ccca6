package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/session-gateway/provider"
)

// Context key type to avoid collisions
type contextKey string

const (
	// UserKey is the context key for the authenticated user
	UserKey contextKey = "user"

	// SessionKey is the context key for the verified session claims
	SessionKey contextKey = "session"
)

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}

// GetUserFromContext retrieves the authenticated user from context
func GetUserFromContext(ctx context.Context) *provider.User {
	if val := ctx.Value(UserKey); val != nil {
		if user, ok := val.(*provider.User); ok {
			return user
		}
	}
	return nil
}

// IsAuthenticated reports whether a session middleware admitted the request.
// The provider may omit the user, so presence of the key is what counts.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := ctx.Value(UserKey).(*provider.User)
	return ok
}

// WithUser adds the authenticated user to the context
func WithUser(ctx context.Context, user *provider.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetSessionFromContext retrieves the verified session claims from context.
// It is nil on requests served right after a refresh.
func GetSessionFromContext(ctx context.Context) *provider.AuthenticateResult {
	if val := ctx.Value(SessionKey); val != nil {
		if session, ok := val.(*provider.AuthenticateResult); ok {
			return session
		}
	}
	return nil
}

// WithSession adds the verified session claims to the context
func WithSession(ctx context.Context, session *provider.AuthenticateResult) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}
