package context

import (
	"context"

	"github.com/google/uuid"
	"github.com/piresc/dogwalker/internal/pkg/models"
)

// ContextKey represents a key for context values
type ContextKey string

const (
	// RequestIDKey is the key for request ID in context
	RequestIDKey ContextKey = "request_id"
	// AuthKey is the key for the resolved caller in context
	AuthKey ContextKey = "auth"
)

// Auth is the caller resolved by the authorization gate. It is only ever
// built from a verified credential plus a fresh identity lookup.
type Auth struct {
	SubjectID string
	Identity  models.Identity
}

// HasRole reports whether the caller holds one of roles
func (a *Auth) HasRole(roles ...models.Role) bool {
	if a == nil {
		return false
	}
	for _, role := range roles {
		if a.Identity.Role == role {
			return true
		}
	}
	return false
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithAuth stores the resolved caller in the context
func WithAuth(ctx context.Context, auth *Auth) context.Context {
	return context.WithValue(ctx, AuthKey, auth)
}

// AuthFromContext returns the resolved caller, if any
func AuthFromContext(ctx context.Context) (*Auth, bool) {
	auth, ok := ctx.Value(AuthKey).(*Auth)
	return auth, ok && auth != nil
}
