package httputil

import (
	"context"
	"net/http"
)

// contextKey is unexported so no other package can collide with our values.
type contextKey int

const userIDKey contextKey = iota

// WithUserID returns the request with the authenticated user id attached.
// The auth middleware is the only writer; handlers read it back through
// GetUserID.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// GetUserID returns the authenticated user id, or "" on an unauthenticated
// request (only /health reaches handlers without one).
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}
