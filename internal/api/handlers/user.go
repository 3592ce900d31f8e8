package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser stores the resolved dashboard user on the context
func WithUser(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userContextKey, id)
}

// UserID returns the dashboard user from the request context
func UserID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(userContextKey).(uuid.UUID)
	return id, ok
}

// requireUser resolves the user or renders a 401
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := UserID(r)
	if !ok {
		RenderError(w, http.StatusUnauthorized, "Missing X-User-ID")
	}
	return id, ok
}
