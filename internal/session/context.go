package session

import "context"

type contextKey int

const managerContextKey contextKey = iota

// NewContext returns a new context carrying the given session manager.
func NewContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerContextKey, m)
}

// FromContext extracts the session manager from the context, or nil if not present.
func FromContext(ctx context.Context) *Manager {
	m, _ := ctx.Value(managerContextKey).(*Manager)
	return m
}

// UserFromContext returns the signed-in user of the manager in ctx, or nil.
func UserFromContext(ctx context.Context) *User {
	if m := FromContext(ctx); m != nil {
		return m.User()
	}
	return nil
}
