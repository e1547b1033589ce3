// Package tenant defines the per-request isolation scope.
//
// Every distributor ("admin") owns a partition of the data. A Scope value is
// resolved once per request by the auth middleware and passed explicitly into
// every repository call; repositories filter every read and stamp every write
// with it. There is no ambient current-tenant state anywhere in the codebase.
package tenant

import (
	"context"

	"lpg-backend/internal/apperr"
)

// Scope identifies the owning tenant for all reads and writes.
type Scope struct {
	AdminID int
}

// Valid reports whether the scope points at a real tenant.
func (s Scope) Valid() bool {
	return s.AdminID > 0
}

type contextKey string

const scopeKey contextKey = "tenant_scope"

// WithScope returns a context carrying the tenant scope.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// FromContext extracts the tenant scope placed by the auth middleware.
func FromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey).(Scope)
	return s, ok && s.Valid()
}

// Require extracts the tenant scope or fails with a forbidden error. No core
// operation may execute unscoped.
func Require(ctx context.Context) (Scope, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return Scope{}, apperr.Forbiddenf("no tenant scope on request")
	}
	return s, nil
}
