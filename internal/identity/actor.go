// Package identity carries the authenticated actor of a request.
package identity

import (
	"context"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
)

// Actor is the user a session acts as
type Actor struct {
	ID          string
	DisplayName string
}

type ctxKey struct{}

// WithActor returns a copy of ctx carrying actor
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// FromContext returns the actor stored in ctx, or nil when unauthenticated
func FromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(ctxKey{}).(*Actor)
	return actor
}

// Require returns ErrUnauthenticated if actor is absent
func Require(actor *Actor) error {
	if actor == nil || actor.ID == "" {
		return apperr.ErrUnauthenticated
	}
	return nil
}
