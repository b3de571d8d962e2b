package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/threads/internal/identity"
	"github.com/anonto42/nano-midea/threads/internal/session"
)

// Sessions opens the session a request acts in. HTTP is stateless, so every
// request starts from an empty session for its actor and reads the store.
type Sessions struct {
	TreeCacheSize int
}

func (s Sessions) For(c echo.Context) *session.Session {
	return session.New(identity.FromContext(c.Request().Context()), s.TreeCacheSize)
}
