package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/threads/internal/likes"
	"github.com/anonto42/nano-midea/threads/internal/models"
)

// LikeHandler handles like toggles on posts and replies
type LikeHandler struct {
	reconciler *likes.Reconciler
	sessions   Sessions
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(reconciler *likes.Reconciler, sessions Sessions) *LikeHandler {
	return &LikeHandler{reconciler: reconciler, sessions: sessions}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/likes/:kind/:id", h.Toggle)
}

// Toggle likes or unlikes the target and returns its refreshed state
func (h *LikeHandler) Toggle(c echo.Context) error {
	kind, err := models.ParseTargetKind(c.Param("kind"))
	if err != nil {
		return httpError(err)
	}

	state, err := h.reconciler.Toggle(c.Request().Context(), h.sessions.For(c), c.Param("id"), kind)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, state)
}
