package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/coordinator"
	"github.com/anonto42/nano-midea/threads/internal/identity"
	"github.com/anonto42/nano-midea/threads/internal/likes"
	"github.com/anonto42/nano-midea/threads/internal/models"
	"github.com/anonto42/nano-midea/threads/internal/store"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	coordinator *coordinator.Coordinator
	reconciler  *likes.Reconciler
	store       store.EntityStore
	sessions    Sessions
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(coord *coordinator.Coordinator, reconciler *likes.Reconciler, st store.EntityStore, sessions Sessions) *PostHandler {
	return &PostHandler{
		coordinator: coord,
		reconciler:  reconciler,
		store:       st,
		sessions:    sessions,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.POST("/posts/:id/reconcile", h.ReconcilePost)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	post, err := h.coordinator.CreatePost(c.Request().Context(), h.sessions.For(c), req.Body, req.MediaRef)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusCreated, post)
}

// GetPost returns a post with the caller's like state
func (h *PostHandler) GetPost(c echo.Context) error {
	ctx := c.Request().Context()
	s := h.sessions.For(c)

	post, err := h.store.GetPost(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	isLiked := false
	if actor := s.Actor(); actor != nil {
		liked, err := h.store.ListLikedTargets(ctx, actor.ID, models.TargetPost)
		if err != nil {
			return httpError(err)
		}
		_, isLiked = liked[post.ID]
	}
	return respond(c, http.StatusOK, FeedPost{Post: *post, IsLiked: isLiked})
}

// DeletePost deletes a post with its replies and likes
func (h *PostHandler) DeletePost(c echo.Context) error {
	if err := h.coordinator.DeletePost(c.Request().Context(), h.sessions.For(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ReconcilePost recomputes the like counters of a post and its replies.
// Only the post's author may trigger it.
func (h *PostHandler) ReconcilePost(c echo.Context) error {
	ctx := c.Request().Context()
	actor := identity.FromContext(ctx)
	if err := identity.Require(actor); err != nil {
		return httpError(err)
	}

	post, err := h.store.GetPost(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if post.AuthorID != actor.ID {
		return httpError(apperr.Forbidden("only the author can reconcile post %s", post.ID))
	}

	results, err := h.reconciler.ReconcilePost(ctx, post.ID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, results)
}
