package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/threads/internal/coordinator"
	"github.com/anonto42/nano-midea/threads/internal/models"
	"github.com/anonto42/nano-midea/threads/internal/session"
	"github.com/anonto42/nano-midea/threads/internal/thread"
)

// ReplyHandler handles HTTP requests related to replies
type ReplyHandler struct {
	coordinator *coordinator.Coordinator
	views       *session.Views
	sessions    Sessions
}

// NewReplyHandler creates a new ReplyHandler
func NewReplyHandler(coord *coordinator.Coordinator, views *session.Views, sessions Sessions) *ReplyHandler {
	return &ReplyHandler{coordinator: coord, views: views, sessions: sessions}
}

// RegisterReplyRoutes registers reply-related routes
func (h *ReplyHandler) RegisterReplyRoutes(g *echo.Group) {
	g.GET("/posts/:id/replies", h.GetThread)
	g.POST("/posts/:id/replies", h.CreateReply)
	g.DELETE("/replies/:id", h.DeleteReply)
}

// ThreadResponse is the nested reply tree of a post
type ThreadResponse struct {
	PostID   string         `json:"post_id"`
	Count    int            `json:"count"`
	MaxDepth int            `json:"max_depth"`
	Replies  []*thread.View `json:"replies"`
	Liked    []string       `json:"liked_reply_ids"`
}

// GetThread returns the reply forest of a post
func (h *ReplyHandler) GetThread(c echo.Context) error {
	ctx := c.Request().Context()
	s := h.sessions.For(c)

	f, err := h.views.RefreshThread(ctx, s, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	liked, err := h.views.RefreshLiked(ctx, s, models.TargetReply)
	if err != nil {
		return httpError(err)
	}

	var likedIDs []string
	f.Walk(func(n *thread.Node) bool {
		if _, ok := liked[n.Reply.ID]; ok {
			likedIDs = append(likedIDs, n.Reply.ID)
		}
		return true
	})

	return respond(c, http.StatusOK, ThreadResponse{
		PostID:   f.PostID,
		Count:    f.Len(),
		MaxDepth: f.MaxDepth(),
		Replies:  f.Views(),
		Liked:    likedIDs,
	})
}

// CreateReply adds a reply to a post
func (h *ReplyHandler) CreateReply(c echo.Context) error {
	var req models.CreateReplyRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	reply, err := h.coordinator.CreateReply(c.Request().Context(), h.sessions.For(c), c.Param("id"), req.Body, req.ParentReplyID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusCreated, reply)
}

// DeleteReply deletes a reply and everything under it
func (h *ReplyHandler) DeleteReply(c echo.Context) error {
	if err := h.coordinator.DeleteReply(c.Request().Context(), h.sessions.For(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
