package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/anonto42/nano-midea/threads/internal/feed"
	"github.com/anonto42/nano-midea/threads/internal/models"
	"github.com/anonto42/nano-midea/threads/internal/session"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// FeedHandler serves the ranked feed
type FeedHandler struct {
	views    *session.Views
	sessions Sessions
}

func NewFeedHandler(views *session.Views, sessions Sessions) *FeedHandler {
	return &FeedHandler{views: views, sessions: sessions}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// FeedPost is a post with the caller's like flag
type FeedPost struct {
	models.Post
	IsLiked bool `json:"is_liked"`
}

// GetFeed returns one page of the feed ranked by the policy query parameter
func (h *FeedHandler) GetFeed(c echo.Context) error {
	policy, err := feed.ParsePolicy(c.QueryParam("policy"))
	if err != nil {
		return httpError(err)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	ctx := c.Request().Context()
	s := h.sessions.For(c)

	posts, err := h.views.RefreshFeed(ctx, s, policy)
	if err != nil {
		return httpError(err)
	}
	liked, err := h.views.RefreshLiked(ctx, s, models.TargetPost)
	if err != nil {
		return httpError(err)
	}

	items := lo.Map(feed.Page(posts, page, limit), func(p models.Post, _ int) FeedPost {
		_, isLiked := liked[p.ID]
		return FeedPost{Post: p, IsLiked: isLiked}
	})
	totalPages := feed.TotalPages(len(posts), limit)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts":  items,
			"policy": policy,
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      len(posts),
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}
