package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/threads/internal/identity"
	"github.com/anonto42/nano-midea/threads/pkg/media"
)

// MediaHandler accepts attachment uploads
type MediaHandler struct {
	store media.Store
}

// NewMediaHandler creates a MediaHandler; a nil store disables uploads
func NewMediaHandler(st media.Store) *MediaHandler {
	return &MediaHandler{store: st}
}

// RegisterMediaRoutes registers media routes
func (h *MediaHandler) RegisterMediaRoutes(g *echo.Group) {
	g.POST("/media", h.Upload)
}

// Upload stores the multipart "file" field and returns its media reference
func (h *MediaHandler) Upload(c echo.Context) error {
	actor := identity.FromContext(c.Request().Context())
	if err := identity.Require(actor); err != nil {
		return httpError(err)
	}
	if h.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "media uploads are not configured")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	if fh.Size > media.MaxUploadSize {
		return echo.NewHTTPError(http.StatusBadRequest, "file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read upload")
	}
	defer f.Close()

	ref, err := h.store.Put(c.Request().Context(), actor.ID, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusCreated, echo.Map{"media_ref": ref})
}
