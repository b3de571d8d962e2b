package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/threads/internal/identity"
)

// bearerToken extracts the token of an "Authorization: Bearer" header. ok is
// false when the header is absent.
func bearerToken(c echo.Context) (token string, ok bool, err error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", false, nil
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", true, echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
	}
	return parts[1], true, nil
}

func withActor(c echo.Context, actor *identity.Actor) {
	req := c.Request()
	c.SetRequest(req.WithContext(identity.WithActor(req.Context(), actor)))
}

// HeaderAuth trusts the X-Actor-ID and X-Actor-Name headers. It is meant for
// local development only.
func HeaderAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get("X-Actor-ID"))
			if id != "" {
				name := strings.TrimSpace(c.Request().Header.Get("X-Actor-Name"))
				if name == "" {
					name = id
				}
				withActor(c, &identity.Actor{ID: id, DisplayName: name})
			}
			return next(c)
		}
	}
}
