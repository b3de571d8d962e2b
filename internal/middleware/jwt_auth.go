package middleware

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/threads/internal/identity"
	"github.com/anonto42/nano-midea/threads/internal/models"
)

// JWTAuthMiddleware checks HS256 tokens signed with secret. The token subject
// becomes the actor id. Requests without a token continue unauthenticated.
func JWTAuthMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok, err := bearerToken(c)
			if err != nil {
				return err
			}
			if !ok {
				return next(c)
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return secret, nil
			})
			if err != nil {
				if errors.Is(err, jwt.ErrSignatureInvalid) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			if !token.Valid || claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			name := claims.DisplayName()
			if name == "" {
				name = claims.Subject
			}
			withActor(c, &identity.Actor{ID: claims.Subject, DisplayName: name})
			return next(c)
		}
	}
}
