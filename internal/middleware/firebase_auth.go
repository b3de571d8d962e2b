package middleware

import (
	"context"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/threads/internal/identity"
)

// TokenVerifier is satisfied by *auth.Client
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthMiddleware verifies Firebase ID tokens and puts the actor into
// the request context. Requests without a token continue unauthenticated.
func FirebaseAuthMiddleware(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, ok, err := bearerToken(c)
			if err != nil {
				return err
			}
			if !ok {
				return next(c)
			}

			token, err := verifier.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			withActor(c, &identity.Actor{ID: token.UID, DisplayName: displayName(token)})
			return next(c)
		}
	}
}

func displayName(token *auth.Token) string {
	for _, claim := range []string{"name", "email"} {
		if v, ok := token.Claims[claim].(string); ok && v != "" {
			return v
		}
	}
	return token.UID
}
