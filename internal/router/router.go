package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/anonto42/nano-midea/threads/internal/coordinator"
	"github.com/anonto42/nano-midea/threads/internal/handlers"
	"github.com/anonto42/nano-midea/threads/internal/identity"
	"github.com/anonto42/nano-midea/threads/internal/likes"
	"github.com/anonto42/nano-midea/threads/internal/middleware"
	"github.com/anonto42/nano-midea/threads/internal/repositories"
	"github.com/anonto42/nano-midea/threads/internal/session"
	"github.com/anonto42/nano-midea/threads/internal/store"
	"github.com/anonto42/nano-midea/threads/pkg/config"
	"github.com/anonto42/nano-midea/threads/pkg/firebase"
	"github.com/anonto42/nano-midea/threads/pkg/media"
)

// Deps are the collaborators the routes are built from
type Deps struct {
	Store  store.EntityStore
	Auth   echo.MiddlewareFunc
	Media  media.Store
	Logger *slog.Logger

	TreeCacheSize int
	RateLimit     float64
	RateBurst     int
}

// SetupRoutes configures all application routes and injects dependencies.
// It returns the like reconciler so the caller can run its sweeper.
func SetupRoutes(e *echo.Echo, d Deps) *likes.Reconciler {
	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	views := session.NewViews(d.Store, d.Logger)
	coord := coordinator.New(d.Store, views, d.Logger)
	reconciler := likes.NewReconciler(d.Store, d.Logger)
	sessions := handlers.Sessions{TreeCacheSize: d.TreeCacheSize}

	api := e.Group("/api/v1")
	if d.Auth != nil {
		api.Use(d.Auth)
	}
	if d.RateLimit > 0 {
		api.Use(rateLimiter(d.RateLimit, d.RateBurst))
	}

	handlers.NewFeedHandler(views, sessions).RegisterFeedRoutes(api)
	handlers.NewPostHandler(coord, reconciler, d.Store, sessions).RegisterPostRoutes(api)
	handlers.NewReplyHandler(coord, views, sessions).RegisterReplyRoutes(api)
	handlers.NewLikeHandler(reconciler, sessions).RegisterLikeRoutes(api)
	handlers.NewMediaHandler(d.Media).RegisterMediaRoutes(api)

	d.Logger.Info("routes configured", "media", d.Media != nil, "auth", d.Auth != nil)
	return reconciler
}

// rateLimiter limits each actor, or each client IP when unauthenticated
func rateLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     max(burst, 1),
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if actor := identity.FromContext(c.Request().Context()); actor != nil {
				return "actor:" + actor.ID, nil
			}
			return "ip:" + c.RealIP(), nil
		},
	})
}

// NewBackendStore wires the Mongo post repository and the Postgres reply and
// like edge repositories into one EntityStore.
func NewBackendStore(ctx context.Context, db *config.DB) (store.EntityStore, error) {
	posts := repositories.NewMongoPostRepository(db.MongoDB)
	if err := posts.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create post indexes: %w", err)
	}

	return &store.Backend{
		Posts:   posts,
		Replies: repositories.NewPostgresReplyRepository(db.Postgres),
		Likes:   repositories.NewPostgresLikeEdgeRepository(db.Postgres),
	}, nil
}

// AuthMiddleware builds the identity middleware selected by AUTH_MODE
func AuthMiddleware(ctx context.Context, cfg *config.Config, logger *slog.Logger) (echo.MiddlewareFunc, error) {
	switch cfg.AuthMode {
	case config.AuthFirebase:
		verifier, err := firebase.NewTokenVerifier(ctx, firebase.Options{
			CredentialsPath: cfg.FirebaseCredentialsPath,
			ProjectID:       cfg.FirebaseProjectID,
		}, logger)
		if err != nil {
			return nil, err
		}
		return middleware.FirebaseAuthMiddleware(verifier), nil
	case config.AuthJWT:
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET must be set when AUTH_MODE=%s", config.AuthJWT)
		}
		return middleware.JWTAuthMiddleware([]byte(cfg.JWTSecret)), nil
	case config.AuthNone:
		if cfg.Env == "production" {
			return nil, fmt.Errorf("AUTH_MODE=%s is not allowed in production", config.AuthNone)
		}
		return middleware.HeaderAuth(), nil
	}
	return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
}
