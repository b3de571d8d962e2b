package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/anonto42/nano-midea/threads/internal/likes"
	"github.com/anonto42/nano-midea/threads/internal/router"
	"github.com/anonto42/nano-midea/threads/internal/store"
	"github.com/anonto42/nano-midea/threads/pkg/config"
	"github.com/anonto42/nano-midea/threads/pkg/logging"
	"github.com/anonto42/nano-midea/threads/pkg/media"
	"github.com/anonto42/nano-midea/threads/validators"
)

func main() {
	cfg := config.Load()

	logger, err := logging.Init(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var st store.EntityStore
	switch cfg.StoreDriver {
	case config.StoreBackend:
		db, err := config.InitDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.CloseDB()

		st, err = router.NewBackendStore(ctx, db)
		if err != nil {
			return err
		}
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		st = store.NewMemory()
	default:
		return errors.New("STORE_DRIVER must be memory or backend")
	}

	auth, err := router.AuthMiddleware(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var mediaStore media.Store
	if cfg.Media.Enabled() {
		mediaStore = media.NewS3Store(cfg.Media)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, logger)

	reconciler := router.SetupRoutes(e, router.Deps{
		Store:         st,
		Auth:          auth,
		Media:         mediaStore,
		Logger:        logger,
		TreeCacheSize: cfg.SessionTreeCache,
		RateLimit:     cfg.RateLimit,
		RateBurst:     cfg.RateBurst,
	})
	sweeper := likes.NewSweeper(reconciler, cfg.ReconcileInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("listening", "port", cfg.Port, "store", cfg.StoreDriver, "auth", cfg.AuthMode)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
