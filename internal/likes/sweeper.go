package likes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/feed"
	"github.com/anonto42/nano-midea/threads/internal/metrics"
)

// Sweeper periodically reconciles every post and its replies
type Sweeper struct {
	Reconciler *Reconciler
	Interval   time.Duration
	Logger     *slog.Logger
}

// NewSweeper creates a Sweeper. A zero interval disables Run.
func NewSweeper(r *Reconciler, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{Reconciler: r, Interval: interval, Logger: logger.With("component", "likes.Sweeper")}
}

// Run sweeps on every tick until ctx is done. Sweep failures are logged and
// the loop keeps going.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.Interval <= 0 {
		s.Logger.Info("reconciliation sweeper disabled")
		return nil
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			corrected, err := s.SweepOnce(ctx)
			if err != nil {
				s.Logger.Error("reconciliation sweep failed", "error", err)
				continue
			}
			s.Logger.Debug("reconciliation sweep finished", "corrected", corrected)
		}
	}
}

// SweepOnce reconciles all posts once and returns how many targets were
// corrected. Posts deleted mid-sweep are skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	posts, err := s.Reconciler.Store.ListPosts(ctx, feed.Recency)
	if err != nil {
		return 0, err
	}

	corrected := 0
	for _, post := range posts {
		results, err := s.Reconciler.ReconcilePost(ctx, post.ID)
		corrected += lo.CountBy(results, Result.Corrected)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return corrected, err
		}
	}

	metrics.LastSweepCorrections.Set(float64(corrected))
	return corrected, nil
}
