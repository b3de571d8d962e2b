// Package likes implements the like toggle protocol and counter repair.
//
// A toggle is two independent store calls, the edge mutation and the counter
// adjustment, and either can fail on its own. The only guarantee offered is
// read-repair: after every toggle the displayed count and liked state are
// re-read from the store, never derived from a local delta. Reconcile is the
// stronger maintenance path that rewrites like_count from the edge count.
package likes

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/identity"
	"github.com/anonto42/nano-midea/threads/internal/metrics"
	"github.com/anonto42/nano-midea/threads/internal/models"
	"github.com/anonto42/nano-midea/threads/internal/session"
	"github.com/anonto42/nano-midea/threads/internal/store"
)

const (
	outcomeLiked    = "liked"
	outcomeMerged   = "merged"
	outcomeUnliked  = "unliked"
	outcomeNoop     = "noop"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
)

// State is the authoritative like state of a target as seen by one actor
type State struct {
	TargetID string            `json:"target_id"`
	Kind     models.TargetKind `json:"target_kind"`
	Liked    bool              `json:"liked"`
	Count    int64             `json:"like_count"`
}

// Reconciler owns the like edges and the denormalized like counters
type Reconciler struct {
	Store  store.EntityStore
	Logger *slog.Logger
}

// NewReconciler creates a Reconciler over st
func NewReconciler(st store.EntityStore, logger *slog.Logger) *Reconciler {
	return &Reconciler{Store: st, Logger: logger.With("component", "likes.Reconciler")}
}

// Toggle flips the session actor's like on a target.
//
// The session's liked snapshot decides the direction; it is fetched first if
// the session has none. A duplicate insert (the actor liked concurrently
// elsewhere) counts as success and leaves the counter alone. An unlike only
// decrements when an edge was actually removed. Either way the returned
// State comes from a fresh read of the counter and the liked set.
func (r *Reconciler) Toggle(ctx context.Context, s *session.Session, targetID string, kind models.TargetKind) (State, error) {
	actor := s.Actor()
	if err := identity.Require(actor); err != nil {
		metrics.LikeToggles.WithLabelValues(string(kind), outcomeRejected).Inc()
		return State{}, err
	}
	if _, err := models.ParseTargetKind(string(kind)); err != nil {
		return State{}, err
	}
	if targetID == "" {
		return State{}, apperr.Validation("target id is empty")
	}

	if !s.HasLikedSnapshot(kind) {
		liked, err := r.Store.ListLikedTargets(ctx, actor.ID, kind)
		if err != nil {
			return State{}, err
		}
		s.StoreLiked(kind, liked)
	}

	var (
		outcome string
		err     error
	)
	if s.IsLiked(kind, targetID) {
		outcome, err = r.unlike(ctx, actor.ID, targetID, kind)
	} else {
		outcome, err = r.like(ctx, actor.ID, targetID, kind)
	}
	if err != nil {
		outcome = outcomeFailed
	}
	metrics.LikeToggles.WithLabelValues(string(kind), outcome).Inc()

	state, refreshErr := r.Refresh(ctx, s, targetID, kind)
	if err != nil {
		if refreshErr != nil && !errors.Is(refreshErr, apperr.ErrNotFound) {
			r.Logger.Warn("refresh after failed toggle", "target_id", targetID, "kind", kind, "error", refreshErr)
		}
		return state, err
	}
	if refreshErr != nil {
		return State{}, refreshErr
	}

	r.Logger.Debug("like toggled", "actor", actor.ID, "target_id", targetID, "kind", kind, "outcome", outcome, "count", state.Count)
	return state, nil
}

func (r *Reconciler) like(ctx context.Context, userID, targetID string, kind models.TargetKind) (string, error) {
	err := r.Store.InsertLikeEdge(ctx, userID, targetID, kind)
	if errors.Is(err, apperr.ErrConflict) {
		metrics.LikeConflictsMerged.WithLabelValues(string(kind)).Inc()
		return outcomeMerged, nil
	}
	if err != nil {
		return "", err
	}

	if _, err := r.Store.AdjustCounter(ctx, targetID, kind, 1); err != nil {
		return "", err
	}
	return outcomeLiked, nil
}

func (r *Reconciler) unlike(ctx context.Context, userID, targetID string, kind models.TargetKind) (string, error) {
	removed, err := r.Store.DeleteLikeEdge(ctx, userID, targetID, kind)
	if err != nil {
		return "", err
	}
	if !removed {
		return outcomeNoop, nil
	}

	if _, err := r.Store.AdjustCounter(ctx, targetID, kind, -1); err != nil {
		return "", err
	}
	return outcomeUnliked, nil
}

// Refresh re-reads the target's counter and the actor's liked set
// concurrently and stores both in the session. A target that no longer
// exists is dropped from the session and reported as apperr.ErrNotFound.
func (r *Reconciler) Refresh(ctx context.Context, s *session.Session, targetID string, kind models.TargetKind) (State, error) {
	var (
		count int64
		liked map[string]struct{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = r.Store.ReadCounter(gctx, targetID, kind)
		return err
	})
	if actor := s.Actor(); actor != nil {
		g.Go(func() error {
			var err error
			liked, err = r.Store.ListLikedTargets(gctx, actor.ID, kind)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.ForgetTarget(kind, targetID)
		}
		return State{TargetID: targetID, Kind: kind}, err
	}

	if s.Actor() != nil {
		s.StoreLiked(kind, liked)
	}
	s.StoreCount(kind, targetID, count)

	_, isLiked := liked[targetID]
	return State{TargetID: targetID, Kind: kind, Liked: isLiked, Count: count}, nil
}
