// Package store defines the Entity Store boundary the engine talks to, and
// its adapters.
//
// The engine never reads a counter, modifies it locally and writes it back.
// Every change goes through AdjustCounter, which adapters implement as a
// single atomic statement that clamps at zero. Edge uniqueness is enforced
// by the adapter as well: InsertLikeEdge reports apperr.ErrConflict when the
// (user, target, kind) edge already exists.
package store

import (
	"context"

	"github.com/anonto42/nano-midea/threads/internal/feed"
	"github.com/anonto42/nano-midea/threads/internal/models"
)

// EntityStore is the durable storage for posts, replies and like edges.
//
// Errors are classified with the apperr kinds: missing ids are
// apperr.ErrNotFound, driver failures are apperr.ErrTransient.
type EntityStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, policy feed.Policy) ([]models.Post, error)

	CreateReply(ctx context.Context, reply *models.Reply) error
	GetReply(ctx context.Context, id string) (*models.Reply, error)
	DeleteReply(ctx context.Context, id string) error
	// ListRepliesByPost returns every reply of the post ordered by creation time, ascending.
	ListRepliesByPost(ctx context.Context, postID string) ([]models.Reply, error)

	InsertLikeEdge(ctx context.Context, userID, targetID string, kind models.TargetKind) error
	// DeleteLikeEdge is idempotent. removed reports whether an edge existed.
	DeleteLikeEdge(ctx context.Context, userID, targetID string, kind models.TargetKind) (removed bool, err error)
	DeleteLikeEdgesByTarget(ctx context.Context, targetID string, kind models.TargetKind) (int64, error)
	CountLikeEdges(ctx context.Context, targetID string, kind models.TargetKind) (int64, error)
	ListLikedTargets(ctx context.Context, userID string, kind models.TargetKind) (map[string]struct{}, error)

	// AdjustCounter atomically adds delta to the target's like_count, clamping
	// at zero, and returns the new value.
	AdjustCounter(ctx context.Context, targetID string, kind models.TargetKind, delta int64) (int64, error)
	ReadCounter(ctx context.Context, targetID string, kind models.TargetKind) (int64, error)
	// SetCounter overwrites like_count. Only maintenance and fixtures use it.
	SetCounter(ctx context.Context, targetID string, kind models.TargetKind, value int64) error
	// RecountCounter sets like_count to the target's like edge count and
	// returns the previous and new values.
	RecountCounter(ctx context.Context, targetID string, kind models.TargetKind) (before, after int64, err error)
}
