package session

import (
	"context"
	"log/slog"

	"github.com/anonto42/nano-midea/threads/internal/feed"
	"github.com/anonto42/nano-midea/threads/internal/metrics"
	"github.com/anonto42/nano-midea/threads/internal/models"
	"github.com/anonto42/nano-midea/threads/internal/store"
	"github.com/anonto42/nano-midea/threads/internal/thread"
)

// Views recomputes the derived views a session displays
type Views struct {
	Store  store.EntityStore
	Logger *slog.Logger
}

// NewViews creates Views over st
func NewViews(st store.EntityStore, logger *slog.Logger) *Views {
	return &Views{Store: st, Logger: logger.With("component", "session.Views")}
}

// Thread returns the session's forest of postID, building it on a cache miss
func (v *Views) Thread(ctx context.Context, s *Session, postID string) (*thread.Forest, error) {
	if f, ok := s.Thread(postID); ok {
		return f, nil
	}
	return v.RefreshThread(ctx, s, postID)
}

// RefreshThread re-reads the replies of postID and rebuilds its forest.
// Reply counters in the session are replaced with the values just read.
func (v *Views) RefreshThread(ctx context.Context, s *Session, postID string) (*thread.Forest, error) {
	post, err := v.Store.GetPost(ctx, postID)
	if err != nil {
		s.EvictThread(postID)
		return nil, err
	}
	replies, err := v.Store.ListRepliesByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	f := thread.Build(postID, replies)
	if promoted := f.Promoted(); len(promoted) > 0 {
		metrics.OrphansPromoted.Add(float64(len(promoted)))
		v.Logger.Warn("thread has orphaned replies", "post_id", postID, "promoted", len(promoted))
	}

	s.StoreCount(models.TargetPost, post.ID, post.LikeCount)
	for _, r := range replies {
		s.StoreCount(models.TargetReply, r.ID, r.LikeCount)
	}
	s.StoreThread(f)
	return f, nil
}

// Feed returns the session's feed under policy, re-reading it when stale
func (v *Views) Feed(ctx context.Context, s *Session, policy feed.Policy) ([]models.Post, error) {
	if posts, ok := s.Feed(policy); ok {
		return posts, nil
	}
	return v.RefreshFeed(ctx, s, policy)
}

// RefreshFeed re-reads and re-ranks the feed
func (v *Views) RefreshFeed(ctx context.Context, s *Session, policy feed.Policy) ([]models.Post, error) {
	posts, err := v.Store.ListPosts(ctx, policy)
	if err != nil {
		return nil, err
	}
	ranked := feed.Rank(posts, policy)
	for _, p := range ranked {
		s.StoreCount(models.TargetPost, p.ID, p.LikeCount)
	}
	s.StoreFeed(ranked, policy)
	return ranked, nil
}

// RefreshLiked re-reads the actor's liked set for kind. Unauthenticated
// sessions get an empty snapshot without a store call.
func (v *Views) RefreshLiked(ctx context.Context, s *Session, kind models.TargetKind) (map[string]struct{}, error) {
	actor := s.Actor()
	if actor == nil {
		s.StoreLiked(kind, nil)
		return map[string]struct{}{}, nil
	}
	liked, err := v.Store.ListLikedTargets(ctx, actor.ID, kind)
	if err != nil {
		return nil, err
	}
	s.StoreLiked(kind, liked)
	return liked, nil
}
