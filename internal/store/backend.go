package store

import (
	"context"

	"github.com/samber/lo"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/feed"
	"github.com/anonto42/nano-midea/threads/internal/models"
	"github.com/anonto42/nano-midea/threads/internal/repositories"
)

// Backend is the production EntityStore: posts live in MongoDB, replies and
// like edges in PostgreSQL.
type Backend struct {
	Posts   repositories.PostRepository
	Replies repositories.ReplyRepository
	Likes   repositories.LikeEdgeRepository
}

var _ EntityStore = (*Backend)(nil)

func (b *Backend) CreatePost(ctx context.Context, post *models.Post) error {
	return b.Posts.CreatePost(ctx, post)
}

func (b *Backend) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return b.Posts.GetPostByID(ctx, id)
}

func (b *Backend) DeletePost(ctx context.Context, id string) error {
	return b.Posts.DeletePost(ctx, id)
}

func (b *Backend) ListPosts(ctx context.Context, policy feed.Policy) ([]models.Post, error) {
	return b.Posts.GetAllPosts(ctx, policy)
}

func (b *Backend) CreateReply(ctx context.Context, reply *models.Reply) error {
	return b.Replies.CreateReply(ctx, reply)
}

func (b *Backend) GetReply(ctx context.Context, id string) (*models.Reply, error) {
	return b.Replies.GetReplyByID(ctx, id)
}

func (b *Backend) DeleteReply(ctx context.Context, id string) error {
	return b.Replies.DeleteReply(ctx, id)
}

func (b *Backend) ListRepliesByPost(ctx context.Context, postID string) ([]models.Reply, error) {
	return b.Replies.GetRepliesByPostID(ctx, postID)
}

// InsertLikeEdge checks the target exists before inserting, since posts and
// edges live in different databases and no foreign key can do it.
func (b *Backend) InsertLikeEdge(ctx context.Context, userID, targetID string, kind models.TargetKind) error {
	if err := b.ensureTarget(ctx, targetID, kind); err != nil {
		return err
	}
	return b.Likes.CreateLikeEdge(ctx, &models.LikeEdge{
		UserID:     userID,
		TargetID:   targetID,
		TargetKind: kind,
	})
}

func (b *Backend) DeleteLikeEdge(ctx context.Context, userID, targetID string, kind models.TargetKind) (bool, error) {
	return b.Likes.DeleteLikeEdge(ctx, userID, targetID, kind)
}

func (b *Backend) DeleteLikeEdgesByTarget(ctx context.Context, targetID string, kind models.TargetKind) (int64, error) {
	return b.Likes.DeleteLikeEdgesByTarget(ctx, targetID, kind)
}

func (b *Backend) CountLikeEdges(ctx context.Context, targetID string, kind models.TargetKind) (int64, error) {
	return b.Likes.CountLikeEdges(ctx, targetID, kind)
}

func (b *Backend) ListLikedTargets(ctx context.Context, userID string, kind models.TargetKind) (map[string]struct{}, error) {
	ids, err := b.Likes.GetLikedTargetIDs(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return lo.Associate(ids, func(id string) (string, struct{}) {
		return id, struct{}{}
	}), nil
}

func (b *Backend) AdjustCounter(ctx context.Context, targetID string, kind models.TargetKind, delta int64) (int64, error) {
	switch kind {
	case models.TargetPost:
		return b.Posts.AdjustLikesCount(ctx, targetID, delta)
	case models.TargetReply:
		return b.Replies.AdjustLikesCount(ctx, targetID, delta)
	}
	return 0, apperr.Validation("unknown target kind %q", kind)
}

func (b *Backend) ReadCounter(ctx context.Context, targetID string, kind models.TargetKind) (int64, error) {
	switch kind {
	case models.TargetPost:
		post, err := b.Posts.GetPostByID(ctx, targetID)
		if err != nil {
			return 0, err
		}
		return post.LikeCount, nil
	case models.TargetReply:
		reply, err := b.Replies.GetReplyByID(ctx, targetID)
		if err != nil {
			return 0, err
		}
		return reply.LikeCount, nil
	}
	return 0, apperr.Validation("unknown target kind %q", kind)
}

func (b *Backend) SetCounter(ctx context.Context, targetID string, kind models.TargetKind, value int64) error {
	switch kind {
	case models.TargetPost:
		return b.Posts.SetLikesCount(ctx, targetID, value)
	case models.TargetReply:
		return b.Replies.SetLikesCount(ctx, targetID, value)
	}
	return apperr.Validation("unknown target kind %q", kind)
}

// RecountCounter is a single statement for replies. Post counters live in
// MongoDB apart from the edges, so they are counted and then written; a
// toggle between the two is repaired by the next pass.
func (b *Backend) RecountCounter(ctx context.Context, targetID string, kind models.TargetKind) (int64, int64, error) {
	switch kind {
	case models.TargetReply:
		return b.Replies.RecountLikes(ctx, targetID)
	case models.TargetPost:
		before, err := b.ReadCounter(ctx, targetID, kind)
		if err != nil {
			return 0, 0, err
		}
		edges, err := b.Likes.CountLikeEdges(ctx, targetID, kind)
		if err != nil {
			return 0, 0, err
		}
		if edges == before {
			return before, edges, nil
		}
		if err := b.Posts.SetLikesCount(ctx, targetID, edges); err != nil {
			return 0, 0, err
		}
		return before, edges, nil
	}
	return 0, 0, apperr.Validation("unknown target kind %q", kind)
}

func (b *Backend) ensureTarget(ctx context.Context, targetID string, kind models.TargetKind) error {
	_, err := b.ReadCounter(ctx, targetID, kind)
	return err
}
