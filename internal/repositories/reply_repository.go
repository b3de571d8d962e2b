package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/models"
)

// ReplyRepository defines the interface for reply data operations
type ReplyRepository interface {
	CreateReply(ctx context.Context, reply *models.Reply) error
	GetReplyByID(ctx context.Context, id string) (*models.Reply, error)
	GetRepliesByPostID(ctx context.Context, postID string) ([]models.Reply, error)
	DeleteReply(ctx context.Context, id string) error
	AdjustLikesCount(ctx context.Context, replyID string, delta int64) (int64, error)
	SetLikesCount(ctx context.Context, replyID string, value int64) error
	RecountLikes(ctx context.Context, replyID string) (before, after int64, err error)
}

// PostgresReplyRepository implements ReplyRepository for PostgreSQL
type PostgresReplyRepository struct {
	db *gorm.DB
}

// NewPostgresReplyRepository creates a new PostgresReplyRepository
func NewPostgresReplyRepository(db *gorm.DB) *PostgresReplyRepository {
	return &PostgresReplyRepository{db: db}
}

// CreateReply creates a new reply in PostgreSQL
func (r *PostgresReplyRepository) CreateReply(ctx context.Context, reply *models.Reply) error {
	return apperr.Transient("insert reply", r.db.WithContext(ctx).Create(reply).Error)
}

// GetReplyByID retrieves a reply by ID from PostgreSQL
func (r *PostgresReplyRepository) GetReplyByID(ctx context.Context, id string) (*models.Reply, error) {
	var reply models.Reply
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reply).Error; err != nil {
		return nil, gormErr("get reply", "reply", id, err)
	}
	return &reply, nil
}

// GetRepliesByPostID retrieves all replies of a post, oldest first
func (r *PostgresReplyRepository) GetRepliesByPostID(ctx context.Context, postID string) ([]models.Reply, error) {
	replies := []models.Reply{}
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, apperr.Transient("list replies", err)
	}
	return replies, nil
}

// DeleteReply deletes a single reply row by ID
func (r *PostgresReplyRepository) DeleteReply(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Reply{})
	if res.Error != nil {
		return apperr.Transient("delete reply", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("reply", id)
	}
	return nil
}

// AdjustLikesCount applies delta in a single UPDATE clamped with GREATEST
func (r *PostgresReplyRepository) AdjustLikesCount(ctx context.Context, replyID string, delta int64) (int64, error) {
	var reply models.Reply
	res := r.db.WithContext(ctx).
		Model(&reply).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "like_count"}}}).
		Where("id = ?", replyID).
		UpdateColumn("like_count", gorm.Expr("GREATEST(like_count + ?, 0)", delta))
	if res.Error != nil {
		return 0, apperr.Transient("adjust reply likes", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperr.NotFound("reply", replyID)
	}
	return reply.LikeCount, nil
}

// SetLikesCount overwrites like_count
func (r *PostgresReplyRepository) SetLikesCount(ctx context.Context, replyID string, value int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Reply{}).
		Where("id = ?", replyID).
		UpdateColumn("like_count", max(value, 0))
	if res.Error != nil {
		return apperr.Transient("set reply likes", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("reply", replyID)
	}
	return nil
}

// recountReplyLikes sets like_count from the edge table and reports the old
// and new values, all in one statement.
const recountReplyLikes = `
UPDATE replies AS r
SET like_count = (
	SELECT count(*) FROM like_edges AS e
	WHERE e.target_id = r.id AND e.target_kind = ?
)
FROM (SELECT id, like_count FROM replies WHERE id = ?) AS old
WHERE r.id = old.id
RETURNING old.like_count AS before, r.like_count AS after`

// RecountLikes rewrites like_count to the number of like edges of the reply.
// Edges and counter share the database, so no toggle can land between the
// count and the write.
func (r *PostgresReplyRepository) RecountLikes(ctx context.Context, replyID string) (int64, int64, error) {
	var row struct {
		Before int64
		After  int64
	}
	res := r.db.WithContext(ctx).Raw(recountReplyLikes, models.TargetReply, replyID).Scan(&row)
	if res.Error != nil {
		return 0, 0, apperr.Transient("recount reply likes", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, 0, apperr.NotFound("reply", replyID)
	}
	return row.Before, row.After, nil
}

func gormErr(op, entity, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return apperr.Transient(op, err)
}
