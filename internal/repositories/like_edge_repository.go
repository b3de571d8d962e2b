package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/models"
)

// LikeEdgeRepository defines the interface for like edge operations
type LikeEdgeRepository interface {
	CreateLikeEdge(ctx context.Context, edge *models.LikeEdge) error
	DeleteLikeEdge(ctx context.Context, userID, targetID string, kind models.TargetKind) (bool, error)
	DeleteLikeEdgesByTarget(ctx context.Context, targetID string, kind models.TargetKind) (int64, error)
	CountLikeEdges(ctx context.Context, targetID string, kind models.TargetKind) (int64, error)
	GetLikedTargetIDs(ctx context.Context, userID string, kind models.TargetKind) ([]string, error)
}

type postgresLikeEdgeRepository struct {
	db *gorm.DB
}

func NewPostgresLikeEdgeRepository(db *gorm.DB) LikeEdgeRepository {
	return &postgresLikeEdgeRepository{db: db}
}

// CreateLikeEdge relies on the idx_like_edge unique index. A duplicate insert
// affects no rows and is reported as apperr.ErrConflict.
func (r *postgresLikeEdgeRepository) CreateLikeEdge(ctx context.Context, edge *models.LikeEdge) error {
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now()
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(edge)
	if res.Error != nil {
		return apperr.Transient("insert like edge", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrConflict
	}
	return nil
}

func (r *postgresLikeEdgeRepository) DeleteLikeEdge(ctx context.Context, userID, targetID string, kind models.TargetKind) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND target_id = ? AND target_kind = ?", userID, targetID, kind).
		Delete(&models.LikeEdge{})
	if res.Error != nil {
		return false, apperr.Transient("delete like edge", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *postgresLikeEdgeRepository) DeleteLikeEdgesByTarget(ctx context.Context, targetID string, kind models.TargetKind) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("target_id = ? AND target_kind = ?", targetID, kind).
		Delete(&models.LikeEdge{})
	if res.Error != nil {
		return 0, apperr.Transient("delete like edges", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *postgresLikeEdgeRepository) CountLikeEdges(ctx context.Context, targetID string, kind models.TargetKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LikeEdge{}).
		Where("target_id = ? AND target_kind = ?", targetID, kind).
		Count(&count).Error
	return count, apperr.Transient("count like edges", err)
}

func (r *postgresLikeEdgeRepository) GetLikedTargetIDs(ctx context.Context, userID string, kind models.TargetKind) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.LikeEdge{}).
		Where("user_id = ? AND target_kind = ?", userID, kind).
		Pluck("target_id", &ids).Error
	if err != nil {
		return nil, apperr.Transient("list liked targets", err)
	}
	return ids, nil
}
