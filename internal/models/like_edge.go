package models

import (
	"time"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
)

// TargetKind is the kind of entity a like points at
type TargetKind string

const (
	TargetPost  TargetKind = "post"
	TargetReply TargetKind = "reply"
)

// ParseTargetKind converts a raw string into a TargetKind
func ParseTargetKind(s string) (TargetKind, error) {
	switch TargetKind(s) {
	case TargetPost, TargetReply:
		return TargetKind(s), nil
	}
	return "", apperr.Validation("unknown target kind %q", s)
}

// LikeEdge is a single user's like of a post or reply.
// At most one edge exists per (user, target, kind).
type LikeEdge struct {
	UserID     string     `json:"user_id" gorm:"primaryKey;type:varchar(128);uniqueIndex:idx_like_edge"`
	TargetID   string     `json:"target_id" gorm:"primaryKey;type:varchar(64);uniqueIndex:idx_like_edge;index:idx_like_target"`
	TargetKind TargetKind `json:"target_kind" gorm:"primaryKey;type:varchar(10);uniqueIndex:idx_like_edge;index:idx_like_target"`
	CreatedAt  time.Time  `json:"created_at"`
}
