package models

import "time"

// Reply is a comment attached to a post, or to another reply of the same post
type Reply struct {
	ID                string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID            string    `json:"post_id" gorm:"index;not null"` // MongoDB ObjectID hex of the owning post
	ParentReplyID     *string   `json:"parent_reply_id,omitempty" gorm:"index;type:varchar(36)"`
	AuthorID          string    `json:"author_id" gorm:"index;not null"`
	AuthorDisplayName string    `json:"author_display_name"`
	Body              string    `json:"body" gorm:"type:text;not null"`
	LikeCount         int64     `json:"like_count" gorm:"not null;default:0"`
	CreatedAt         time.Time `json:"created_at" gorm:"index"`
}

// IsRoot reports whether the reply hangs directly off the post
func (r *Reply) IsRoot() bool {
	return r.ParentReplyID == nil
}

// CreateReplyRequest defines the request body for creating a new reply
type CreateReplyRequest struct {
	Body          string  `json:"body" validate:"required,max=4096"`
	ParentReplyID *string `json:"parent_reply_id,omitempty" validate:"omitempty,min=1"`
}
