package models

import (
	"time"
)

// Post is a top-level feed item. Stored in MongoDB.
type Post struct {
	ID                string    `json:"id" bson:"_id"`
	AuthorID          string    `json:"author_id" bson:"author_id"` // Identity UID of the author
	AuthorDisplayName string    `json:"author_display_name" bson:"author_display_name"`
	Body              string    `json:"body" bson:"body"`
	MediaRef          *string   `json:"media_ref,omitempty" bson:"media_ref,omitempty"`
	LikeCount         int64     `json:"like_count" bson:"like_count"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
}

// HasMedia reports whether the post carries a media reference
func (p *Post) HasMedia() bool {
	return p.MediaRef != nil && *p.MediaRef != ""
}

// CreatePostRequest defines the request body for creating a new post.
// Body may be empty only when a media reference is supplied. The visible
// length limit applies after markup is stripped; the tag only bounds the raw
// payload.
type CreatePostRequest struct {
	Body     string  `json:"body" validate:"max=4096"`
	MediaRef *string `json:"media_ref,omitempty" validate:"omitempty,max=2048"`
}
