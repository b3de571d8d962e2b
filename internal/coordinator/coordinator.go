// Package coordinator implements the ordered create and delete sequences for
// posts and replies, and triggers the session refresh that follows each one.
package coordinator

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/identity"
	"github.com/anonto42/nano-midea/threads/internal/metrics"
	"github.com/anonto42/nano-midea/threads/internal/models"
	"github.com/anonto42/nano-midea/threads/internal/session"
	"github.com/anonto42/nano-midea/threads/internal/store"
	"github.com/anonto42/nano-midea/threads/internal/thread"
)

const (
	MaxPostBodyLen  = 280
	MaxReplyBodyLen = 500
)

// bodies are plain text; markup is stripped before length checks
var plainText = bluemonday.StrictPolicy()

// Coordinator validates, authorizes and performs content mutations
type Coordinator struct {
	Store  store.EntityStore
	Views  *session.Views
	Logger *slog.Logger
	Clock  func() time.Time

	mu   sync.Mutex
	last time.Time
}

// New creates a Coordinator using the wall clock
func New(st store.EntityStore, views *session.Views, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		Store:  st,
		Views:  views,
		Logger: logger.With("component", "coordinator"),
		Clock:  time.Now,
	}
}

// now returns a creation time strictly after the previous one
func (c *Coordinator) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.Clock().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}

// CreatePost publishes a post as the session's actor. The body is stripped
// of markup and trimmed; a post needs either text or media.
func (c *Coordinator) CreatePost(ctx context.Context, s *session.Session, body string, mediaRef *string) (*models.Post, error) {
	actor := s.Actor()
	if err := identity.Require(actor); err != nil {
		return nil, err
	}

	body = cleanBody(body)
	mediaRef = normalizeRef(mediaRef)
	if body == "" && mediaRef == nil {
		return nil, apperr.Validation("post needs a body or media")
	}
	if n := utf8.RuneCountInString(body); n > MaxPostBodyLen {
		return nil, apperr.Validation("post body is %d characters, limit is %d", n, MaxPostBodyLen)
	}

	post := &models.Post{
		ID:                primitive.NewObjectID().Hex(),
		AuthorID:          actor.ID,
		AuthorDisplayName: actor.DisplayName,
		Body:              body,
		MediaRef:          mediaRef,
		CreatedAt:         c.now(),
	}
	if err := c.Store.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.InvalidateFeed()
	c.Logger.Info("post created", "post_id", post.ID, "author", actor.ID, "has_media", post.HasMedia())
	return post, nil
}

// CreateReply adds a reply to postID, under parentReplyID when given. The
// parent must be a reply of the same post.
//
// The submitted text is kept as the session's draft for that spot until the
// reply is stored, so a rejected reply can be edited and sent again. On
// success the draft is cleared, the post is marked expanded and its forest
// is rebuilt before returning.
func (c *Coordinator) CreateReply(ctx context.Context, s *session.Session, postID, body string, parentReplyID *string) (*models.Reply, error) {
	actor := s.Actor()
	if err := identity.Require(actor); err != nil {
		return nil, err
	}

	parentReplyID = normalizeRef(parentReplyID)
	draft := session.DraftKey(postID, parentReplyID)
	s.SetDraft(draft, body)

	body = cleanBody(body)
	if body == "" {
		return nil, apperr.Validation("reply body is empty")
	}
	if n := utf8.RuneCountInString(body); n > MaxReplyBodyLen {
		return nil, apperr.Validation("reply body is %d characters, limit is %d", n, MaxReplyBodyLen)
	}

	if _, err := c.Store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	if parentReplyID != nil {
		parent, err := c.Store.GetReply(ctx, *parentReplyID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, apperr.Validation("parent reply %s belongs to another post", parent.ID)
		}
	}

	reply := &models.Reply{
		ID:                uuid.NewString(),
		PostID:            postID,
		ParentReplyID:     parentReplyID,
		AuthorID:          actor.ID,
		AuthorDisplayName: actor.DisplayName,
		Body:              body,
		CreatedAt:         c.now(),
	}
	if err := c.Store.CreateReply(ctx, reply); err != nil {
		return nil, err
	}
	c.Logger.Info("reply created", "reply_id", reply.ID, "post_id", postID, "author", actor.ID)
	s.ClearDraft(draft)
	s.SetExpanded(postID, true)

	if _, err := c.Views.RefreshThread(ctx, s, postID); err != nil {
		return reply, err
	}
	return reply, nil
}

// DeletePost removes a post owned by the session's actor together with its
// replies and every like edge that points at any of them.
func (c *Coordinator) DeletePost(ctx context.Context, s *session.Session, postID string) error {
	actor := s.Actor()
	if err := identity.Require(actor); err != nil {
		return err
	}

	post, err := c.Store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.ID {
		return apperr.Forbidden("post %s is not owned by %s", postID, actor.ID)
	}

	replies, err := c.Store.ListRepliesByPost(ctx, postID)
	if err != nil {
		return err
	}
	forest := thread.Build(postID, replies)
	if err := c.deleteReplies(ctx, forest.DeleteOrder()); err != nil {
		return err
	}

	if _, err := c.Store.DeleteLikeEdgesByTarget(ctx, postID, models.TargetPost); err != nil {
		return err
	}
	if err := c.Store.DeletePost(ctx, postID); err != nil {
		return err
	}
	metrics.CascadeDeleted.WithLabelValues("post").Inc()

	s.EvictThread(postID)
	s.ForgetTarget(models.TargetPost, postID)
	s.InvalidateFeed()
	c.Logger.Info("post deleted", "post_id", postID, "replies", forest.Len())
	return nil
}

// DeleteReply removes a reply owned by the session's actor and every reply
// whose parent chain reaches it, deepest replies first.
func (c *Coordinator) DeleteReply(ctx context.Context, s *session.Session, replyID string) error {
	actor := s.Actor()
	if err := identity.Require(actor); err != nil {
		return err
	}

	reply, err := c.Store.GetReply(ctx, replyID)
	if err != nil {
		return err
	}
	if reply.AuthorID != actor.ID {
		return apperr.Forbidden("reply %s is not owned by %s", replyID, actor.ID)
	}

	replies, err := c.Store.ListRepliesByPost(ctx, reply.PostID)
	if err != nil {
		return err
	}
	ids := thread.Subtree(replies, replyID)
	if err := c.deleteReplies(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		s.ForgetTarget(models.TargetReply, id)
	}
	c.Logger.Info("reply deleted", "reply_id", replyID, "post_id", reply.PostID, "cascade", len(ids))

	if _, err := c.Views.RefreshThread(ctx, s, reply.PostID); err != nil {
		return err
	}
	return nil
}

// deleteReplies deletes each reply's like edges and then the reply, in order.
// A reply already gone is skipped.
func (c *Coordinator) deleteReplies(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := c.Store.DeleteLikeEdgesByTarget(ctx, id, models.TargetReply); err != nil {
			return err
		}
		err := c.Store.DeleteReply(ctx, id)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if err == nil {
			metrics.CascadeDeleted.WithLabelValues("reply").Inc()
		}
	}
	return nil
}

func cleanBody(body string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(body)))
}

func normalizeRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	v := strings.TrimSpace(*ref)
	if v == "" {
		return nil
	}
	return &v
}
