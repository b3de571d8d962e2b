package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/feed"
	"github.com/anonto42/nano-midea/threads/internal/models"
)

type edgeKey struct {
	user   string
	target string
	kind   models.TargetKind
}

// Memory is an in-process EntityStore. All operations take one mutex, which
// gives AdjustCounter and InsertLikeEdge the same atomicity a database
// statement would.
type Memory struct {
	mu      sync.Mutex
	posts   map[string]models.Post
	replies map[string]models.Reply
	edges   map[edgeKey]time.Time
}

// NewMemory creates an empty Memory store
func NewMemory() *Memory {
	return &Memory{
		posts:   make(map[string]models.Post),
		replies: make(map[string]models.Reply),
		edges:   make(map[edgeKey]time.Time),
	}
}

var _ EntityStore = (*Memory)(nil)

func (m *Memory) CreatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if post.ID == "" {
		return apperr.Validation("post id is empty")
	}
	if _, ok := m.posts[post.ID]; ok {
		return apperr.Validation("post %s already exists", post.ID)
	}
	m.posts[post.ID] = clonePost(*post)
	return nil
}

func (m *Memory) GetPost(_ context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok {
		return nil, apperr.NotFound("post", id)
	}
	post = clonePost(post)
	return &post, nil
}

func (m *Memory) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return apperr.NotFound("post", id)
	}
	delete(m.posts, id)
	return nil
}

func (m *Memory) ListPosts(_ context.Context, policy feed.Policy) ([]models.Post, error) {
	m.mu.Lock()
	posts := lo.MapToSlice(m.posts, func(_ string, p models.Post) models.Post { return clonePost(p) })
	m.mu.Unlock()

	return feed.Rank(posts, policy), nil
}

func (m *Memory) CreateReply(_ context.Context, reply *models.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if reply.ID == "" {
		return apperr.Validation("reply id is empty")
	}
	if _, ok := m.replies[reply.ID]; ok {
		return apperr.Validation("reply %s already exists", reply.ID)
	}
	if _, ok := m.posts[reply.PostID]; !ok {
		return apperr.NotFound("post", reply.PostID)
	}
	m.replies[reply.ID] = cloneReply(*reply)
	return nil
}

func (m *Memory) GetReply(_ context.Context, id string) (*models.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reply, ok := m.replies[id]
	if !ok {
		return nil, apperr.NotFound("reply", id)
	}
	reply = cloneReply(reply)
	return &reply, nil
}

func (m *Memory) DeleteReply(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.replies[id]; !ok {
		return apperr.NotFound("reply", id)
	}
	delete(m.replies, id)
	return nil
}

func (m *Memory) ListRepliesByPost(_ context.Context, postID string) ([]models.Reply, error) {
	m.mu.Lock()
	replies := lo.FilterMap(lo.Values(m.replies), func(r models.Reply, _ int) (models.Reply, bool) {
		return cloneReply(r), r.PostID == postID
	})
	m.mu.Unlock()

	slices.SortFunc(replies, func(a, b models.Reply) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return replies, nil
}

func (m *Memory) InsertLikeEdge(_ context.Context, userID, targetID string, kind models.TargetKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.targetExists(targetID, kind) {
		return apperr.NotFound(string(kind), targetID)
	}
	key := edgeKey{userID, targetID, kind}
	if _, ok := m.edges[key]; ok {
		return apperr.ErrConflict
	}
	m.edges[key] = time.Now()
	return nil
}

func (m *Memory) DeleteLikeEdge(_ context.Context, userID, targetID string, kind models.TargetKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := edgeKey{userID, targetID, kind}
	if _, ok := m.edges[key]; !ok {
		return false, nil
	}
	delete(m.edges, key)
	return true, nil
}

func (m *Memory) DeleteLikeEdgesByTarget(_ context.Context, targetID string, kind models.TargetKind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for key := range m.edges {
		if key.target == targetID && key.kind == kind {
			delete(m.edges, key)
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountLikeEdges(_ context.Context, targetID string, kind models.TargetKind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for key := range m.edges {
		if key.target == targetID && key.kind == kind {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListLikedTargets(_ context.Context, userID string, kind models.TargetKind) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	liked := make(map[string]struct{})
	for key := range m.edges {
		if key.user == userID && key.kind == kind {
			liked[key.target] = struct{}{}
		}
	}
	return liked, nil
}

func (m *Memory) AdjustCounter(_ context.Context, targetID string, kind models.TargetKind, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case models.TargetPost:
		post, ok := m.posts[targetID]
		if !ok {
			return 0, apperr.NotFound("post", targetID)
		}
		post.LikeCount = max(post.LikeCount+delta, 0)
		m.posts[targetID] = post
		return post.LikeCount, nil
	case models.TargetReply:
		reply, ok := m.replies[targetID]
		if !ok {
			return 0, apperr.NotFound("reply", targetID)
		}
		reply.LikeCount = max(reply.LikeCount+delta, 0)
		m.replies[targetID] = reply
		return reply.LikeCount, nil
	}
	return 0, apperr.Validation("unknown target kind %q", kind)
}

func (m *Memory) ReadCounter(_ context.Context, targetID string, kind models.TargetKind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case models.TargetPost:
		if post, ok := m.posts[targetID]; ok {
			return post.LikeCount, nil
		}
	case models.TargetReply:
		if reply, ok := m.replies[targetID]; ok {
			return reply.LikeCount, nil
		}
	default:
		return 0, apperr.Validation("unknown target kind %q", kind)
	}
	return 0, apperr.NotFound(string(kind), targetID)
}

func (m *Memory) SetCounter(_ context.Context, targetID string, kind models.TargetKind, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	value = max(value, 0)
	switch kind {
	case models.TargetPost:
		if post, ok := m.posts[targetID]; ok {
			post.LikeCount = value
			m.posts[targetID] = post
			return nil
		}
	case models.TargetReply:
		if reply, ok := m.replies[targetID]; ok {
			reply.LikeCount = value
			m.replies[targetID] = reply
			return nil
		}
	default:
		return apperr.Validation("unknown target kind %q", kind)
	}
	return apperr.NotFound(string(kind), targetID)
}

// RecountCounter counts and writes under one lock
func (m *Memory) RecountCounter(_ context.Context, targetID string, kind models.TargetKind) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if kind != models.TargetPost && kind != models.TargetReply {
		return 0, 0, apperr.Validation("unknown target kind %q", kind)
	}
	if !m.targetExists(targetID, kind) {
		return 0, 0, apperr.NotFound(string(kind), targetID)
	}

	var edges int64
	for key := range m.edges {
		if key.target == targetID && key.kind == kind {
			edges++
		}
	}

	if kind == models.TargetPost {
		post := m.posts[targetID]
		before := post.LikeCount
		post.LikeCount = edges
		m.posts[targetID] = post
		return before, edges, nil
	}
	reply := m.replies[targetID]
	before := reply.LikeCount
	reply.LikeCount = edges
	m.replies[targetID] = reply
	return before, edges, nil
}

func (m *Memory) targetExists(id string, kind models.TargetKind) bool {
	switch kind {
	case models.TargetPost:
		_, ok := m.posts[id]
		return ok
	case models.TargetReply:
		_, ok := m.replies[id]
		return ok
	}
	return false
}

func clonePost(p models.Post) models.Post {
	if p.MediaRef != nil {
		ref := *p.MediaRef
		p.MediaRef = &ref
	}
	return p
}

func cloneReply(r models.Reply) models.Reply {
	if r.ParentReplyID != nil {
		parent := *r.ParentReplyID
		r.ParentReplyID = &parent
	}
	return r
}
