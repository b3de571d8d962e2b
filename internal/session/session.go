// Package session holds the read caches owned by one client session.
//
// Nothing here is shared between sessions. The liked-set snapshot and the
// counters are advisory: they are whatever was last read from the store and
// are replaced wholesale on every refresh, never adjusted locally.
package session

import (
	"maps"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/anonto42/nano-midea/threads/internal/feed"
	"github.com/anonto42/nano-midea/threads/internal/identity"
	"github.com/anonto42/nano-midea/threads/internal/models"
	"github.com/anonto42/nano-midea/threads/internal/thread"
)

// DefaultThreadCacheSize bounds how many post forests a session keeps
const DefaultThreadCacheSize = 64

type target struct {
	kind models.TargetKind
	id   string
}

// Session is the per-client state object. It is safe for concurrent use.
type Session struct {
	actor *identity.Actor

	mu       sync.Mutex
	liked    map[models.TargetKind]map[string]struct{}
	counts   map[target]int64
	expanded map[string]bool
	drafts   map[string]string

	feed       []models.Post
	feedPolicy feed.Policy
	feedValid  bool

	threads *lru.Cache[string, *thread.Forest]
}

// New creates a session for actor; a nil actor is an unauthenticated session.
// threadCacheSize <= 0 uses DefaultThreadCacheSize.
func New(actor *identity.Actor, threadCacheSize int) *Session {
	if threadCacheSize <= 0 {
		threadCacheSize = DefaultThreadCacheSize
	}
	threads, err := lru.New[string, *thread.Forest](threadCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size
		panic(err)
	}

	return &Session{
		actor:    actor,
		liked:    make(map[models.TargetKind]map[string]struct{}),
		counts:   make(map[target]int64),
		expanded: make(map[string]bool),
		drafts:   make(map[string]string),
		threads:  threads,
	}
}

// Actor returns the session's actor, nil when unauthenticated
func (s *Session) Actor() *identity.Actor {
	return s.actor
}

// HasLikedSnapshot reports whether the liked set for kind has been fetched
func (s *Session) HasLikedSnapshot(kind models.TargetKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.liked[kind]
	return ok
}

// IsLiked reports whether the last snapshot had the actor liking id
func (s *Session) IsLiked(kind models.TargetKind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.liked[kind][id]
	return ok
}

// Liked returns a copy of the liked snapshot for kind
func (s *Session) Liked(kind models.TargetKind) map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.liked[kind])
}

// StoreLiked replaces the liked snapshot for kind
func (s *Session) StoreLiked(kind models.TargetKind, liked map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if liked == nil {
		liked = map[string]struct{}{}
	}
	s.liked[kind] = maps.Clone(liked)
}

// Count returns the last counter value read for a target
func (s *Session) Count(kind models.TargetKind, id string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.counts[target{kind, id}]
	return n, ok
}

// StoreCount records a counter value read from the store
func (s *Session) StoreCount(kind models.TargetKind, id string, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[target{kind, id}] = n
}

// ForgetTarget drops cached liked state and counter for a target
func (s *Session) ForgetTarget(kind models.TargetKind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counts, target{kind, id})
	delete(s.liked[kind], id)
}

// Thread returns the cached forest of postID
func (s *Session) Thread(postID string) (*thread.Forest, bool) {
	return s.threads.Get(postID)
}

// StoreThread caches a freshly built forest
func (s *Session) StoreThread(f *thread.Forest) {
	s.threads.Add(f.PostID, f)
}

// EvictThread drops the cached forest of postID
func (s *Session) EvictThread(postID string) {
	s.threads.Remove(postID)
}

// Feed returns a copy of the cached feed if it was built with policy and is
// still valid
func (s *Session) Feed(policy feed.Policy) ([]models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.feedValid || s.feedPolicy != policy {
		return nil, false
	}
	return slices.Clone(s.feed), true
}

// StoreFeed caches a ranked feed
func (s *Session) StoreFeed(posts []models.Post, policy feed.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feed, s.feedPolicy, s.feedValid = slices.Clone(posts), policy, true
}

// InvalidateFeed marks the cached feed stale
func (s *Session) InvalidateFeed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feed, s.feedValid = nil, false
}

// SetExpanded records whether a post's replies are shown
func (s *Session) SetExpanded(postID string, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if open {
		s.expanded[postID] = true
		return
	}
	delete(s.expanded, postID)
}

// Expanded reports whether a post's replies are shown
func (s *Session) Expanded(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.expanded[postID]
}

// SetDraft stores pending reply text under a DraftKey. Blank text drops the
// draft.
func (s *Session) SetDraft(key, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		delete(s.drafts, key)
		return
	}
	s.drafts[key] = text
}

// DraftKey is the post id for a root reply and the parent reply id otherwise
func DraftKey(postID string, parentReplyID *string) string {
	if parentReplyID != nil {
		return *parentReplyID
	}
	return postID
}

// Draft returns pending reply text for key
func (s *Session) Draft(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.drafts[key]
}

// ClearDraft drops pending reply text for key
func (s *Session) ClearDraft(key string) {
	s.SetDraft(key, "")
}
