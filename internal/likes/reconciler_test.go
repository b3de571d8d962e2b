package likes

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/identity"
	"github.com/anonto42/nano-midea/threads/internal/models"
	"github.com/anonto42/nano-midea/threads/internal/session"
	"github.com/anonto42/nano-midea/threads/internal/store"
)

func newFixture(t *testing.T) (*Reconciler, *store.Memory) {
	t.Helper()

	m := store.NewMemory()
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.CreatePost(ctx, &models.Post{ID: "p1", AuthorID: "author", Body: "post", CreatedAt: now}))
	require.NoError(t, m.CreateReply(ctx, &models.Reply{ID: "r1", PostID: "p1", AuthorID: "author", Body: "reply", CreatedAt: now.Add(time.Second)}))

	return NewReconciler(m, slog.New(slog.DiscardHandler)), m
}

func sessionFor(id string) *session.Session {
	return session.New(&identity.Actor{ID: id, DisplayName: id}, 0)
}

func TestToggle_LikeThenUnlike(t *testing.T) {
	t.Parallel()

	r, _ := newFixture(t)
	ctx := context.Background()
	s := sessionFor("u1")

	state, err := r.Toggle(ctx, s, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.EqualValues(t, 1, state.Count)
	assert.True(t, s.IsLiked(models.TargetPost, "p1"))

	n, ok := s.Count(models.TargetPost, "p1")
	require.True(t, ok)
	assert.EqualValues(t, 1, n)

	state, err = r.Toggle(ctx, s, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.Zero(t, state.Count)
	assert.False(t, s.IsLiked(models.TargetPost, "p1"))
}

func TestToggle_ReplyTarget(t *testing.T) {
	t.Parallel()

	r, m := newFixture(t)
	ctx := context.Background()

	state, err := r.Toggle(ctx, sessionFor("u1"), "r1", models.TargetReply)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.EqualValues(t, 1, state.Count)

	post, err := m.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, post.LikeCount)
}

func TestToggle_StaleSnapshotMergesConflict(t *testing.T) {
	t.Parallel()

	r, m := newFixture(t)
	ctx := context.Background()

	// Another device of the same user liked the post already.
	require.NoError(t, m.InsertLikeEdge(ctx, "u1", "p1", models.TargetPost))
	_, err := m.AdjustCounter(ctx, "p1", models.TargetPost, 1)
	require.NoError(t, err)

	s := sessionFor("u1")
	s.StoreLiked(models.TargetPost, map[string]struct{}{})

	state, err := r.Toggle(ctx, s, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.EqualValues(t, 1, state.Count)
}

func TestToggle_StaleSnapshotUnlikeWithoutEdge(t *testing.T) {
	t.Parallel()

	r, m := newFixture(t)
	ctx := context.Background()

	s := sessionFor("u1")
	s.StoreLiked(models.TargetPost, map[string]struct{}{"p1": {}})

	state, err := r.Toggle(ctx, s, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.Zero(t, state.Count)

	n, err := m.ReadCounter(ctx, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestToggle_ConcurrentSameUserAtMostOne(t *testing.T) {
	t.Parallel()

	r, m := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := sessionFor("u1")
			s.StoreLiked(models.TargetPost, map[string]struct{}{})
			_, err := r.Toggle(ctx, s, "p1", models.TargetPost)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := m.ReadCounter(ctx, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	edges, err := m.CountLikeEdges(ctx, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.EqualValues(t, 1, edges)
}

func TestToggle_ManyUsers(t *testing.T) {
	t.Parallel()

	r, m := newFixture(t)
	ctx := context.Background()

	users := []string{"a", "b", "c", "d", "e"}
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Toggle(ctx, sessionFor(u), "r1", models.TargetReply)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := m.ReadCounter(ctx, "r1", models.TargetReply)
	require.NoError(t, err)
	assert.EqualValues(t, len(users), n)
}

func TestToggle_Unauthenticated(t *testing.T) {
	t.Parallel()

	r, m := newFixture(t)

	_, err := r.Toggle(context.Background(), session.New(nil, 0), "p1", models.TargetPost)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	edges, err := m.CountLikeEdges(context.Background(), "p1", models.TargetPost)
	require.NoError(t, err)
	assert.Zero(t, edges)
}

func TestToggle_Validation(t *testing.T) {
	t.Parallel()

	r, _ := newFixture(t)
	s := sessionFor("u1")

	_, err := r.Toggle(context.Background(), s, "p1", models.TargetKind("story"))
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = r.Toggle(context.Background(), s, "", models.TargetPost)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestToggle_DeletedTarget(t *testing.T) {
	t.Parallel()

	r, m := newFixture(t)
	ctx := context.Background()
	s := sessionFor("u1")

	_, err := r.Toggle(ctx, s, "r1", models.TargetReply)
	require.NoError(t, err)
	require.True(t, s.IsLiked(models.TargetReply, "r1"))

	_, err = m.DeleteLikeEdgesByTarget(ctx, "r1", models.TargetReply)
	require.NoError(t, err)
	require.NoError(t, m.DeleteReply(ctx, "r1"))

	_, err = r.Refresh(ctx, s, "r1", models.TargetReply)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.False(t, s.IsLiked(models.TargetReply, "r1"))
	_, ok := s.Count(models.TargetReply, "r1")
	assert.False(t, ok)

	_, err = r.Toggle(ctx, s, "missing", models.TargetPost)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReconcile_RepairsDrift(t *testing.T) {
	t.Parallel()

	r, m := newFixture(t)
	ctx := context.Background()

	require.NoError(t, m.InsertLikeEdge(ctx, "u1", "p1", models.TargetPost))
	require.NoError(t, m.InsertLikeEdge(ctx, "u2", "p1", models.TargetPost))
	require.NoError(t, m.SetCounter(ctx, "p1", models.TargetPost, 7))

	res, err := r.Reconcile(ctx, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.True(t, res.Corrected())
	assert.EqualValues(t, 7, res.Before)
	assert.EqualValues(t, 2, res.After)

	n, err := m.ReadCounter(ctx, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	res, err = r.Reconcile(ctx, "p1", models.TargetPost)
	require.NoError(t, err)
	assert.False(t, res.Corrected())
}

func TestReconcilePost_CoversReplies(t *testing.T) {
	t.Parallel()

	r, m := newFixture(t)
	ctx := context.Background()

	require.NoError(t, m.InsertLikeEdge(ctx, "u1", "r1", models.TargetReply))

	results, err := r.ReconcilePost(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "p1", results[0].TargetID)
	assert.False(t, results[0].Corrected())
	assert.Equal(t, "r1", results[1].TargetID)
	assert.EqualValues(t, 1, results[1].After)
}

// splitRecountStore fails the test if reconciliation falls back to a
// separate count and write.
type splitRecountStore struct {
	*store.Memory
	t *testing.T
}

func (s splitRecountStore) CountLikeEdges(context.Context, string, models.TargetKind) (int64, error) {
	s.t.Error("reconcile counted edges outside the recount")
	return 0, nil
}

func (s splitRecountStore) SetCounter(context.Context, string, models.TargetKind, int64) error {
	s.t.Error("reconcile wrote the counter outside the recount")
	return nil
}

func TestReconcile_RecountsInOneStep(t *testing.T) {
	t.Parallel()

	_, m := newFixture(t)
	ctx := context.Background()

	require.NoError(t, m.InsertLikeEdge(ctx, "u1", "r1", models.TargetReply))
	require.NoError(t, m.SetCounter(ctx, "r1", models.TargetReply, 4))

	r := NewReconciler(splitRecountStore{Memory: m, t: t}, slog.New(slog.DiscardHandler))
	res, err := r.Reconcile(ctx, "r1", models.TargetReply)
	require.NoError(t, err)
	assert.EqualValues(t, 4, res.Before)
	assert.EqualValues(t, 1, res.After)

	n, err := m.ReadCounter(ctx, "r1", models.TargetReply)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = r.Reconcile(ctx, "gone", models.TargetReply)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
