package feed

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/models"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func post(id string, likes int64, offset time.Duration) models.Post {
	return models.Post{ID: id, LikeCount: likes, CreatedAt: t0.Add(offset)}
}

func ids(posts []models.Post) []string {
	return lo.Map(posts, func(p models.Post, _ int) string { return p.ID })
}

func TestRank_Scenario(t *testing.T) {
	t.Parallel()

	posts := []models.Post{
		post("t1", 2, 1*time.Second),
		post("t2", 5, 2*time.Second),
		post("t3", 1, 3*time.Second),
	}

	assert.Equal(t, []string{"t2", "t1", "t3"}, ids(Rank(posts, Popularity)))
	assert.Equal(t, []string{"t3", "t2", "t1"}, ids(Rank(posts, Recency)))
}

func TestRank_PopularityTieBreaksByRecency(t *testing.T) {
	t.Parallel()

	posts := []models.Post{
		post("old", 3, 0),
		post("new", 3, 2*time.Minute),
		post("mid", 3, time.Minute),
		post("top", 9, 0),
	}

	want := []string{"top", "new", "mid", "old"}
	for range 5 {
		require.Equal(t, want, ids(Rank(posts, Popularity)))
	}
}

func TestRank_IdenticalKeysAreReproducible(t *testing.T) {
	t.Parallel()

	a := []models.Post{post("a", 1, 0), post("b", 1, 0), post("c", 1, 0)}
	b := []models.Post{post("c", 1, 0), post("a", 1, 0), post("b", 1, 0)}

	assert.Equal(t, ids(Rank(a, Popularity)), ids(Rank(b, Popularity)))
	assert.Equal(t, ids(Rank(a, Recency)), ids(Rank(b, Recency)))
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	posts := []models.Post{post("t1", 2, 1), post("t2", 5, 2), post("t3", 1, 3)}
	before := ids(posts)

	_ = Rank(posts, Popularity)

	assert.Equal(t, before, ids(posts))
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Policy
		err  error
	}{
		{"", Recency, nil},
		{"recency", Recency, nil},
		{" Popularity ", Popularity, nil},
		{"hot", "", apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPage(t *testing.T) {
	t.Parallel()

	posts := []models.Post{post("a", 0, 0), post("b", 0, 0), post("c", 0, 0)}

	assert.Equal(t, []string{"a", "b"}, ids(Page(posts, 1, 2)))
	assert.Equal(t, []string{"c"}, ids(Page(posts, 2, 2)))
	assert.Empty(t, Page(posts, 3, 2))
	assert.Nil(t, Page(posts, 0, 2))
	assert.Equal(t, 2, TotalPages(3, 2))
	assert.Equal(t, 0, TotalPages(0, 2))
}
