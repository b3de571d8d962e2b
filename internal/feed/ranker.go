// Package feed orders posts for display.
package feed

import (
	"slices"
	"strings"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
	"github.com/anonto42/nano-midea/threads/internal/models"
)

// Policy is a deterministic ordering rule for the feed
type Policy string

const (
	Recency    Policy = "recency"
	Popularity Policy = "popularity"
)

// ParsePolicy converts a query value into a Policy. Empty means Recency.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Recency:
		return Recency, nil
	case Popularity:
		return Popularity, nil
	}
	return "", apperr.Validation("unknown ranking policy %q", s)
}

// Rank returns a new slice with posts ordered by policy. The input is left
// untouched. Ties that survive the policy's keys are broken by id, descending,
// so the order is reproducible for identical input.
func Rank(posts []models.Post, policy Policy) []models.Post {
	ranked := slices.Clone(posts)
	slices.SortStableFunc(ranked, Compare(policy))
	return ranked
}

// Compare returns the comparison function Rank sorts with
func Compare(policy Policy) func(a, b models.Post) int {
	return func(a, b models.Post) int {
		if policy == Popularity && a.LikeCount != b.LikeCount {
			if a.LikeCount > b.LikeCount {
				return -1
			}
			return 1
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	}
}

// Page slices an already ranked feed. page is 1-based.
func Page(posts []models.Post, page, limit int) []models.Post {
	if page < 1 || limit < 1 {
		return nil
	}
	start := (page - 1) * limit
	if start >= len(posts) {
		return []models.Post{}
	}
	end := min(start+limit, len(posts))
	return posts[start:end]
}

// TotalPages returns how many pages of size limit hold n posts
func TotalPages(n, limit int) int {
	if limit < 1 {
		return 0
	}
	return (n + limit - 1) / limit
}
