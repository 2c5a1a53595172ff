package explorer

import (
	"strings"

	"postexplorer/internal/domain"
)

// MatchOptions selects which post fields a query is matched against.
// Titles are always matched.
type MatchOptions struct {
	Body bool
}

// NormalizeQuery trims and lower-cases a query
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Filter returns the posts matching query, in their original order.
// An empty (after trimming) query returns posts unchanged.
func Filter(posts []domain.Post, query string, opts MatchOptions) []domain.Post {
	q := NormalizeQuery(query)
	if q == "" {
		return posts
	}

	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if Matches(p, q, opts) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether a post matches an already normalized query
func Matches(p domain.Post, normalized string, opts MatchOptions) bool {
	if strings.Contains(strings.ToLower(p.Title), normalized) {
		return true
	}
	return opts.Body && strings.Contains(strings.ToLower(p.Body), normalized)
}
