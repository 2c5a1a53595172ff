package storage

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// SearchQueryKey is the key under which the last search query is stored
const SearchQueryKey = "@post_explorer_search_query"

// QueryStore persists the last search query.
// Failures are logged and swallowed; callers never see a storage error.
type QueryStore struct {
	kv  KV
	log zerolog.Logger
}

// NewQueryStore wraps a backend
func NewQueryStore(kv KV, log zerolog.Logger) *QueryStore {
	return &QueryStore{
		kv:  kv,
		log: log.With().Str("component", "query_store").Logger(),
	}
}

// Get returns the persisted query, or "" when none exists or the read fails
func (s *QueryStore) Get(ctx context.Context) string {
	v, err := s.kv.Get(ctx, SearchQueryKey)
	if errors.Is(err, ErrNotFound) {
		return ""
	}
	if err != nil {
		s.log.Error().Err(err).Msg("error retrieving search query from storage")
		return ""
	}
	return v
}

// Set stores the query
func (s *QueryStore) Set(ctx context.Context, query string) {
	if err := s.kv.Set(ctx, SearchQueryKey, query); err != nil {
		s.log.Error().Err(err).Msg("error saving search query to storage")
	}
}

// Clear removes the persisted query
func (s *QueryStore) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, SearchQueryKey); err != nil {
		s.log.Error().Err(err).Msg("error clearing search query storage")
	}
}
