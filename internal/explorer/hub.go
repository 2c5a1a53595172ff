package explorer

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"postexplorer/internal/domain"
	"postexplorer/internal/eventbus"
	"postexplorer/internal/posts"
)

// ErrClosed is returned by loads that complete after the hub was closed.
// Their results are discarded.
var ErrClosed = errors.New("explorer: hub closed")

// QueryStore persists the search query. Implementations swallow their own failures.
type QueryStore interface {
	Get(ctx context.Context) string
	Set(ctx context.Context, query string)
	Clear(ctx context.Context)
}

// Options configures a Hub
type Options struct {
	Match MatchOptions
	Bus   eventbus.EventBus // optional; receives a domain event for every state change
	Log   zerolog.Logger
}

// Hub owns the explorer state: the post collection, fetch status,
// search query and refresh flag. It is the only writer of that state.
type Hub struct {
	source posts.Source
	store  QueryStore
	match  MatchOptions
	bus    eventbus.EventBus
	log    zerolog.Logger

	mu     sync.RWMutex
	state  domain.ExplorerState
	closed bool

	persist   *persister
	closeOnce sync.Once
}

// NewHub creates a hub in the IDLE state
func NewHub(source posts.Source, store QueryStore, opts Options) *Hub {
	return &Hub{
		source:  source,
		store:   store,
		match:   opts.Match,
		bus:     opts.Bus,
		log:     opts.Log.With().Str("component", "explorer").Logger(),
		state:   domain.ExplorerState{Status: domain.StatusIdle},
		persist: newPersister(store),
	}
}

// Start restores the persisted query and then performs the initial load.
// The load only begins after the restore finished so the first filtered
// result already reflects the restored query.
func (h *Hub) Start(ctx context.Context) error {
	if restored := h.store.Get(ctx); restored != "" {
		if h.setQuery(restored) {
			h.log.Info().Str("query", restored).Msg("restored search query")
			h.publish(domain.QueryRestoredEvent{Query: restored})
		}
	}
	return h.LoadPosts(ctx, false)
}

// LoadPosts fetches the post collection.
// A foreground load sets LOADING; a background load only raises IsRefreshing
// and keeps the current posts visible. Failures set ERROR and keep posts as they are.
// Concurrent loads are not serialized: the last one to finish wins.
func (h *Hub) LoadPosts(ctx context.Context, background bool) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	if background {
		h.state.IsRefreshing = true
	} else {
		h.state.Status = domain.StatusLoading
	}
	h.mu.Unlock()
	h.publish(domain.LoadStartedEvent{Background: background})

	fetched, err := h.source.FetchAll(ctx)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.log.Debug().Bool("background", background).Msg("discarding load result for closed hub")
		return ErrClosed
	}
	if err != nil {
		h.state.Status = domain.StatusError
		h.state.LastError = err.Error()
	} else {
		h.state.Posts = fetched
		h.state.Status = domain.StatusSuccess
		h.state.LastError = ""
	}
	h.state.IsRefreshing = false
	h.mu.Unlock()

	if err != nil {
		h.log.Error().Err(err).Bool("background", background).Msg("failed to load posts")
		h.publish(domain.LoadFailedEvent{Err: err, Background: background})
		return err
	}
	h.log.Info().Int("count", len(fetched)).Bool("background", background).Msg("loaded posts")
	h.publish(domain.PostsLoadedEvent{Count: len(fetched), Background: background})
	return nil
}

// Refresh reloads posts in the background
func (h *Hub) Refresh(ctx context.Context) error {
	return h.LoadPosts(ctx, true)
}

// Retry reloads posts in the foreground, as the error screen does
func (h *Hub) Retry(ctx context.Context) error {
	return h.LoadPosts(ctx, false)
}

// SetSearchQuery updates the query and persists it in the background.
// Setting the current value again is a no-op.
func (h *Hub) SetSearchQuery(query string) {
	if h.setQuery(query) {
		h.publish(domain.QueryChangedEvent{Query: query})
	}
}

// setQuery stores the query and queues its persistence; it reports whether the value changed
func (h *Hub) setQuery(query string) bool {
	h.mu.Lock()
	if h.closed || h.state.SearchQuery == query {
		h.mu.Unlock()
		return false
	}
	h.state.SearchQuery = query
	h.mu.Unlock()

	h.persist.enqueue(query)
	return true
}

// ClearSearchHistory removes the persisted query; the in-memory query is kept
func (h *Hub) ClearSearchHistory(ctx context.Context) {
	h.persist.flush()
	h.store.Clear(ctx)
	h.log.Info().Msg("cleared search history")
	h.publish(domain.HistoryClearedEvent{})
}

// Snapshot returns the read surface with the filtered posts
func (h *Hub) Snapshot() domain.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	filtered := Filter(h.state.Posts, h.state.SearchQuery, h.match)
	// never nil, so encoders emit [] for an empty result
	posts := make([]domain.Post, len(filtered))
	copy(posts, filtered)
	return domain.Snapshot{
		Posts:        posts,
		Total:        len(h.state.Posts),
		Status:       h.state.Status,
		SearchQuery:  h.state.SearchQuery,
		IsRefreshing: h.state.IsRefreshing,
		LastError:    h.state.LastError,
	}
}

// State returns a copy of the raw state record
func (h *Hub) State() domain.ExplorerState {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := h.state
	s.Posts = append([]domain.Post(nil), h.state.Posts...)
	return s
}

// Flush waits until queued query writes reached the store
func (h *Hub) Flush() {
	h.persist.flush()
}

// Close tears the hub down. Pending writes are flushed and
// loads still in flight will have their results discarded.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
		h.persist.close()
	})
}

func (h *Hub) publish(event domain.DomainEvent) {
	if h.bus != nil {
		h.bus.Publish(event)
	}
}
