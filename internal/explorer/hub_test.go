package explorer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postexplorer/internal/domain"
	"postexplorer/internal/eventbus"
	"postexplorer/internal/storage"
)

// stubSource returns a fixed result for every call
type stubSource struct {
	mu    sync.Mutex
	posts []domain.Post
	err   error
	calls int
}

func (s *stubSource) FetchAll(context.Context) ([]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.posts, s.err
}

func (s *stubSource) set(posts []domain.Post, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts, s.err = posts, err
}

type fetchResult struct {
	posts []domain.Post
	err   error
}

// gatedSource blocks every fetch until the test answers it
type gatedSource struct {
	calls chan chan fetchResult
}

func newGatedSource() *gatedSource {
	return &gatedSource{calls: make(chan chan fetchResult, 4)}
}

func (g *gatedSource) FetchAll(ctx context.Context) ([]domain.Post, error) {
	reply := make(chan fetchResult, 1)
	g.calls <- reply
	select {
	case r := <-reply:
		return r.posts, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedSource) next(t *testing.T) chan fetchResult {
	t.Helper()
	select {
	case r := <-g.calls:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fetch")
		return nil
	}
}

func newMemoryStore() *storage.QueryStore {
	return storage.NewQueryStore(storage.NewMemoryKV(), zerolog.Nop())
}

func persisted(t *testing.T, store *storage.QueryStore) string {
	t.Helper()
	return store.Get(context.Background())
}

func TestInitialState(t *testing.T) {
	h := NewHub(&stubSource{}, newMemoryStore(), Options{Log: zerolog.Nop()})
	defer h.Close()

	s := h.Snapshot()
	assert.Equal(t, domain.StatusIdle, s.Status)
	assert.Empty(t, s.Posts)
	assert.Empty(t, s.SearchQuery)
	assert.False(t, s.IsRefreshing)
}

func TestStartWithEmptyStorage(t *testing.T) {
	src := &stubSource{posts: samplePosts()}
	h := NewHub(src, newMemoryStore(), Options{Match: MatchOptions{Body: true}, Log: zerolog.Nop()})
	defer h.Close()

	require.NoError(t, h.Start(context.Background()))

	s := h.Snapshot()
	assert.Equal(t, domain.StatusSuccess, s.Status)
	assert.Len(t, s.Posts, 3)
	assert.Equal(t, 3, s.Total)

	h.SetSearchQuery("hello")
	s = h.Snapshot()
	assert.Equal(t, "hello", s.SearchQuery)
	assert.Equal(t, []int{1, 2, 3}, ids(s.Posts))

	h.SetSearchQuery("world")
	assert.Equal(t, []int{1}, ids(h.Snapshot().Posts))
}

func TestStartRestoresQueryBeforeLoad(t *testing.T) {
	store := newMemoryStore()
	store.Set(context.Background(), "other")

	src := newGatedSource()
	h := NewHub(src, store, Options{Match: MatchOptions{Body: true}, Log: zerolog.Nop()})
	defer h.Close()

	done := make(chan error, 1)
	go func() { done <- h.Start(context.Background()) }()

	reply := src.next(t)
	// the query is restored by the time the fetch is in flight
	s := h.Snapshot()
	assert.Equal(t, "other", s.SearchQuery)
	assert.Equal(t, domain.StatusLoading, s.Status)

	reply <- fetchResult{posts: samplePosts()}
	require.NoError(t, <-done)

	s = h.Snapshot()
	assert.Equal(t, domain.StatusSuccess, s.Status)
	assert.Equal(t, []int{2}, ids(s.Posts))

	h.Flush()
	assert.Equal(t, "other", persisted(t, store))
}

func TestLoadFailure(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	h := NewHub(src, newMemoryStore(), Options{Log: zerolog.Nop()})
	defer h.Close()

	err := h.Start(context.Background())
	require.Error(t, err)

	s := h.Snapshot()
	assert.Equal(t, domain.StatusError, s.Status)
	assert.Empty(t, s.Posts)
	assert.Contains(t, s.LastError, "connection refused")

	src.set(samplePosts(), nil)
	require.NoError(t, h.Retry(context.Background()))

	s = h.Snapshot()
	assert.Equal(t, domain.StatusSuccess, s.Status)
	assert.Len(t, s.Posts, 3)
	assert.Empty(t, s.LastError)
}

func TestRefreshFailureKeepsPosts(t *testing.T) {
	src := &stubSource{posts: samplePosts()}
	h := NewHub(src, newMemoryStore(), Options{Log: zerolog.Nop()})
	defer h.Close()
	require.NoError(t, h.Start(context.Background()))

	src.set(nil, errors.New("boom"))
	require.Error(t, h.Refresh(context.Background()))

	s := h.Snapshot()
	assert.Equal(t, domain.StatusError, s.Status)
	assert.False(t, s.IsRefreshing)
	assert.Len(t, s.Posts, 3)
}

func TestRefreshKeepsStatusWhileInFlight(t *testing.T) {
	src := newGatedSource()
	h := NewHub(src, newMemoryStore(), Options{Log: zerolog.Nop()})
	defer h.Close()

	go h.Start(context.Background())
	src.next(t) <- fetchResult{posts: samplePosts()[:1]}
	require.Eventually(t, func() bool {
		return h.Snapshot().Status == domain.StatusSuccess
	}, time.Second, 5*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- h.Refresh(context.Background()) }()
	reply := src.next(t)

	s := h.Snapshot()
	assert.True(t, s.IsRefreshing)
	assert.Equal(t, domain.StatusSuccess, s.Status)
	assert.Len(t, s.Posts, 1)

	reply <- fetchResult{posts: samplePosts()}
	require.NoError(t, <-done)

	s = h.Snapshot()
	assert.False(t, s.IsRefreshing)
	assert.Len(t, s.Posts, 3)
}

func TestConcurrentLoadsLastFinishWins(t *testing.T) {
	src := newGatedSource()
	h := NewHub(src, newMemoryStore(), Options{Log: zerolog.Nop()})
	defer h.Close()

	first := make(chan error, 1)
	go func() { first <- h.Start(context.Background()) }()
	initial := src.next(t)

	second := make(chan error, 1)
	go func() { second <- h.Refresh(context.Background()) }()
	refresh := src.next(t)

	// refresh finishes first, the slower initial load lands afterwards
	refresh <- fetchResult{posts: samplePosts()}
	require.NoError(t, <-second)
	initial <- fetchResult{posts: samplePosts()[:1]}
	require.NoError(t, <-first)

	s := h.Snapshot()
	assert.Equal(t, domain.StatusSuccess, s.Status)
	assert.False(t, s.IsRefreshing)
	assert.Equal(t, []int{1}, ids(s.Posts))
}

func TestSetSearchQueryPersistsLatest(t *testing.T) {
	store := newMemoryStore()
	h := NewHub(&stubSource{posts: samplePosts()}, store, Options{Log: zerolog.Nop()})
	defer h.Close()
	require.NoError(t, h.Start(context.Background()))

	for _, q := range []string{"h", "he", "hel", "hello"} {
		h.SetSearchQuery(q)
	}
	h.Flush()
	assert.Equal(t, "hello", persisted(t, store))

	h.SetSearchQuery("")
	h.Flush()
	assert.Equal(t, "", persisted(t, store))
	assert.Len(t, h.Snapshot().Posts, 3)
}

func TestSetSearchQueryIdempotent(t *testing.T) {
	bus := eventbus.New(zerolog.Nop())
	defer bus.Close()

	var mu sync.Mutex
	var changes []string
	bus.Subscribe(domain.EventQueryChanged, func(e eventbus.DomainEvent) {
		mu.Lock()
		changes = append(changes, e.(domain.QueryChangedEvent).Query)
		mu.Unlock()
	})

	store := newMemoryStore()
	h := NewHub(&stubSource{}, store, Options{Bus: bus, Log: zerolog.Nop()})
	defer h.Close()

	h.SetSearchQuery("a")
	h.SetSearchQuery("a")
	h.SetSearchQuery("b")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 2
	}, time.Second, 5*time.Millisecond)

	// handlers run concurrently, so delivery order is not fixed
	mu.Lock()
	assert.ElementsMatch(t, []string{"a", "b"}, changes)
	mu.Unlock()

	h.Flush()
	assert.Equal(t, "b", persisted(t, store))
	assert.Equal(t, "b", h.Snapshot().SearchQuery)
}

func TestSnapshotPostsNeverNil(t *testing.T) {
	h := NewHub(&stubSource{posts: samplePosts()}, newMemoryStore(), Options{Log: zerolog.Nop()})
	defer h.Close()

	before := h.Snapshot()
	assert.NotNil(t, before.Posts, "before the first load")
	assert.Empty(t, before.Posts)

	require.NoError(t, h.Start(context.Background()))
	h.SetSearchQuery("zzz")
	s := h.Snapshot()
	assert.NotNil(t, s.Posts, "no matches")
	assert.Empty(t, s.Posts)
	assert.Equal(t, 3, s.Total)
}

func TestStorageFailureIsHarmless(t *testing.T) {
	store := storage.NewQueryStore(failingKV{}, zerolog.Nop())
	h := NewHub(&stubSource{posts: samplePosts()}, store, Options{Log: zerolog.Nop()})
	defer h.Close()

	require.NoError(t, h.Start(context.Background()))
	h.SetSearchQuery("hello")
	h.Flush()

	s := h.Snapshot()
	assert.Equal(t, "hello", s.SearchQuery)
	assert.Equal(t, domain.StatusSuccess, s.Status)
}

func TestClearSearchHistory(t *testing.T) {
	store := newMemoryStore()
	h := NewHub(&stubSource{posts: samplePosts()}, store, Options{Log: zerolog.Nop()})
	defer h.Close()

	h.SetSearchQuery("world")
	h.ClearSearchHistory(context.Background())

	assert.Equal(t, "", persisted(t, store))
	// in-memory query is untouched
	assert.Equal(t, "world", h.Snapshot().SearchQuery)
}

func TestLoadAfterCloseIsDiscarded(t *testing.T) {
	src := newGatedSource()
	h := NewHub(src, newMemoryStore(), Options{Log: zerolog.Nop()})

	done := make(chan error, 1)
	go func() { done <- h.Start(context.Background()) }()
	reply := src.next(t)

	h.Close()
	reply <- fetchResult{posts: samplePosts()}
	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, h.Snapshot().Posts)

	assert.ErrorIs(t, h.Refresh(context.Background()), ErrClosed)
	h.Close()
}

func TestCloseFlushesPendingQuery(t *testing.T) {
	store := newMemoryStore()
	h := NewHub(&stubSource{}, store, Options{Log: zerolog.Nop()})

	h.SetSearchQuery("pending")
	h.Close()
	assert.Equal(t, "pending", persisted(t, store))

	h.SetSearchQuery("ignored")
	assert.Equal(t, "pending", h.Snapshot().SearchQuery)
}

func TestStateReturnsCopy(t *testing.T) {
	h := NewHub(&stubSource{posts: samplePosts()}, newMemoryStore(), Options{Log: zerolog.Nop()})
	defer h.Close()
	require.NoError(t, h.Start(context.Background()))

	st := h.State()
	st.Posts[0].Title = "mutated"
	assert.Equal(t, "Hello World", h.State().Posts[0].Title)
}

func ids(posts []domain.Post) []int {
	var out []int
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, error) { return "", errors.New("disk on fire") }
func (failingKV) Set(context.Context, string, string) error   { return errors.New("disk on fire") }
func (failingKV) Delete(context.Context, string) error        { return errors.New("disk on fire") }
func (failingKV) Close() error                                { return nil }
