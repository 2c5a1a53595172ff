package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"postexplorer/internal/domain"
	"postexplorer/internal/eventbus"
)

// Explorer is the presentation boundary the API exposes
type Explorer interface {
	Snapshot() domain.Snapshot
	SetSearchQuery(query string)
	ClearSearchHistory(ctx context.Context)
	Refresh(ctx context.Context) error
	Retry(ctx context.Context) error
}

// Server serves the explorer state to web and mobile clients
type Server struct {
	explorer Explorer
	bus      eventbus.EventBus
	log      zerolog.Logger
	upgrader websocket.Upgrader

	// loads started by requests outlive the request; they run on baseCtx
	baseCtx context.Context
	loads   sync.WaitGroup
}

// New creates a server. bus may be nil, in which case websocket clients
// only receive the snapshot taken when they connect.
func New(explorer Explorer, bus eventbus.EventBus, log zerolog.Logger) *Server {
	return &Server{
		explorer: explorer,
		bus:      bus,
		log:      log.With().Str("component", "server").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		baseCtx: context.Background(),
	}
}

// Router wires the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Get("/state", s.handleState)
		api.Put("/query", s.handleSetQuery)
		api.Delete("/query/history", s.handleClearHistory)
		api.Post("/refresh", s.handleRefresh)
		api.Post("/retry", s.handleRetry)
		api.Get("/ws", s.handleStream)
	})

	return r
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	s.baseCtx = ctx
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("shutdown")
	}
	s.loads.Wait()
	return nil
}

// startLoad runs a reload detached from the request
func (s *Server) startLoad(name string, load func(context.Context) error) {
	s.loads.Add(1)
	go func() {
		defer s.loads.Done()
		if err := load(s.baseCtx); err != nil {
			s.log.Warn().Err(err).Str("load", name).Msg("load failed")
		}
	}()
}
