package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"postexplorer/internal/domain"
)

// Source fetches the full post collection
type Source interface {
	FetchAll(ctx context.Context) ([]domain.Post, error)
}

// FetchError reports a failed fetch. StatusCode is 0 for transport and decode failures.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch posts: server returned %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch posts: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPSource fetches posts with a single GET per call
type HTTPSource struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// NewHTTPSource creates a source for the given endpoint
func NewHTTPSource(endpoint string, timeout time.Duration, log zerolog.Logger) *HTTPSource {
	return &HTTPSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log.With().Str("component", "post_source").Logger(),
	}
}

// NewHTTPSourceWithClient creates a source using the given client
func NewHTTPSourceWithClient(endpoint string, client *http.Client, log zerolog.Logger) *HTTPSource {
	return &HTTPSource{
		endpoint: endpoint,
		client:   client,
		log:      log.With().Str("component", "post_source").Logger(),
	}
}

// FetchAll issues one GET to the endpoint and decodes the JSON array body
func (s *HTTPSource) FetchAll(ctx context.Context) ([]domain.Post, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error().Err(err).Str("endpoint", s.endpoint).Msg("api fetch error")
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.log.Error().Int("status", resp.StatusCode).Str("endpoint", s.endpoint).Msg("network response was not ok")
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("network response was not ok: %q", string(body)),
		}
	}

	var out []domain.Post
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		s.log.Error().Err(err).Msg("failed to decode posts")
		return nil, &FetchError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	s.log.Debug().Int("count", len(out)).Dur("took", time.Since(start)).Msg("fetched posts")
	return out, nil
}
