package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	apperrors "github.com/Corphon/VisualMediaTool/internal/errors"
	"github.com/Corphon/VisualMediaTool/internal/models"
	"github.com/Corphon/VisualMediaTool/internal/utils"
)

const (
	defaultAttempts = 2
	defaultWorkers  = 4
)

// Request is one query against a set of providers.
type Request struct {
	Query string
	Limit int
	Kind  models.MediaKind
	// Providers restricts the search to these names; empty means all enabled.
	Providers []string
}

// Searcher fans a query out to every enabled provider and merges the
// results in registry order.
type Searcher struct {
	providers []Provider
	limiters  map[string]*rate.Limiter
	attempts  int
	workers   int

	mu      sync.RWMutex
	enabled map[string]bool

	metrics *utils.MetricsCollector
	logger  *utils.Logger
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithRateLimit throttles each provider to rps requests per second.
func WithRateLimit(rps float64) SearcherOption {
	return func(s *Searcher) {
		if rps <= 0 {
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		for _, p := range s.providers {
			s.limiters[p.Name()] = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithAttempts sets how many times a failing provider call is tried.
func WithAttempts(n int) SearcherOption {
	return func(s *Searcher) { s.attempts = n }
}

// WithWorkers bounds the number of queries SearchMany runs at once.
func WithWorkers(n int) SearcherOption {
	return func(s *Searcher) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMetrics records request counts, errors and latency.
func WithMetrics(m *utils.MetricsCollector) SearcherOption {
	return func(s *Searcher) { s.metrics = m }
}

// WithLogger overrides the global logger.
func WithLogger(l *utils.Logger) SearcherOption {
	return func(s *Searcher) { s.logger = l }
}

// NewSearcher builds a Searcher over providers, all enabled.
func NewSearcher(providers []Provider, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		providers: providers,
		limiters:  make(map[string]*rate.Limiter),
		attempts:  defaultAttempts,
		workers:   defaultWorkers,
		enabled:   make(map[string]bool, len(providers)),
		logger:    utils.GetLogger(),
	}
	for _, p := range providers {
		s.enabled[p.Name()] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Providers returns the registry in search order.
func (s *Searcher) Providers() []Provider {
	return s.providers
}

// SetEnabled toggles a provider by name.
func (s *Searcher) SetEnabled(name string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled[name] = enabled
}

// IsEnabled reports whether name is switched on. Unknown names default to on.
func (s *Searcher) IsEnabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled, ok := s.enabled[name]
	return !ok || enabled
}

// Active lists providers that are switched on and have credentials.
func (s *Searcher) Active() []string {
	names := []string{}
	for _, p := range s.providers {
		if s.IsEnabled(p.Name()) && p.Enabled() {
			names = append(names, p.Name())
		}
	}
	return names
}

// SearchAll queries every enabled provider.
func (s *Searcher) SearchAll(ctx context.Context, query string, limit int, kind models.MediaKind) []models.MediaResult {
	return s.Search(ctx, Request{Query: query, Limit: limit, Kind: kind})
}

// Search runs one request. A failing provider contributes a single
// placeholder record instead of aborting the others.
func (s *Searcher) Search(ctx context.Context, req Request) []models.MediaResult {
	start := time.Now()
	s.metrics.IncrementCounter(utils.MetricSearchRequests)
	defer s.metrics.ObserveDuration(utils.MetricSearchDurationMs, start)

	selected := s.selectProviders(req.Providers)
	perProvider := make([][]models.MediaResult, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range selected {
		g.Go(func() error {
			results, err := s.searchProvider(gctx, p, req)
			if err != nil {
				s.metrics.IncrementCounter(utils.MetricSearchProviderErrors)
				s.logger.Warn("provider search failed", map[string]interface{}{
					"provider": p.Name(),
					"query":    req.Query,
					"error":    err.Error(),
				})
				results = []models.MediaResult{Placeholder(p.Name(), req.Query, err)}
			}
			perProvider[i] = results
			return nil
		})
	}
	_ = g.Wait()

	merged := []models.MediaResult{}
	for _, results := range perProvider {
		merged = append(merged, results...)
	}
	return merged
}

func (s *Searcher) selectProviders(names []string) []Provider {
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}

	selected := make([]Provider, 0, len(s.providers))
	for _, p := range s.providers {
		if !s.IsEnabled(p.Name()) {
			continue
		}
		if len(want) > 0 && !want[p.Name()] {
			continue
		}
		selected = append(selected, p)
	}
	return selected
}

func (s *Searcher) searchProvider(ctx context.Context, p Provider, req Request) ([]models.MediaResult, error) {
	return utils.RetryWithContext(ctx, s.attempts, func(ctx context.Context) ([]models.MediaResult, error) {
		if lim := s.limiters[p.Name()]; lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return nil, err
			}
		}
		results, err := p.Search(ctx, req.Query, req.Limit, req.Kind)
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return nil, utils.Permanent(err)
		}
		return results, err
	})
}

// SearchMany runs several queries with bounded concurrency and returns the
// merged results keyed by query.
func (s *Searcher) SearchMany(ctx context.Context, queries []string, limit int, kind models.MediaKind) (map[string][]models.MediaResult, error) {
	unique := make([]string, 0, len(queries))
	seen := make(map[string]bool, len(queries))
	for _, q := range queries {
		if !seen[q] {
			seen[q] = true
			unique = append(unique, q)
		}
	}

	results := make([][]models.MediaResult, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, q := range unique {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.SearchAll(gctx, q, limit, kind)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.FromContext(err, "search timed out")
	}

	out := make(map[string][]models.MediaResult, len(unique))
	for i, q := range unique {
		out[q] = results[i]
	}
	return out, nil
}

// SearchEach runs queries in order and hands each result set to fn as soon
// as it is ready. It stops at the first error from fn or from ctx.
func (s *Searcher) SearchEach(ctx context.Context, queries []string, limit int, kind models.MediaKind, fn func(query string, results []models.MediaResult) error) error {
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return apperrors.FromContext(err, "search timed out")
		}
		if err := fn(q, s.SearchAll(ctx, q, limit, kind)); err != nil {
			return err
		}
	}
	return nil
}

// Placeholder stands in for a provider that failed.
func Placeholder(provider, query string, err error) models.MediaResult {
	return models.MediaResult{
		Provider: provider,
		Query:    query,
		Title:    fmt.Sprintf("[%s error: %v]", provider, err),
		URL:      "#",
		Thumb:    "",
		Error:    true,
	}
}
