package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/nearby/internal/geo"
	"github.com/UnknownOlympus/nearby/internal/geocoding"
	"github.com/UnknownOlympus/nearby/internal/metrics"
	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/UnknownOlympus/nearby/internal/repository"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// EngineConfig bounds the lazy geocoding work a single search may do.
type EngineConfig struct {
	BackfillCap    int           // Max unlocated sitters geocoded per search, 0 disables backfill
	Workers        int           // Max concurrent geocoding calls per search
	GeocodeTimeout time.Duration // Timeout of one geocoding call, 0 means none
	BackfillBudget time.Duration // Wall clock budget of the whole backfill step, 0 means none
}

// Engine answers proximity queries from the spatial index and lazily geocodes a
// bounded number of unlocated sitters on the way.
type Engine struct {
	cfg        EngineConfig
	store      repository.Interface
	backfiller *Backfiller
	metrics    *metrics.Metrics
	log        *slog.Logger
	clock      clockwork.Clock
}

// NewEngine creates a search engine. providerName only labels metrics.
func NewEngine(
	cfg EngineConfig,
	store repository.Interface,
	provider geocoding.Provider,
	providerName string,
	m *metrics.Metrics,
	log *slog.Logger,
	clock clockwork.Clock,
) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BackfillCap < 0 {
		cfg.BackfillCap = 0
	}

	return &Engine{
		cfg:        cfg,
		store:      store,
		backfiller: NewBackfiller(provider, providerName, store, m, log, clock, cfg.GeocodeTimeout),
		metrics:    m,
		log:        log,
		clock:      clock,
	}
}

// Search returns every sitter within the query radius, nearest first.
//
// Indexed sitters always make it into the result. Up to BackfillCap sitters without
// coordinates are geocoded and included when they fall inside the radius; when the
// backfill budget runs out, the ones resolved so far are returned without an error.
// A failing radius query is the only store failure that fails the search.
func (e *Engine) Search(ctx context.Context, query models.ProximityQuery) ([]models.Match, error) {
	if err := query.Validate(); err != nil {
		e.metrics.Searches.WithLabelValues("invalid").Inc()
		return nil, &SearchError{Reason: ReasonInvalidQuery, Err: err}
	}

	start := e.clock.Now()
	log := e.log.With("search_id", uuid.NewString())
	defer func() { e.metrics.SearchSeconds.Observe(e.clock.Since(start).Seconds()) }()

	indexed, err := e.store.RadiusQuery(ctx, query.Center, query.RadiusKm)
	if err != nil {
		e.metrics.Searches.WithLabelValues("unavailable").Inc()
		log.ErrorContext(ctx, "Radius query failed", "error", err)
		return nil, &SearchError{Reason: ReasonStoreUnavailable, Err: fmt.Errorf("%w: %w", ErrStoreUnavailable, err)}
	}

	resolved, exhausted := e.backfill(ctx, log, query)
	matches := mergeMatches(indexed, resolved, query.RadiusKm)

	status := "ok"
	if exhausted {
		status = "partial"
	}
	e.metrics.Searches.WithLabelValues(status).Inc()
	log.InfoContext(ctx, "Search finished",
		"lat", query.Center.Latitude, "lon", query.Center.Longitude, "radius_km", query.RadiusKm,
		"indexed", len(indexed), "backfilled", len(resolved), "returned", len(matches), "status", status)

	return matches, nil
}

// backfill geocodes unlocated candidates with bounded parallelism under the backfill
// budget. It reports whether the budget ran out before every candidate finished.
func (e *Engine) backfill(ctx context.Context, log *slog.Logger, query models.ProximityQuery) ([]models.Match, bool) {
	if e.cfg.BackfillCap == 0 {
		return nil, false
	}

	candidates, err := e.store.UnlocatedCandidates(ctx, e.cfg.BackfillCap)
	if err != nil {
		e.metrics.CandidateFetchFailures.Inc()
		log.WarnContext(ctx, "Could not load unlocated sitters, serving indexed results only", "error", err)
		return nil, false
	}
	if len(candidates) > e.cfg.BackfillCap {
		candidates = candidates[:e.cfg.BackfillCap]
	}
	if len(candidates) == 0 {
		return nil, false
	}

	budgetCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.cfg.BackfillBudget > 0 {
		budgetCtx, cancel = clockwork.WithTimeout(ctx, e.clock, e.cfg.BackfillBudget)
	}
	defer cancel()

	var (
		mu     sync.Mutex
		found  []models.Match
		closed bool
	)

	var group errgroup.Group
	group.SetLimit(min(e.cfg.Workers, len(candidates)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, sitter := range candidates {
			if budgetCtx.Err() != nil {
				break
			}
			group.Go(func() error {
				if budgetCtx.Err() != nil {
					return nil
				}
				match, ok := e.backfiller.Backfill(budgetCtx, query, sitter)
				if ok {
					mu.Lock()
					if !closed {
						found = append(found, match)
					}
					mu.Unlock()
				}
				return nil
			})
		}
		_ = group.Wait()
	}()

	exhausted := false
	select {
	case <-done:
	case <-budgetCtx.Done():
		select {
		case <-done:
		default:
			exhausted = true
			e.metrics.BackfillBudgetExhausted.Inc()
			log.WarnContext(ctx, "Backfill budget exhausted, returning partial results",
				"candidates", len(candidates), "error", budgetCtx.Err())
		}
	}

	mu.Lock()
	closed = true
	resolved := append([]models.Match(nil), found...)
	mu.Unlock()

	return resolved, exhausted
}

// mergeMatches combines indexed and freshly resolved matches. A sitter that shows up in
// both reads is kept once.
func mergeMatches(indexed, resolved []models.Match, radiusKm float64) []models.Match {
	seen := make(map[int64]struct{}, len(indexed)+len(resolved))
	merged := make([]models.Match, 0, len(indexed)+len(resolved))

	for _, batch := range [][]models.Match{indexed, resolved} {
		for _, match := range batch {
			if !geo.Within(match.DistanceMeters, radiusKm) {
				continue
			}
			if _, dup := seen[match.Sitter.ID]; dup {
				continue
			}
			seen[match.Sitter.ID] = struct{}{}
			merged = append(merged, match)
		}
	}

	models.SortMatches(merged)

	return merged
}
