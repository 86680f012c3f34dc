package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/nearby/internal/metrics"
	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/UnknownOlympus/nearby/internal/repository"
	"github.com/jonboulle/clockwork"
)

// Warmer periodically geocodes sitters that still lack coordinates so that searches
// increasingly find them in the spatial index instead of paying for a lookup.
type Warmer struct {
	log          *slog.Logger         // Logger for logging warmer activities
	repo         repository.Interface // Source of unlocated sitters
	backfiller   *Backfiller          // Resolves and persists single sitters
	metrics      *metrics.Metrics     // Metrics for tracking warmer activity
	clock        clockwork.Clock      // Clock driving the polling ticker
	numWorkers   int                  // Number of concurrent workers for processing
	batchSize    int                  // Max sitters resolved per tick
	pollInterval time.Duration        // Interval between batches
}

// NewWarmer creates a new Warmer. It resolves at most batchSize sitters every
// pollInterval using numWorkers concurrent workers.
func NewWarmer(
	log *slog.Logger,
	repo repository.Interface,
	backfiller *Backfiller,
	m *metrics.Metrics,
	clock clockwork.Clock,
	numWorkers int,
	batchSize int,
	pollInterval time.Duration,
) *Warmer {
	if numWorkers <= 0 {
		numWorkers = 1
	}

	return &Warmer{
		log:          log,
		repo:         repo,
		backfiller:   backfiller,
		metrics:      m,
		clock:        clock,
		numWorkers:   numWorkers,
		batchSize:    batchSize,
		pollInterval: pollInterval,
	}
}

// Run processes a batch every poll interval until ctx is cancelled.
// It returns immediately when the interval or the batch size is not positive.
func (w *Warmer) Run(ctx context.Context) {
	if w.pollInterval <= 0 || w.batchSize <= 0 {
		w.log.InfoContext(ctx, "Coordinate warmer disabled")
		return
	}

	ticker := w.clock.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.log.InfoContext(ctx, "Coordinate warmer started", "interval", w.pollInterval, "batch", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			w.log.InfoContext(ctx, "Coordinate warmer stopped.")
			return
		case <-ticker.Chan():
			w.log.DebugContext(ctx, "Polling for sitters without coordinates...")
			w.processBatch(ctx)
		}
	}
}

// processBatch fetches unlocated sitters, fans them out to the worker pool and waits
// for every worker to finish.
func (w *Warmer) processBatch(ctx context.Context) {
	sitters, err := w.repo.UnlocatedCandidates(ctx, w.batchSize)
	if err != nil {
		w.log.ErrorContext(ctx, "Failed to fetch unlocated sitters", "error", err)
		return
	}
	if len(sitters) == 0 {
		w.log.DebugContext(ctx, "No sitters to geocode.")
		return
	}

	w.log.InfoContext(ctx, "Found sitters to geocode. Starting worker pool.",
		"jobs", len(sitters), "num_workers", w.numWorkers)

	jobs := make(chan models.Sitter, len(sitters))
	var wgr sync.WaitGroup

	for i := 1; i <= min(w.numWorkers, len(sitters)); i++ {
		wgr.Add(1)
		go w.worker(ctx, i, &wgr, jobs)
	}

	for _, sitter := range sitters {
		jobs <- sitter
	}
	close(jobs)

	wgr.Wait()
	w.log.InfoContext(ctx, "Warming batch finished")
}

func (w *Warmer) worker(ctx context.Context, idx int, wg *sync.WaitGroup, jobs <-chan models.Sitter) {
	defer wg.Done()
	for sitter := range jobs {
		if ctx.Err() != nil {
			return
		}

		w.metrics.ActiveWorkers.Inc()
		w.log.DebugContext(ctx, "Processing sitter", "worker", idx, "sitter", sitter.ID)

		_, outcome := w.backfiller.Resolve(ctx, sitter)
		w.log.DebugContext(ctx, "Worker finished sitter", "worker", idx, "sitter", sitter.ID, "outcome", outcome)

		w.metrics.ActiveWorkers.Dec()
	}
}
