package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/nearby/internal/geo"
	"github.com/UnknownOlympus/nearby/internal/geocoding"
	"github.com/UnknownOlympus/nearby/internal/metrics"
	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/UnknownOlympus/nearby/internal/repository"
	"github.com/jonboulle/clockwork"
)

// Outcome describes what a single backfill attempt achieved.
type Outcome string

const (
	// OutcomeResolved means the address was geocoded.
	OutcomeResolved Outcome = "resolved"
	// OutcomeUnresolved means the provider knows no location for the address.
	OutcomeUnresolved Outcome = "unresolved"
	// OutcomeFailed means the provider could not answer.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means the sitter has no address to geocode.
	OutcomeSkipped Outcome = "skipped"
)

// Backfiller resolves the coordinates of unlocated sitters and writes them back to the store.
type Backfiller struct {
	provider     geocoding.Provider
	providerName string
	store        repository.Interface
	metrics      *metrics.Metrics
	log          *slog.Logger
	clock        clockwork.Clock
	timeout      time.Duration
}

// NewBackfiller creates a Backfiller. A positive timeout bounds every geocoding call.
func NewBackfiller(
	provider geocoding.Provider,
	providerName string,
	store repository.Interface,
	m *metrics.Metrics,
	log *slog.Logger,
	clock clockwork.Clock,
	timeout time.Duration,
) *Backfiller {
	return &Backfiller{
		provider:     provider,
		providerName: providerName,
		store:        store,
		metrics:      m,
		log:          log,
		clock:        clock,
		timeout:      timeout,
	}
}

// Resolve geocodes the sitter's address with at most one provider call and persists the
// answer with at most one store write. A resolved location is returned even when the
// write-through fails.
func (b *Backfiller) Resolve(ctx context.Context, sitter models.Sitter) (*models.Location, Outcome) {
	if !sitter.HasAddress() {
		b.metrics.BackfillAttempts.WithLabelValues(string(OutcomeSkipped)).Inc()
		return nil, OutcomeSkipped
	}

	address := sitter.AddressKey()
	loc, err := b.geocode(ctx, address)
	if err == nil {
		err = validateResult(loc)
	}

	if err != nil {
		outcome := OutcomeFailed
		if geocoding.IsUnresolved(err) {
			outcome = OutcomeUnresolved
		} else {
			b.metrics.GeocodeErrors.Inc()
		}
		b.metrics.BackfillAttempts.WithLabelValues(string(outcome)).Inc()

		// A caller that gave up is not the address's fault.
		if ctx.Err() != nil {
			b.log.DebugContext(ctx, "Geocoding abandoned", "sitter", sitter.ID, "error", err)
			return nil, outcome
		}

		b.log.InfoContext(ctx, "Could not geocode sitter address",
			"sitter", sitter.ID, "address", address, "outcome", outcome, "error", err)
		if errRec := b.store.RecordGeocodeFailure(ctx, sitter.ID, err.Error()); errRec != nil {
			b.log.WarnContext(ctx, "Could not record geocoding failure", "sitter", sitter.ID, "error", errRec)
		}

		return nil, outcome
	}

	b.metrics.BackfillAttempts.WithLabelValues(string(OutcomeResolved)).Inc()

	if errWrite := b.store.WriteLocation(ctx, sitter.ID, *loc); errWrite != nil {
		b.metrics.StoreWriteFailures.Inc()
		b.log.WarnContext(ctx, "Failed to persist resolved location", "sitter", sitter.ID, "error", errWrite)
	} else {
		b.log.DebugContext(ctx, "Resolved sitter location", "sitter", sitter.ID,
			"lat", loc.Latitude, "lon", loc.Longitude)
	}

	return loc, OutcomeResolved
}

// Backfill resolves the sitter and returns it as a match when it lies inside the query radius.
func (b *Backfiller) Backfill(ctx context.Context, query models.ProximityQuery, sitter models.Sitter) (models.Match, bool) {
	loc, outcome := b.Resolve(ctx, sitter)
	if outcome != OutcomeResolved {
		return models.Match{}, false
	}

	meters := geo.RoundMeters(geo.Distance(query.Center, *loc))
	if !geo.Within(meters, query.RadiusKm) {
		return models.Match{}, false
	}

	located := *loc
	sitter.Location = &located

	return models.Match{Sitter: sitter, Location: located, DistanceMeters: meters}, true
}

func (b *Backfiller) geocode(ctx context.Context, address string) (*models.Location, error) {
	callCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = clockwork.WithTimeout(ctx, b.clock, b.timeout)
		defer cancel()
	}

	start := b.clock.Now()
	loc, err := b.provider.Geocode(callCtx, address)
	b.metrics.GeocodeSeconds.WithLabelValues(b.providerName).Observe(b.clock.Since(start).Seconds())

	return loc, err
}

func validateResult(loc *models.Location) error {
	if loc == nil {
		return fmt.Errorf("provider returned no location: %w", geocoding.ErrUnresolved)
	}
	if err := loc.Validate(); err != nil {
		return fmt.Errorf("provider returned an unusable location: %w", err)
	}

	return nil
}
