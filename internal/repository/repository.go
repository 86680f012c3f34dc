package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultMaxGeocodeAttempts is how many failed lookups a sitter may accumulate
// before it stops being offered as a backfill candidate.
const DefaultMaxGeocodeAttempts = 5

// ErrSitterNotFound is returned when a write or lookup names an unknown sitter.
var ErrSitterNotFound = errors.New("sitter not found")

// Database is the subset of *pgxpool.Pool used by the repository.
type Database interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// Interface is the spatial store the search engine reads from and writes resolved
// coordinates back to.
type Interface interface {
	// RadiusQuery returns every located sitter within radiusKm of center, nearest first.
	RadiusQuery(ctx context.Context, center models.Location, radiusKm float64) ([]models.Match, error)
	// UnlocatedCandidates returns up to limit sitters that have an address but no location.
	UnlocatedCandidates(ctx context.Context, limit int) ([]models.Sitter, error)
	// WriteLocation stores the location of a sitter, replacing any previous one.
	WriteLocation(ctx context.Context, sitterID int64, loc models.Location) error
	// RecordGeocodeFailure counts a failed or unresolved lookup for a sitter.
	RecordGeocodeFailure(ctx context.Context, sitterID int64, reason string) error
	// GetSitter returns a single sitter by id.
	GetSitter(ctx context.Context, sitterID int64) (*models.Sitter, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Repository is the PostGIS backed spatial store.
type Repository struct {
	db          Database
	log         *slog.Logger
	maxAttempts int
}

// NewRepository creates a new instance of Repository with the provided Database.
// A non-positive maxAttempts falls back to DefaultMaxGeocodeAttempts.
func NewRepository(db Database, log *slog.Logger, maxAttempts int) *Repository {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxGeocodeAttempts
	}

	return &Repository{db: db, log: log, maxAttempts: maxAttempts}
}
