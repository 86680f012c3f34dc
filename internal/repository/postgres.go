package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/nearby/internal/geo"
	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/jackc/pgx/v5"
)

const (
	metersPerKilometer = 1000
	// roundingSlackMeters widens the database filter so rows whose rounded distance
	// lands on the radius are not lost.
	roundingSlackMeters = 0.5
)

// RadiusQuery returns located, available sitters within radiusKm of center.
// Distances are geodesic (PostGIS geography) and rows come back nearest first,
// ties broken by id. The database filter is half a meter wider than the radius and
// the rounded distance is checked again here, so the boundary matches geo.Within.
func (r *Repository) RadiusQuery(ctx context.Context, center models.Location, radiusKm float64) ([]models.Match, error) {
	query := `
		SELECT s.id, s.title, COALESCE(s.address, ''), COALESCE(s.city, ''),
			ST_Y(s.location::geometry), ST_X(s.location::geometry),
			ST_Distance(s.location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS meters
		FROM sitters s
		WHERE
			s.available = true
			AND s.location IS NOT NULL
			AND ST_DWithin(s.location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY meters ASC, s.id ASC;
	`

	maxMeters := radiusKm*metersPerKilometer + roundingSlackMeters
	rows, err := r.db.Query(ctx, query, center.Longitude, center.Latitude, maxMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to query sitters within radius: %w", err)
	}
	defer rows.Close()

	matches := []models.Match{}
	for rows.Next() {
		var (
			sitter models.Sitter
			loc    models.Location
			meters float64
		)
		if errScan := rows.Scan(
			&sitter.ID, &sitter.Title, &sitter.Address, &sitter.City,
			&loc.Latitude, &loc.Longitude, &meters,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan located sitter: %w", errScan)
		}

		rounded := geo.RoundMeters(meters)
		if !geo.Within(rounded, radiusKm) {
			continue
		}
		sitter.Location = &loc
		matches = append(matches, models.Match{Sitter: sitter, Location: loc, DistanceMeters: rounded})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	r.log.DebugContext(ctx, "Radius query finished", "found", len(matches), "radius_km", radiusKm)

	return matches, nil
}

// UnlocatedCandidates retrieves sitters that still need geocoding: no location, a non-blank
// address and fewer than maxAttempts recorded failures. Results are ordered by id.
func (r *Repository) UnlocatedCandidates(ctx context.Context, limit int) ([]models.Sitter, error) {
	query := `
		SELECT id, title, address, COALESCE(city, '')
		FROM sitters
		WHERE
			available = true
			AND location IS NULL
			AND address IS NOT NULL AND address ~ '\S'
			AND geocoding_attempts < $2
		ORDER BY id ASC
		LIMIT $1;
	`

	rows, err := r.db.Query(ctx, query, limit, r.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to query unlocated sitters: %w", err)
	}
	defer rows.Close()

	sitters := []models.Sitter{}
	for rows.Next() {
		var sitter models.Sitter
		if errScan := rows.Scan(&sitter.ID, &sitter.Title, &sitter.Address, &sitter.City); errScan != nil {
			return nil, fmt.Errorf("failed to scan unlocated sitter: %w", errScan)
		}
		r.log.DebugContext(ctx, "A sitter without coordinates has been received.",
			"ID", sitter.ID, "Address", sitter.Address)
		sitters = append(sitters, sitter)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return sitters, nil
}

// WriteLocation stores the point for a sitter and clears its last geocoding error.
// Writing the same location twice leaves the row unchanged.
func (r *Repository) WriteLocation(ctx context.Context, sitterID int64, loc models.Location) error {
	query := `
		UPDATE sitters
		SET
			location = ST_SetSRID(ST_MakePoint($1, $2), 4326),
			geocoding_error = NULL
		WHERE
			id = $3;
	`

	tag, err := r.db.Exec(ctx, query, loc.Longitude, loc.Latitude, sitterID)
	if err != nil {
		return fmt.Errorf("failed to update sitter location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update location of sitter %d: %w", sitterID, ErrSitterNotFound)
	}

	return nil
}

// RecordGeocodeFailure increments the geocoding attempt count for a sitter and
// stores the reason of the last failure.
func (r *Repository) RecordGeocodeFailure(ctx context.Context, sitterID int64, reason string) error {
	query := `
		UPDATE sitters
		SET
			geocoding_attempts = geocoding_attempts + 1,
			geocoding_error = $1
		WHERE id = $2;
	`

	tag, err := r.db.Exec(ctx, query, reason, sitterID)
	if err != nil {
		return fmt.Errorf("failed to update geocoding error and number of attempts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record failure of sitter %d: %w", sitterID, ErrSitterNotFound)
	}

	return nil
}

// GetSitter loads one sitter with its location when it has one.
func (r *Repository) GetSitter(ctx context.Context, sitterID int64) (*models.Sitter, error) {
	query := `
		SELECT id, title, COALESCE(address, ''), COALESCE(city, ''),
			ST_Y(location::geometry), ST_X(location::geometry)
		FROM sitters
		WHERE id = $1;
	`

	var (
		sitter   models.Sitter
		lat, lon *float64
	)
	err := r.db.QueryRow(ctx, query, sitterID).
		Scan(&sitter.ID, &sitter.Title, &sitter.Address, &sitter.City, &lat, &lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get sitter %d: %w", sitterID, ErrSitterNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sitter: %w", err)
	}

	if lat != nil && lon != nil {
		sitter.Location = &models.Location{Latitude: *lat, Longitude: *lon}
	}

	return &sitter, nil
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
