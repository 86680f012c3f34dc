package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidQuery is returned for proximity queries that cannot be executed.
var ErrInvalidQuery = errors.New("invalid proximity query")

const metersPerKilometer = 1000

// ProximityQuery asks for every sitter within RadiusKm of Center.
type ProximityQuery struct {
	Center   Location
	RadiusKm float64
}

// Validate checks the center point and requires a strictly positive, finite radius.
func (q ProximityQuery) Validate() error {
	if err := q.Center.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if math.IsNaN(q.RadiusKm) || math.IsInf(q.RadiusKm, 0) || q.RadiusKm <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidQuery, q.RadiusKm)
	}

	return nil
}

// RadiusMeters returns the query radius in meters.
func (q ProximityQuery) RadiusMeters() float64 {
	return q.RadiusKm * metersPerKilometer
}

// Match is a sitter found within a query radius together with its distance to the center.
type Match struct {
	Sitter         Sitter
	Location       Location
	DistanceMeters int
}

// SortMatches orders matches by ascending distance, breaking ties by sitter ID.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].DistanceMeters != matches[j].DistanceMeters {
			return matches[i].DistanceMeters < matches[j].DistanceMeters
		}
		return matches[i].Sitter.ID < matches[j].Sitter.ID
	})
}
