package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLocation is returned when a coordinate pair is outside the WGS84 ranges.
var ErrInvalidLocation = errors.New("invalid location")

// Location represents a WGS84 point defined by its latitude and longitude.
type Location struct {
	Latitude  float64 // Latitude of the point, [-90, 90].
	Longitude float64 // Longitude of the point, [-180, 180].
}

// Validate reports whether the location is a finite point inside the WGS84 ranges.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidLocation, l.Latitude)
	}
	if math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidLocation, l.Longitude)
	}

	return nil
}
