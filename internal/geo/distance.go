// Package geo holds the geodesic math shared by the spatial stores and the search engine.
package geo

import (
	"math"

	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the IUGG mean Earth radius.
const EarthRadiusMeters = 6371008.8

const metersPerKilometer = 1000

// LatLng converts a location into an s2 coordinate.
func LatLng(loc models.Location) s2.LatLng {
	return s2.LatLngFromDegrees(loc.Latitude, loc.Longitude)
}

// Distance returns the great-circle distance in meters between two locations.
func Distance(a, b models.Location) float64 {
	return LatLng(a).Distance(LatLng(b)).Radians() * EarthRadiusMeters
}

// RoundMeters rounds a distance to whole meters.
func RoundMeters(meters float64) int {
	return int(math.Round(meters))
}

// Within reports whether a rounded distance lies inside a radius given in kilometers.
func Within(meters int, radiusKm float64) bool {
	return float64(meters) <= radiusKm*metersPerKilometer
}

// CapAngle converts a surface distance in meters into the central angle it spans.
func CapAngle(meters float64) s1.Angle {
	return s1.Angle(meters / EarthRadiusMeters)
}
