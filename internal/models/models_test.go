package models_test

import (
	"math"
	"testing"

	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		loc     models.Location
		wantErr bool
	}{
		{name: "seattle", loc: models.Location{Latitude: 47.6062, Longitude: -122.3321}},
		{name: "poles and antimeridian", loc: models.Location{Latitude: -90, Longitude: 180}},
		{name: "latitude too large", loc: models.Location{Latitude: 90.1, Longitude: 0}, wantErr: true},
		{name: "longitude too small", loc: models.Location{Latitude: 0, Longitude: -180.5}, wantErr: true},
		{name: "nan latitude", loc: models.Location{Latitude: math.NaN(), Longitude: 0}, wantErr: true},
		{name: "infinite longitude", loc: models.Location{Latitude: 0, Longitude: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.loc.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, models.ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProximityQuery_Validate(t *testing.T) {
	t.Parallel()
	center := models.Location{Latitude: 47.6062, Longitude: -122.3321}

	require.NoError(t, models.ProximityQuery{Center: center, RadiusKm: 5}.Validate())

	for _, radius := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		err := models.ProximityQuery{Center: center, RadiusKm: radius}.Validate()
		require.ErrorIs(t, err, models.ErrInvalidQuery, "radius %v", radius)
	}

	err := models.ProximityQuery{Center: models.Location{Latitude: 100}, RadiusKm: 1}.Validate()
	require.ErrorIs(t, err, models.ErrInvalidQuery)
	require.ErrorIs(t, err, models.ErrInvalidLocation)

	assert.InDelta(t, 2500.0, models.ProximityQuery{Center: center, RadiusKm: 2.5}.RadiusMeters(), 1e-9)
}

func TestSitter_AddressKey(t *testing.T) {
	t.Parallel()
	sitter := models.Sitter{Address: "2045 15th Ave W, Seattle, WA 98119", City: "Seattle"}

	assert.Equal(t, "2045 15th Ave W, Seattle, WA 98119, Seattle", sitter.AddressKey())
	assert.True(t, sitter.HasAddress())
	assert.False(t, models.Sitter{Address: "   ", City: "Seattle"}.HasAddress())
}

func TestSortMatches(t *testing.T) {
	t.Parallel()
	matches := []models.Match{
		{Sitter: models.Sitter{ID: 9}, DistanceMeters: 300},
		{Sitter: models.Sitter{ID: 4}, DistanceMeters: 100},
		{Sitter: models.Sitter{ID: 2}, DistanceMeters: 300},
		{Sitter: models.Sitter{ID: 1}, DistanceMeters: 200},
	}

	models.SortMatches(matches)

	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Sitter.ID)
	}
	assert.Equal(t, []int64{4, 1, 2, 9}, ids)
}
