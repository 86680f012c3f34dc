package geocoding_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/nearby/internal/geocoding"
	"github.com/UnknownOlympus/nearby/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func TestGoogleProvider_Geocode(t *testing.T) {
	mockClient := mocks.NewGoogleAPIClient(t)
	provider := geocoding.NewGoogleProvider(mockClient, slog.Default())
	ctx := t.Context()

	t.Run("api returns error", func(t *testing.T) {
		address := "some invalid place"
		req := &maps.GeocodingRequest{Address: address}

		mockClient.On("Geocode", ctx, req).Return(nil, assert.AnError).Once()

		_, err := provider.Geocode(ctx, address)

		require.ErrorIs(t, err, assert.AnError)
		assert.False(t, geocoding.IsUnresolved(err))
	})

	t.Run("api returns empty response", func(t *testing.T) {
		address := "Unknown Street 12345, Nonexistent City"
		req := &maps.GeocodingRequest{Address: address}

		mockClient.On("Geocode", ctx, req).Return(nil, nil).Once()

		loc, err := provider.Geocode(ctx, address)

		require.Nil(t, loc)
		require.ErrorIs(t, err, geocoding.ErrEmptyResponse)
		assert.True(t, geocoding.IsUnresolved(err))
	})

	t.Run("successful geocoding", func(t *testing.T) {
		address := "425 15th Ave E, Seattle, WA 98112, Seattle"
		req := &maps.GeocodingRequest{Address: address}
		mockResponse := []maps.GeocodingResult{
			{Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: 47.6223, Lng: -122.3129}}},
		}

		mockClient.On("Geocode", ctx, req).Return(mockResponse, nil).Once()

		loc, err := provider.Geocode(ctx, address)

		require.NoError(t, err)
		require.NotNil(t, loc)
		require.InEpsilon(t, 47.6223, loc.Latitude, 0.0001)
		require.InEpsilon(t, -122.3129, loc.Longitude, 0.0001)
	})
}
