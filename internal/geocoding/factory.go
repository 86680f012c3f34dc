package geocoding

import (
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeGoogle represents Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim represents OpenStreetMap Nominatim geocoding provider.
	ProviderTypeNominatim ProviderType = "nominatim"
	// ProviderTypeVisicom represents Visicom Maps geocoding provider.
	ProviderTypeVisicom ProviderType = "visicom"
	// ProviderTypeFixture represents the offline provider backed by DefaultFixtures.
	ProviderTypeFixture ProviderType = "fixture"
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type      ProviderType    // Type of provider to create
	APIKey    string          // API key (Google and Visicom)
	RateLimit int             // Requests per second (all network providers)
	UserAgent string          // Identifying User-Agent (Nominatim)
	Logger    *slog.Logger    // Logger for the provider
	Clock     clockwork.Clock // Clock for the fixture provider, real clock when nil
}

// defaultVisicomRateLimit applies when no rate limit is configured for Visicom.
const defaultVisicomRateLimit = 5

// NewProvider builds the provider selected by config.Type.
//
// Supported provider types:
// - "nominatim": OpenStreetMap Nominatim API (free, no API key required)
// - "google": Google Maps Geocoding API (requires API key)
// - "visicom": Visicom Data API (requires API key)
// - "fixture": built-in address table, no network access
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeGoogle, ProviderTypeVisicom:
		if config.APIKey == "" {
			return nil, fmt.Errorf("API key is required for %s provider", config.Type)
		}
	case ProviderTypeNominatim, ProviderTypeFixture:
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}

	switch config.Type {
	case ProviderTypeGoogle:
		opts := []maps.ClientOption{maps.WithAPIKey(config.APIKey)}
		if config.RateLimit > 0 {
			opts = append(opts, maps.WithRateLimit(config.RateLimit))
		}
		client, err := maps.NewClient(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
		}
		return NewGoogleProvider(client, config.Logger), nil
	case ProviderTypeVisicom:
		if config.RateLimit <= 0 {
			config.RateLimit = defaultVisicomRateLimit
			config.Logger.Warn("Visicom rate limit not configured, using default", "value", config.RateLimit)
		}
		return NewVisicomProvider(config.APIKey, config.RateLimit, config.Logger), nil
	case ProviderTypeNominatim:
		return NewNominatimProvider(config.UserAgent, config.RateLimit, config.Logger), nil
	default:
		return NewFixtureProvider(DefaultFixtures, 0, config.Clock, config.Logger), nil
	}
}
