package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/UnknownOlympus/nearby/internal/models"
	"golang.org/x/time/rate"
)

// VisicomBaseURL is the Visicom Data API geocoding endpoint.
const VisicomBaseURL = "https://api.visicom.ua/data-api/5.0/uk/geocode.json"

// VisicomProvider geocodes through the Visicom Data API.
type VisicomProvider struct {
	api    restAPI
	apiKey string
}

// Common errors for Visicom provider.
var (
	ErrVisicomEmptyResponse = fmt.Errorf("visicom API returned empty response: %w", ErrUnresolved)
	ErrVisicomEmptyAddress  = fmt.Errorf("visicom provider got empty address: %w", ErrUnresolved)
	ErrVisicomInvalidCoords = errors.New("visicom API returned invalid coordinates")
	ErrVisicomUnauthorized  = errors.New("visicom API unauthorized (invalid API key)")
)

// Only the centroid of the best feature is used. GeoJSON order: [lon, lat].
type visicomFeature struct {
	Centroid struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geo_centroid"`
}

// NewVisicomProvider creates a Visicom provider allowing rateLimit requests per second.
func NewVisicomProvider(apiKey string, rateLimit int, log *slog.Logger) *VisicomProvider {
	return NewVisicomProviderWithClient(
		&http.Client{Timeout: providerHTTPTimeout},
		apiKey,
		rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		log,
	)
}

// NewVisicomProviderWithClient allows injecting custom HTTP client.
func NewVisicomProviderWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *VisicomProvider {
	return &VisicomProvider{
		api: restAPI{
			name:    "visicom",
			baseURL: VisicomBaseURL,
			client:  client,
			limiter: limiter,
			log:     log,
		},
		apiKey: apiKey,
	}
}

// Geocode resolves the address to the centroid of the best Visicom feature.
func (vp *VisicomProvider) Geocode(ctx context.Context, address string) (*models.Location, error) {
	if address == "" {
		return nil, ErrVisicomEmptyAddress
	}

	vp.api.log.DebugContext(ctx, "Geocoding using Visicom", "address", address)

	params := url.Values{}
	params.Set("text", address)
	params.Set("limit", "1")
	params.Set("key", vp.apiKey)

	var feature visicomFeature
	if err := vp.api.get(ctx, params, nil, &feature); err != nil {
		if errors.Is(err, errAPIUnauthorized) {
			return nil, ErrVisicomUnauthorized
		}
		return nil, err
	}

	switch coords := feature.Centroid.Coordinates; len(coords) {
	case 0:
		return nil, ErrVisicomEmptyResponse
	case 2:
		loc := &models.Location{Latitude: coords[1], Longitude: coords[0]}
		if err := loc.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVisicomInvalidCoords, err)
		}
		return loc, nil
	default:
		return nil, ErrVisicomInvalidCoords
	}
}
