package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/UnknownOlympus/nearby/internal/models"
	"golang.org/x/time/rate"
)

// NominatimBaseURL is the public OpenStreetMap Nominatim search endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// DefaultUserAgent identifies the service to Nominatim as its usage policy requires.
const DefaultUserAgent = "PetBnB-Nearby/1.0 (contact@petbnb.com)"

// NominatimProvider geocodes through OpenStreetMap's Nominatim API.
// The public instance allows roughly one request per second.
type NominatimProvider struct {
	api       restAPI
	userAgent string // Required by the Nominatim usage policy
}

// A Nominatim hit. Coordinates arrive as strings.
type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = fmt.Errorf("nominatim API returned empty response: %w", ErrUnresolved)
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

// NewNominatimProvider creates a Nominatim provider that sends at most ratePerSecond
// requests per second, one when ratePerSecond is not positive.
func NewNominatimProvider(userAgent string, ratePerSecond int, log *slog.Logger) *NominatimProvider {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}

	return NewNominatimProviderWithClient(
		&http.Client{Timeout: providerHTTPTimeout},
		userAgent,
		rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		log,
	)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client and limiter.
func NewNominatimProviderWithClient(
	client HTTPClient,
	userAgent string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *NominatimProvider {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &NominatimProvider{
		api: restAPI{
			name:    "nominatim",
			baseURL: NominatimBaseURL,
			client:  client,
			limiter: limiter,
			log:     log,
		},
		userAgent: userAgent,
	}
}

// Geocode resolves the address to the best Nominatim hit.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Location, error) {
	np.api.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	var places []nominatimPlace
	if err := np.api.get(ctx, params, http.Header{"User-Agent": {np.userAgent}}, &places); err != nil {
		return nil, err
	}

	if len(places) == 0 {
		np.api.log.DebugContext(ctx, "Nominatim found nothing", "address", address)
		return nil, ErrNominatimEmptyResponse
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, places[0].Lon)
	}

	loc := &models.Location{Latitude: lat, Longitude: lon}
	if err = loc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNominatimInvalidCoords, err)
	}

	return loc, nil
}
