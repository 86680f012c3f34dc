package geocoding

import (
	"context"
	"errors"
	"time"

	"github.com/UnknownOlympus/nearby/internal/models"
)

// providerHTTPTimeout caps a single request to a geocoding web service.
const providerHTTPTimeout = 10 * time.Second

// ErrUnresolved is returned when a provider answered but knows no location for the address.
// It is an expected outcome, every other error returned by a Provider is a failure.
var ErrUnresolved = errors.New("address could not be resolved")

// ErrRateLimited is returned when a provider rejects a request because of its rate limit.
var ErrRateLimited = errors.New("geocoding provider rate limit exceeded")

// Provider is an interface that defines a method for geocoding an address.
// The Geocode method takes a context and an address string as input,
// and returns the corresponding location, ErrUnresolved when nothing matches,
// or another error when the provider could not answer.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Location, error)
}

// IsUnresolved reports whether err is the expected "not found" outcome rather than a failure.
func IsUnresolved(err error) bool {
	return errors.Is(err, ErrUnresolved)
}
