package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"
)

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// errAPIUnauthorized is returned by restAPI for 401 and 403 answers.
var errAPIUnauthorized = errors.New("API rejected the credentials")

// restAPI performs rate limited JSON GET requests against a geocoding web service.
type restAPI struct {
	name    string // Provider name used in errors and logs
	baseURL string
	client  HTTPClient
	limiter *rate.Limiter
	log     *slog.Logger
}

// get waits for the limiter, queries baseURL with params and decodes a 200 answer into dst.
// 429 wraps ErrRateLimited. Every other non-200 status is an error carrying the body.
func (api *restAPI) get(ctx context.Context, params url.Values, header http.Header, dst any) error {
	if err := api.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait interrupted: %w", err)
	}

	reqURL, err := url.Parse(api.baseURL)
	if err != nil {
		return fmt.Errorf("failed to parse base URL: %w", err)
	}
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := api.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response body: %w", api.name, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s API returned status %d: %w", api.name, resp.StatusCode, ErrRateLimited)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s API returned status %d: %w", api.name, resp.StatusCode, errAPIUnauthorized)
	default:
		api.log.ErrorContext(ctx, "Geocoding API error", "provider", api.name, "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("%s API returned status %d: %s", api.name, resp.StatusCode, string(body))
	}

	if err = json.Unmarshal(body, dst); err != nil {
		api.log.ErrorContext(ctx, "Failed to parse geocoding response", "provider", api.name, "error", err)
		return fmt.Errorf("failed to decode %s response: %w", api.name, err)
	}

	return nil
}
