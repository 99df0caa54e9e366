// Package geocode resolves place names to coordinates through the
// Nominatim search API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/tripbrain-dev/tripbrain/pkg/app/errors"
)

const (
	// DefaultBaseURL is the public Nominatim endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org/search"
	// DefaultUserAgent identifies the service; Nominatim requires one.
	DefaultUserAgent = "tripbrain/1.0"

	defaultTimeout = 5 * time.Second
)

// Location is a geocoded place.
type Location struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Client calls the Nominatim search API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a geocoding client. Empty arguments select the public
// endpoint and default user agent.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve looks up coordinates for a location name. A query with no results
// returns a GEOCODE_NOT_FOUND error; transport failures return
// PROVIDER_UNAVAILABLE.
func (c *Client) Resolve(ctx context.Context, query string) (*Location, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "failed to create geocoding request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "geocoding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable,
			fmt.Sprintf("geocoding returned status %d", resp.StatusCode), nil)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "failed to decode geocoding response", err)
	}

	if len(results) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeGeocodeNotFound,
			fmt.Sprintf("no results for %q", query), nil)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "malformed latitude in geocoding response", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "malformed longitude in geocoding response", err)
	}

	return &Location{
		Name:        query,
		Lat:         lat,
		Lon:         lon,
		DisplayName: results[0].DisplayName,
	}, nil
}
