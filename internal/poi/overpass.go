// Package poi fetches nearby tourist attractions from the Overpass API.
package poi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tripbrain-dev/tripbrain/internal/places"
	apperrors "github.com/tripbrain-dev/tripbrain/pkg/app/errors"
)

const (
	// DefaultBaseURL is the public Overpass interpreter endpoint.
	DefaultBaseURL = "https://overpass-api.de/api/interpreter"
	// DefaultRadiusMeters bounds the search around the location center.
	DefaultRadiusMeters = 5000

	defaultTimeout = 20 * time.Second
	elementLimit   = 20
)

// Client calls the Overpass API for points of interest around coordinates.
type Client struct {
	baseURL      string
	radiusMeters int
	httpClient   *http.Client
}

// NewClient creates a POI client. Zero values select the public endpoint and
// default radius.
func NewClient(baseURL string, radiusMeters int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:      baseURL,
		radiusMeters: radiusMeters,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Fetch queries tourist attractions around the coordinates. The result may
// be empty or sparse for small locations; that is not an error.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) ([]places.Record, error) {
	query := c.buildQuery(lat, lon)

	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "failed to create POI request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "POI request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable,
			fmt.Sprintf("POI API returned status %d", resp.StatusCode), nil)
	}

	var raw overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "failed to decode POI response", err)
	}

	return ParseElements(raw.Elements), nil
}

func (c *Client) buildQuery(lat, lon float64) string {
	return fmt.Sprintf(`
	[out:json][timeout:15];
	(
	  node["tourism"~"attraction|museum|viewpoint"](around:%d,%f,%f);
	  way["tourism"~"attraction|museum"](around:%d,%f,%f);
	  node["historic"~"castle|monument|memorial"](around:%d,%f,%f);
	);
	out center %d;
	`, c.radiusMeters, lat, lon, c.radiusMeters, lat, lon, c.radiusMeters, lat, lon, elementLimit)
}

// lodging tags are filtered out; the assistant suggests attractions, not
// accommodation.
var lodgingTypes = map[string]struct{}{
	"hotel":       {},
	"hostel":      {},
	"guest_house": {},
	"motel":       {},
	"apartment":   {},
}

// ParseElements converts Overpass elements into place records: English name
// preferred, unnamed and lodging elements dropped, duplicates by name
// collapsed, sorted by category relevance.
func ParseElements(elements []overpassElement) []places.Record {
	var records []places.Record
	seen := make(map[string]struct{})

	for _, el := range elements {
		name := el.Tags["name:en"]
		if name == "" {
			name = el.Tags["name"]
		}
		if name == "" {
			continue
		}

		id := places.NormalizeID(name)
		if _, dup := seen[id]; dup {
			continue
		}
		if _, lodging := lodgingTypes[el.Tags["tourism"]]; lodging {
			continue
		}
		seen[id] = struct{}{}

		var plat, plon float64
		switch {
		case el.Lat != nil && el.Lon != nil:
			plat, plon = *el.Lat, *el.Lon
		case el.Center != nil:
			plat, plon = el.Center.Lat, el.Center.Lon
		}

		records = append(records, places.Record{
			ID:       id,
			Name:     name,
			Category: categoryFor(el.Tags),
			Lat:      plat,
			Lon:      plon,
			Source:   places.SourceGeo,
		})
	}

	return sortByRelevance(records)
}

func categoryFor(tags map[string]string) string {
	switch {
	case tags["historic"] != "":
		return "historic"
	case tags["tourism"] == "museum":
		return "museum"
	case tags["amenity"] == "place_of_worship":
		return "religious site"
	case tags["tourism"] == "viewpoint":
		return "viewpoint"
	case tags["tourism"] == "artwork":
		return "artwork"
	case tags["tourism"] != "":
		return tags["tourism"]
	default:
		return "attraction"
	}
}

var categoryPriority = map[string]int{
	"historic":       1,
	"museum":         2,
	"religious site": 3,
	"attraction":     4,
	"viewpoint":      5,
	"artwork":        6,
}

// sortByRelevance orders records by category priority, keeping the incoming
// order within a category.
func sortByRelevance(records []places.Record) []places.Record {
	sort.SliceStable(records, func(i, j int) bool {
		return priorityOf(records[i].Category) < priorityOf(records[j].Category)
	})
	return records
}

func priorityOf(category string) int {
	if p, ok := categoryPriority[category]; ok {
		return p
	}
	return 99
}
