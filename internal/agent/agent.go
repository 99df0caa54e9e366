// Package agent orchestrates one conversation turn: context resolution,
// cached provider fetches, pool merging, batch rotation and session state
// updates.
package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/tripbrain-dev/tripbrain/internal/cache"
	"github.com/tripbrain-dev/tripbrain/internal/geocode"
	"github.com/tripbrain-dev/tripbrain/internal/metrics"
	"github.com/tripbrain-dev/tripbrain/internal/nlu"
	"github.com/tripbrain-dev/tripbrain/internal/places"
	"github.com/tripbrain-dev/tripbrain/internal/resolver"
	"github.com/tripbrain-dev/tripbrain/internal/state"
	"github.com/tripbrain-dev/tripbrain/internal/store"
	"github.com/tripbrain-dev/tripbrain/internal/weather"
	apperrors "github.com/tripbrain-dev/tripbrain/pkg/app/errors"
)

// LocationExtractor extracts a location name from a single message.
type LocationExtractor interface {
	ExtractLocation(ctx context.Context, message string) (string, error)
}

// IntentClassifier labels a single message.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, message string) (nlu.Intent, error)
}

// Suggester produces generative place suggestions for a location.
type Suggester interface {
	SuggestPlaces(ctx context.Context, locationName string, lat, lon float64, count int) ([]places.Record, error)
}

// Geocoder resolves a location name to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, query string) (*geocode.Location, error)
}

// WeatherProvider fetches a weather snapshot for coordinates.
type WeatherProvider interface {
	Fetch(ctx context.Context, lat, lon float64) (*weather.Snapshot, error)
}

// POIProvider fetches nearby places for coordinates.
type POIProvider interface {
	Fetch(ctx context.Context, lat, lon float64) ([]places.Record, error)
}

// Deps carries the collaborators a Service needs. Every provider is an
// injected capability so the service stays provider-agnostic and testable
// with fakes.
type Deps struct {
	Extractor  LocationExtractor
	Classifier IntentClassifier
	Suggester  Suggester
	Geocoder   Geocoder
	Weather    WeatherProvider
	POIs       POIProvider

	States       *state.Manager
	WeatherCache *cache.Cache
	PlacesCache  *cache.Cache
	ChatStore    store.Store

	BatchSize    int
	PoolLimit    int
	RadiusMeters int
}

// Service processes conversation turns.
type Service struct {
	deps Deps
}

// NewService creates the turn orchestrator.
func NewService(deps Deps) *Service {
	if deps.BatchSize <= 0 {
		deps.BatchSize = places.DefaultBatchSize
	}
	if deps.PoolLimit <= 0 {
		deps.PoolLimit = 50
	}
	return &Service{deps: deps}
}

// Step records one stage of a turn for debugging and the UI.
type Step struct {
	Name    string `json:"step_name"`
	Status  string `json:"status"` // "success", "failed", "skipped"
	Details string `json:"details"`
}

// TurnResult is the outcome of one turn. ErrorCode is set for user-facing
// failure outcomes (location required, location not recognized); transient
// infrastructure failures surface as Go errors from HandleTurn instead.
type TurnResult struct {
	SessionID string            `json:"session_id"`
	Message   string            `json:"message"`
	Location  *geocode.Location `json:"resolved_location,omitempty"`
	Intent    nlu.Intent        `json:"intent"`
	Weather   *weather.Snapshot `json:"weather,omitempty"`
	Places    []places.Record   `json:"places,omitempty"`
	Exhausted bool              `json:"exhausted,omitempty"`
	FollowUp  bool              `json:"follow_up,omitempty"`
	ErrorCode string            `json:"error_code,omitempty"`
	Steps     []Step            `json:"steps,omitempty"`
}

// HandleTurn processes a single conversation turn for a session.
func (s *Service) HandleTurn(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(message) == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "session id and message are required", nil)
	}

	result := &TurnResult{SessionID: sessionID, Intent: nlu.IntentUnknown}

	// Extraction failure degrades to the continuation path; it never fails
	// the turn on its own.
	extracted, err := s.deps.Extractor.ExtractLocation(ctx, message)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("extraction").Inc()
		log.Warn().Err(err).Str("component", "agent").Str("session_id", sessionID).
			Msg("location extraction failed, falling back to session state")
		extracted = ""
	}

	sess, err := s.deps.States.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	res := resolver.Resolve(extracted, sess, message)
	result.FollowUp = res.FollowUp

	switch res.State {
	case resolver.NoLocation:
		// Terminal for the turn; the session is not mutated and nothing
		// is guessed.
		result.ErrorCode = apperrors.ErrCodeLocationRequired
		result.Message = "I need a location to help with that. Which city are you asking about?"
		metrics.TurnsTotal.WithLabelValues(string(result.Intent), "location_required").Inc()
		return result, nil

	case resolver.NewLocation:
		loc, outcome, err := s.resolveNewLocation(ctx, sessionID, res)
		if err != nil {
			return nil, err
		}
		if outcome != nil {
			metrics.TurnsTotal.WithLabelValues(string(result.Intent), "geocode_not_found").Inc()
			outcome.FollowUp = res.FollowUp
			return outcome, nil
		}
		result.Location = loc
		result.Steps = append(result.Steps, Step{Name: "Geocoding", Status: "success", Details: "Found " + loc.Name})
		// Re-load: UpdateLocation may have cleared the rotation set.
		sess, err = s.deps.States.GetOrCreate(ctx, sessionID)
		if err != nil {
			return nil, err
		}

	case resolver.Continuation:
		loc := &geocode.Location{Name: res.Location, Lat: res.Lat, Lon: res.Lon}
		if !res.HasCoords {
			// Stored location without coordinates; re-geocode it.
			resolved, outcome, err := s.geocodeAndStore(ctx, sessionID, res.Location)
			if err != nil {
				return nil, err
			}
			if outcome != nil {
				outcome.FollowUp = res.FollowUp
				return outcome, nil
			}
			loc = resolved
		}
		result.Location = loc
		result.Steps = append(result.Steps, Step{Name: "Geocoding", Status: "skipped", Details: "Using session location " + loc.Name})
	}

	result.Intent = s.classify(ctx, message)
	result.Steps = append(result.Steps, Step{Name: "Intent Classification", Status: "success", Details: string(result.Intent)})

	var weatherErr, placesErr error

	if result.Intent == nlu.IntentWeather || result.Intent == nlu.IntentBoth {
		snapshot, err := s.GetWeather(ctx, result.Location.Lat, result.Location.Lon)
		if err != nil {
			weatherErr = err
			metrics.ProviderFailures.WithLabelValues("weather").Inc()
			result.Steps = append(result.Steps, Step{Name: "Weather", Status: "failed", Details: err.Error()})
		} else {
			result.Weather = snapshot
			result.Steps = append(result.Steps, Step{Name: "Weather", Status: "success", Details: snapshot.Condition})
		}
	}

	if result.Intent == nlu.IntentPlaces || result.Intent == nlu.IntentBoth {
		batch, exhausted, err := s.placeBatch(ctx, sess, result.Location)
		if err != nil {
			placesErr = err
			result.Steps = append(result.Steps, Step{Name: "Places", Status: "failed", Details: err.Error()})
		} else {
			result.Places = batch
			result.Exhausted = exhausted
			result.Steps = append(result.Steps, Step{
				Name:    "Places",
				Status:  "success",
				Details: fmt.Sprintf("Selected %d new places (exhausted=%t)", len(batch), exhausted),
			})
		}
	}

	if err := s.turnError(result.Intent, weatherErr, placesErr); err != nil {
		metrics.TurnsTotal.WithLabelValues(string(result.Intent), "failed").Inc()
		return nil, err
	}

	result.Message = buildResponse(result)
	s.saveChatLog(ctx, sessionID, message, result.Message)
	metrics.TurnsTotal.WithLabelValues(string(result.Intent), "success").Inc()

	return result, nil
}

// resolveNewLocation geocodes a freshly extracted name. When the name is a
// re-mention of the stored location with known coordinates, the stored
// coordinates are trusted and geocoding is skipped.
func (s *Service) resolveNewLocation(ctx context.Context, sessionID string, res resolver.Resolution) (*geocode.Location, *TurnResult, error) {
	if res.SameAsStored && res.HasCoords {
		return &geocode.Location{Name: res.Location, Lat: res.Lat, Lon: res.Lon}, nil, nil
	}
	return s.geocodeAndStore(ctx, sessionID, res.Location)
}

// geocodeAndStore resolves a name and persists it as the session's current
// location. A not-found outcome leaves session state untouched.
func (s *Service) geocodeAndStore(ctx context.Context, sessionID, query string) (*geocode.Location, *TurnResult, error) {
	loc, err := s.deps.Geocoder.Resolve(ctx, query)
	if apperrors.HasCode(err, apperrors.ErrCodeGeocodeNotFound) {
		outcome := &TurnResult{
			SessionID: sessionID,
			Intent:    nlu.IntentUnknown,
			ErrorCode: apperrors.ErrCodeGeocodeNotFound,
			Message:   fmt.Sprintf("I'm sorry, I couldn't find a location matching %q. Could you be more specific?", query),
			Steps:     []Step{{Name: "Geocoding", Status: "failed", Details: "No results for " + query}},
		}
		return nil, outcome, nil
	}
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("geocode").Inc()
		return nil, nil, err
	}

	if _, err := s.deps.States.UpdateLocation(ctx, sessionID, loc.Name, loc.Lat, loc.Lon); err != nil {
		return nil, nil, err
	}
	return loc, nil, nil
}

func (s *Service) classify(ctx context.Context, message string) nlu.Intent {
	intent, err := s.deps.Classifier.ClassifyIntent(ctx, message)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("classification").Inc()
		log.Warn().Err(err).Str("component", "agent").Msg("intent classification failed, using keyword heuristic")
		return nlu.HeuristicIntent(message)
	}
	if intent == nlu.IntentUnknown {
		return nlu.HeuristicIntent(message)
	}
	return intent
}

// GetWeather returns the weather snapshot for coordinates, serving a fresh
// cache entry when one exists and refetching otherwise. A stale entry is a
// miss. Cache failures degrade to a live fetch.
func (s *Service) GetWeather(ctx context.Context, lat, lon float64) (*weather.Snapshot, error) {
	key := cache.Key(cache.KindWeather, lat, lon)

	var cached weather.Snapshot
	found, fresh, err := s.deps.WeatherCache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(cache.KindWeather, "error").Inc()
		log.Warn().Err(err).Str("component", "agent").Str("key", key).
			Msg("weather cache unavailable, fetching without cache")
	case found && fresh:
		metrics.CacheLookups.WithLabelValues(cache.KindWeather, "hit").Inc()
		return &cached, nil
	case found:
		metrics.CacheLookups.WithLabelValues(cache.KindWeather, "stale").Inc()
	default:
		metrics.CacheLookups.WithLabelValues(cache.KindWeather, "miss").Inc()
	}

	snapshot, err := s.deps.Weather.Fetch(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if err := s.deps.WeatherCache.Put(ctx, key, snapshot); err != nil {
		log.Warn().Err(err).Str("component", "agent").Str("key", key).
			Msg("failed to cache weather snapshot, proceeding uncached")
	}
	return snapshot, nil
}

// GetPlacePool returns the merged candidate pool for a location, from cache
// when fresh, otherwise assembled from the POI and generative providers.
// One source failing degrades to the surviving pool; both failing is a
// transient error.
func (s *Service) GetPlacePool(ctx context.Context, loc *geocode.Location) ([]places.Record, error) {
	key := cache.Key(cache.KindPlaces, loc.Lat, loc.Lon, "r"+strconv.Itoa(s.deps.RadiusMeters))

	var pool []places.Record
	found, fresh, err := s.deps.PlacesCache.Get(ctx, key, &pool)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(cache.KindPlaces, "error").Inc()
		log.Warn().Err(err).Str("component", "agent").Str("key", key).
			Msg("places cache unavailable, fetching without cache")
	case found && fresh:
		metrics.CacheLookups.WithLabelValues(cache.KindPlaces, "hit").Inc()
		return pool, nil
	case found:
		metrics.CacheLookups.WithLabelValues(cache.KindPlaces, "stale").Inc()
	default:
		metrics.CacheLookups.WithLabelValues(cache.KindPlaces, "miss").Inc()
	}

	geoRecords, geoErr := s.deps.POIs.Fetch(ctx, loc.Lat, loc.Lon)
	if geoErr != nil {
		metrics.ProviderFailures.WithLabelValues("poi").Inc()
		log.Warn().Err(geoErr).Str("component", "agent").Str("location", loc.Name).
			Msg("POI source failed, degrading to generative suggestions")
	}

	suggested, sugErr := s.deps.Suggester.SuggestPlaces(ctx, loc.Name, loc.Lat, loc.Lon, 0)
	if sugErr != nil {
		metrics.ProviderFailures.WithLabelValues("suggestions").Inc()
		log.Warn().Err(sugErr).Str("component", "agent").Str("location", loc.Name).
			Msg("generative suggestion source failed")
	}

	if geoErr != nil && sugErr != nil {
		combined := multierror.Append(geoErr, sugErr)
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable,
			"both place sources are unavailable", combined.ErrorOrNil())
	}

	pool = places.Merge(geoRecords, suggested)
	if len(pool) > s.deps.PoolLimit {
		pool = pool[:s.deps.PoolLimit]
	}

	if err := s.deps.PlacesCache.Put(ctx, key, pool); err != nil {
		log.Warn().Err(err).Str("component", "agent").Str("key", key).
			Msg("failed to cache place pool, proceeding uncached")
	}
	return pool, nil
}

// placeBatch selects the next non-repeating batch for the session and
// extends its shown set.
func (s *Service) placeBatch(ctx context.Context, sess *state.SessionState, loc *geocode.Location) ([]places.Record, bool, error) {
	pool, err := s.GetPlacePool(ctx, loc)
	if err != nil {
		return nil, false, err
	}

	batch, exhausted := places.SelectBatch(pool, sess.ShownPlaceIDs, s.deps.BatchSize)
	if err := s.deps.States.RecordShown(ctx, sess.SessionID, places.IDs(batch)); err != nil {
		return nil, false, err
	}
	return batch, exhausted, nil
}

// turnError decides whether provider failures fail the whole turn. Failures
// are recoverable per-source: the turn only fails when every source the
// intent needs has failed.
func (s *Service) turnError(intent nlu.Intent, weatherErr, placesErr error) error {
	switch intent {
	case nlu.IntentWeather:
		return weatherErr
	case nlu.IntentPlaces:
		return placesErr
	case nlu.IntentBoth:
		if weatherErr != nil && placesErr != nil {
			combined := multierror.Append(weatherErr, placesErr)
			return apperrors.New(apperrors.ErrCodeProviderUnavailable,
				"all data sources are unavailable", combined.ErrorOrNil())
		}
	}
	return nil
}
