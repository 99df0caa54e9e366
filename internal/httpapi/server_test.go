package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripbrain-dev/tripbrain/internal/agent"
	"github.com/tripbrain-dev/tripbrain/internal/cache"
	"github.com/tripbrain-dev/tripbrain/internal/geocode"
	"github.com/tripbrain-dev/tripbrain/internal/nlu"
	"github.com/tripbrain-dev/tripbrain/internal/places"
	"github.com/tripbrain-dev/tripbrain/internal/state"
	"github.com/tripbrain-dev/tripbrain/internal/store"
	"github.com/tripbrain-dev/tripbrain/internal/weather"
)

type stubNLU struct{}

func (stubNLU) ExtractLocation(context.Context, string) (string, error) { return "Paris", nil }
func (stubNLU) ClassifyIntent(context.Context, string) (nlu.Intent, error) {
	return nlu.IntentPlaces, nil
}
func (stubNLU) SuggestPlaces(context.Context, string, float64, float64, int) ([]places.Record, error) {
	return nil, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Resolve(context.Context, string) (*geocode.Location, error) {
	return &geocode.Location{Name: "Paris", Lat: 48.8566, Lon: 2.3522}, nil
}

type stubWeather struct{}

func (stubWeather) Fetch(context.Context, float64, float64) (*weather.Snapshot, error) {
	return &weather.Snapshot{Temperature: 21, Condition: "Clear sky"}, nil
}

type stubPOI struct{}

func (stubPOI) Fetch(context.Context, float64, float64) ([]places.Record, error) {
	return []places.Record{
		{ID: "louvre", Name: "Louvre", Source: places.SourceGeo},
		{ID: "eiffel tower", Name: "Eiffel Tower", Source: places.SourceGeo},
	}, nil
}

func newTestServer(t *testing.T) (*Server, *state.Manager) {
	t.Helper()

	backing := store.NewMemoryStore()
	states := state.NewManager(backing)
	svc := agent.NewService(agent.Deps{
		Extractor:  stubNLU{},
		Classifier: stubNLU{},
		Suggester:  stubNLU{},
		Geocoder:   stubGeocoder{},
		Weather:    stubWeather{},
		POIs:       stubPOI{},

		States:       states,
		WeatherCache: cache.New(backing, time.Hour),
		PlacesCache:  cache.New(backing, time.Hour),
		ChatStore:    backing,
	})
	return NewServer(svc, states), states
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestChatEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	body := strings.NewReader(`{"session_id":"s1","message":"places in Paris"}`)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var result agent.TurnResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "s1", result.SessionID)
	require.NotNil(t, result.Location)
	assert.Equal(t, "Paris", result.Location.Name)
	assert.Len(t, result.Places, 2)
}

func TestChatEndpointInvalidBody(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpointMissingFields(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"session_id":"s1"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeatherEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	body := strings.NewReader(`{"lat":48.8566,"lon":2.3522}`)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/weather", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot weather.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, "Clear sky", snapshot.Condition)
}

func TestPlacesEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	body := strings.NewReader(`{"lat":48.8566,"lon":2.3522,"location":"Paris"}`)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/places", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "louvre")
}

func TestSessionLifecycle(t *testing.T) {
	server, states := newTestServer(t)
	ctx := context.Background()

	_, err := states.UpdateLocation(ctx, "s1", "Paris", 48.8566, 2.3522)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var sess state.SessionState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "Paris", sess.CurrentLocation)

	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/s1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var after state.SessionState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Empty(t, after.CurrentLocation)
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
