package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tripbrain-dev/tripbrain/pkg/app/errors"
)

func TestConditionText(t *testing.T) {
	assert.Equal(t, "Clear sky", ConditionText(0))
	assert.Equal(t, "Mainly clear, partly cloudy", ConditionText(2))
	assert.Equal(t, "Fog", ConditionText(45))
	assert.Equal(t, "Drizzle", ConditionText(53))
	assert.Equal(t, "Rain", ConditionText(63))
	assert.Equal(t, "Snow fall", ConditionText(73))
	assert.Equal(t, "Thunderstorm", ConditionText(95))
	assert.Equal(t, "Overcast", ConditionText(80))
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "48.8566", q.Get("latitude"))
		assert.Equal(t, "7", q.Get("forecast_days"))

		w.Write([]byte(`{
			"current": {
				"temperature_2m": 21.4,
				"relative_humidity_2m": 55,
				"apparent_temperature": 20.1,
				"precipitation_probability": 10,
				"weather_code": 2,
				"wind_speed_10m": 12.5
			},
			"daily": {
				"time": ["2026-08-30", "2026-08-31"],
				"temperature_2m_max": [24.0, 22.5],
				"temperature_2m_min": [15.0, 14.2],
				"precipitation_probability_max": [10, 60],
				"weather_code": [1, 61]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	snapshot, err := client.Fetch(context.Background(), 48.8566, 2.3522)
	require.NoError(t, err)

	assert.InDelta(t, 21.4, snapshot.Temperature, 1e-9)
	assert.Equal(t, "Mainly clear, partly cloudy", snapshot.Condition)
	require.NotNil(t, snapshot.FeelsLike)
	assert.InDelta(t, 20.1, *snapshot.FeelsLike, 1e-9)
	require.NotNil(t, snapshot.Humidity)
	assert.Equal(t, 55, *snapshot.Humidity)

	require.Len(t, snapshot.DailyForecast, 2)
	assert.Equal(t, "2026-08-30", snapshot.DailyForecast[0].Date)
	assert.Equal(t, "Rain", snapshot.DailyForecast[1].Condition)
	assert.Equal(t, 60, snapshot.DailyForecast[1].RainProbability)
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	_, err := client.Fetch(context.Background(), 0, 0)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeProviderUnavailable))
}

func TestFetchToleratesMissingOptionalFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"current": {"temperature_2m": 5.0, "weather_code": 71}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	snapshot, err := client.Fetch(context.Background(), 0, 0)
	require.NoError(t, err)

	assert.Equal(t, "Snow fall", snapshot.Condition)
	assert.Nil(t, snapshot.FeelsLike)
	assert.Nil(t, snapshot.Humidity)
	assert.Empty(t, snapshot.DailyForecast)
}
