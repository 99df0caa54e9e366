// Package weather fetches current conditions and the week-ahead forecast
// from the Open-Meteo API.
package weather

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
	// DefaultBaseURL is the public Open-Meteo forecast endpoint.
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

	defaultTimeout = 10 * time.Second
	forecastDays   = 7
)

// DailyForecast is one day of the week-ahead forecast.
type DailyForecast struct {
	Date            string  `json:"date"`
	MaxTemp         float64 `json:"max_temp"`
	MinTemp         float64 `json:"min_temp"`
	Condition       string  `json:"condition"`
	RainProbability int     `json:"rain_probability"`
}

// Snapshot is the weather payload for one location.
type Snapshot struct {
	Temperature     float64         `json:"temperature"`
	Condition       string          `json:"condition"`
	FeelsLike       *float64        `json:"feels_like,omitempty"`
	Humidity        *int            `json:"humidity,omitempty"`
	WindSpeed       *float64        `json:"wind_speed,omitempty"`
	RainProbability *int            `json:"rain_probability,omitempty"`
	Pressure        *float64        `json:"pressure,omitempty"`
	DailyForecast   []DailyForecast `json:"daily_forecast,omitempty"`
}

// Client calls the Open-Meteo forecast API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a weather client. An empty baseURL selects the public
// endpoint.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type openMeteoResponse struct {
	Current struct {
		Temperature2m            float64  `json:"temperature_2m"`
		RelativeHumidity2m       *int     `json:"relative_humidity_2m"`
		ApparentTemperature      *float64 `json:"apparent_temperature"`
		PrecipitationProbability *int     `json:"precipitation_probability"`
		WeatherCode              int      `json:"weather_code"`
		SurfacePressure          *float64 `json:"surface_pressure"`
		WindSpeed10m             *float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		Time                        []string  `json:"time"`
		Temperature2mMax            []float64 `json:"temperature_2m_max"`
		Temperature2mMin            []float64 `json:"temperature_2m_min"`
		PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
		WeatherCode                 []int     `json:"weather_code"`
	} `json:"daily"`
}

// Fetch retrieves the current weather and 7-day forecast for coordinates.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation_probability,weather_code,surface_pressure,wind_speed_10m")
	params.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_probability_max,weather_code")
	params.Set("timezone", "auto")
	params.Set("forecast_days", strconv.Itoa(forecastDays))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "failed to create weather request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "weather request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable,
			fmt.Sprintf("weather API returned status %d", resp.StatusCode), nil)
	}

	var raw openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "failed to decode weather response", err)
	}

	snapshot := &Snapshot{
		Temperature:     raw.Current.Temperature2m,
		Condition:       ConditionText(raw.Current.WeatherCode),
		FeelsLike:       raw.Current.ApparentTemperature,
		Humidity:        raw.Current.RelativeHumidity2m,
		WindSpeed:       raw.Current.WindSpeed10m,
		RainProbability: raw.Current.PrecipitationProbability,
		Pressure:        raw.Current.SurfacePressure,
	}

	days := len(raw.Daily.Time)
	if days > forecastDays {
		days = forecastDays
	}
	for i := 0; i < days; i++ {
		if i >= len(raw.Daily.Temperature2mMax) || i >= len(raw.Daily.Temperature2mMin) || i >= len(raw.Daily.WeatherCode) {
			break
		}
		rainProb := 0
		if i < len(raw.Daily.PrecipitationProbabilityMax) {
			rainProb = int(raw.Daily.PrecipitationProbabilityMax[i])
		}
		snapshot.DailyForecast = append(snapshot.DailyForecast, DailyForecast{
			Date:            raw.Daily.Time[i],
			MaxTemp:         raw.Daily.Temperature2mMax[i],
			MinTemp:         raw.Daily.Temperature2mMin[i],
			Condition:       ConditionText(raw.Daily.WeatherCode[i]),
			RainProbability: rainProb,
		})
	}

	return snapshot, nil
}

// ConditionText maps WMO weather codes to human readable text.
func ConditionText(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code >= 1 && code <= 3:
		return "Mainly clear, partly cloudy"
	case code == 45 || code == 48:
		return "Fog"
	case code == 51 || code == 53 || code == 55:
		return "Drizzle"
	case code == 61 || code == 63 || code == 65:
		return "Rain"
	case code == 71 || code == 73 || code == 75:
		return "Snow fall"
	case code == 95 || code == 96 || code == 99:
		return "Thunderstorm"
	default:
		return "Overcast"
	}
}
