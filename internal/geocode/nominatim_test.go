package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tripbrain-dev/tripbrain/pkg/app/errors"
)

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522","display_name":"Paris, Île-de-France, France"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0)
	loc, err := client.Resolve(context.Background(), "Paris")
	require.NoError(t, err)

	assert.Equal(t, "Paris", loc.Name)
	assert.InDelta(t, 48.8566, loc.Lat, 1e-9)
	assert.InDelta(t, 2.3522, loc.Lon, 1e-9)
	assert.Equal(t, "Paris, Île-de-France, France", loc.DisplayName)
}

func TestResolveNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0)
	_, err := client.Resolve(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeGeocodeNotFound))
	assert.Contains(t, err.Error(), "Atlantis")
}

func TestResolveServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0)
	_, err := client.Resolve(context.Background(), "Paris")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeProviderUnavailable))
}

func TestResolveMalformedCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"lat":"not-a-number","lon":"2.35","display_name":"x"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0)
	_, err := client.Resolve(context.Background(), "Paris")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeProviderUnavailable))
}
