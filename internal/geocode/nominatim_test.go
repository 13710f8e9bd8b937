package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "Av. Paulista, São Paulo, SP", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"-23.5614","lon":"-46.6558"}]`))
	}))
	defer srv.Close()

	g := NewNominatim(srv.URL, "test-agent")
	point, err := g.Lookup(context.Background(), "Av. Paulista, São Paulo, SP")
	require.NoError(t, err)
	require.NotNil(t, point)
	assert.InDelta(t, -23.5614, point.Lat, 1e-6)
	assert.InDelta(t, -46.6558, point.Lng, 1e-6)
}

func TestNominatimNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewNominatim(srv.URL, "test-agent")
	point, err := g.Lookup(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Nil(t, point)
}

func TestNominatimEmptyAddress(t *testing.T) {
	g := NewNominatim("http://unused", "test-agent")
	point, err := g.Lookup(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, point)
}

func TestNominatimServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewNominatim(srv.URL, "test-agent")
	_, err := g.Lookup(context.Background(), "somewhere")
	require.Error(t, err)
}
