package routing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/evtrip/internal/api/routing"
	"github.com/langchou/evtrip/internal/geo"
)

// directionsFixture 构造一个 directions 风格响应体
func directionsFixture(legs int) map[string]interface{} {
	legList := make([]map[string]interface{}, legs)
	for i := range legList {
		legList[i] = map[string]interface{}{
			"distance": map[string]interface{}{"value": 120000.0 + float64(i)},
			"duration": map[string]interface{}{"value": 4300.0 + float64(i)},
		}
	}
	return map[string]interface{}{
		"status": "OK",
		"routes": []map[string]interface{}{{
			"legs":              legList,
			"overview_polyline": map[string]interface{}{"points": "_p~iF~ps|U_ulLnnqC"},
			"bounds": map[string]interface{}{
				"northeast": map[string]interface{}{"lat": 51.0, "lng": -100.0},
				"southwest": map[string]interface{}{"lat": 50.0, "lng": -101.0},
			},
		}},
	}
}

func TestRouteRequiresTwoCoords(t *testing.T) {
	client := routing.NewClient("http://unused", "key", 0, zap.NewNop())
	_, err := client.Route(context.Background(), []geo.Coord{{Lat: 50, Lng: -100}})

	var oracleErr *routing.OracleError
	assert.ErrorAs(t, err, &oracleErr)
}

func TestRouteRequiresAPIKey(t *testing.T) {
	client := routing.NewClient("http://unused", "", 0, zap.NewNop())
	_, err := client.Route(context.Background(), []geo.Coord{{Lat: 50, Lng: -100}, {Lat: 51, Lng: -100}})

	var oracleErr *routing.OracleError
	assert.ErrorAs(t, err, &oracleErr)
}

func TestRouteParsesResponse(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		require.Equal(t, "/directions/json", r.URL.Path)
		json.NewEncoder(w).Encode(directionsFixture(1))
	}))
	defer server.Close()

	client := routing.NewClient(server.URL, "test-key", 0, zap.NewNop())
	result, err := client.Route(context.Background(), []geo.Coord{
		{Lat: 50.45, Lng: -104.61},
		{Lat: 50.39, Lng: -105.53},
	})
	require.NoError(t, err)

	require.Len(t, result.Legs, 1)
	assert.Equal(t, 120000.0, result.Legs[0].DistanceMeters)
	assert.Equal(t, 4300.0, result.Legs[0].DurationSeconds)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC", result.OverviewPolyline)
	assert.Equal(t, 51.0, result.Bounds.Northeast.Lat)
	assert.Equal(t, -101.0, result.Bounds.Southwest.Lng)

	assert.Equal(t, []string{"50.450000,-104.610000"}, gotQuery["origin"])
	assert.Equal(t, []string{"50.390000,-105.530000"}, gotQuery["destination"])
	assert.Equal(t, []string{"test-key"}, gotQuery["key"])
}

func TestRouteSendsWaypoints(t *testing.T) {
	var gotWaypoints string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWaypoints = r.URL.Query().Get("waypoints")
		json.NewEncoder(w).Encode(directionsFixture(2))
	}))
	defer server.Close()

	client := routing.NewClient(server.URL, "test-key", 0, zap.NewNop())
	result, err := client.Route(context.Background(), []geo.Coord{
		{Lat: 50, Lng: -100},
		{Lat: 50.5, Lng: -100.5},
		{Lat: 51, Lng: -101},
	})
	require.NoError(t, err)

	assert.Len(t, result.Legs, 2)
	assert.Equal(t, "50.500000,-100.500000", gotWaypoints)
}

func TestRouteLegCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(directionsFixture(3)) // 两点请求应只有 1 段
	}))
	defer server.Close()

	client := routing.NewClient(server.URL, "test-key", 0, zap.NewNop())
	_, err := client.Route(context.Background(), []geo.Coord{
		{Lat: 50, Lng: -100},
		{Lat: 51, Lng: -101},
	})

	var oracleErr *routing.OracleError
	assert.ErrorAs(t, err, &oracleErr)
}

func TestRouteUpstreamStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":        "ZERO_RESULTS",
			"error_message": "no route",
		})
	}))
	defer server.Close()

	client := routing.NewClient(server.URL, "test-key", 0, zap.NewNop())
	_, err := client.Route(context.Background(), []geo.Coord{
		{Lat: 50, Lng: -100},
		{Lat: 51, Lng: -101},
	})

	var oracleErr *routing.OracleError
	require.ErrorAs(t, err, &oracleErr)
	assert.Contains(t, err.Error(), "ZERO_RESULTS")
}

func TestRouteCachesTwoPointQueries(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode(directionsFixture(1))
	}))
	defer server.Close()

	client := routing.NewClient(server.URL, "test-key", 0, zap.NewNop())
	coords := []geo.Coord{{Lat: 50, Lng: -100}, {Lat: 51, Lng: -101}}

	first, err := client.Route(context.Background(), coords)
	require.NoError(t, err)
	second, err := client.Route(context.Background(), coords)
	require.NoError(t, err)

	assert.Equal(t, 1, requests)
	assert.Same(t, first, second)
	assert.Equal(t, 1, client.CacheSize())
}
