package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"github.com/atlascommand/chaincontrol/server/internal/cache"
	"github.com/atlascommand/chaincontrol/server/internal/clients/caltrans"
	"github.com/atlascommand/chaincontrol/server/internal/config"
	"github.com/atlascommand/chaincontrol/server/internal/lib/briefing"
	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/lib/geo"
	"github.com/atlascommand/chaincontrol/server/internal/services"
)

// Passes north of a two-point route at 40N; 0.1 degrees of latitude is ~6.9 miles
var testCatalog = chaincontrol.Catalog{
	{ID: "alpha", Name: "Alpha Pass", Highway: "I-1", State: "UT", Lat: 40.1, Lng: -110.0, Elevation: 7000},
	{ID: "bravo", Name: "Bravo Pass", Highway: "I-1", State: "UT", Lat: 40.2, Lng: -110.0, Elevation: 8000},
	{ID: "charlie", Name: "Charlie Pass", Highway: "I-1", State: "UT", Lat: 40.3, Lng: -110.0, Elevation: 9000},
	{ID: "delta", Name: "Delta Pass", Highway: "US-2", State: "UT", Lat: 40.05, Lng: -109.0, Elevation: 6000},
	{ID: "echo", Name: "Echo Pass", Highway: "US-2", State: "UT", Lat: 40.15, Lng: -109.0, Elevation: 6500},
	{ID: "faraway", Name: "Faraway Pass", Highway: "US-3", State: "WY", Lat: 45.0, Lng: -100.0, Elevation: 9500},
}

const testRouteParam = "40,-110;40,-109"

// testWeather reports heavy snow at Alpha, a blizzard at Delta and nothing elsewhere
var testWeather = chaincontrol.WeatherLookupFunc(func(ctx context.Context, lat, lng float64) (*chaincontrol.WeatherSnapshot, error) {
	switch {
	case lat == 40.1 && lng == -110.0:
		return &chaincontrol.WeatherSnapshot{Condition: "Snow", Description: "heavy snow", Temp: 25, WindSpeed: 10}, nil
	case lat == 40.05 && lng == -109.0:
		return &chaincontrol.WeatherSnapshot{Condition: "Snow", Description: "blizzard", Temp: 15, WindSpeed: 45}, nil
	}
	return nil, nil
})

type fakeControls struct {
	controls []caltrans.ChainControl
	err      error
}

func (f *fakeControls) ChainControls(ctx context.Context) ([]caltrans.ChainControl, error) {
	return f.controls, f.err
}

var testControls = []caltrans.ChainControl{
	{Name: "Route 1 near Alpha", Level: chaincontrol.LevelR2, Location: geo.Point{Latitude: 40.01, Longitude: -109.98}},
	{Name: "Route 2 near Delta", Level: chaincontrol.LevelR1, Location: geo.Point{Latitude: 40.0, Longitude: -109.1}},
	{Name: "Route 1 clear", Level: chaincontrol.LevelNone, Location: geo.Point{Latitude: 40.0, Longitude: -109.5}},
	{Name: "Far away closure", Level: chaincontrol.LevelR3, Location: geo.Point{Latitude: 45.0, Longitude: -100.0}},
}

func newTestRouter(t *testing.T, opts ...services.AdvisoryOption) http.Handler {
	t.Helper()
	cfg := config.DefaultConfig().ChainControl
	cfg.MonitoredRoutes = []config.MonitoredRoute{{
		ID:   "test-route",
		Name: "Test Route",
		Waypoints: []config.CoordinatesYAML{
			{Latitude: 40, Longitude: -110},
			{Latitude: 40, Longitude: -109},
		},
	}}

	advisor := chaincontrol.NewAdvisor(testWeather, chaincontrol.WithCatalog(testCatalog))
	svc := services.NewAdvisoryService(advisor, cache.NewCache(), &cfg, opts...)
	h := NewHandler(svc, briefing.NewTemplateWriter(), testCatalog, cfg.SearchRadiusMiles)
	return NewRouter(h)
}

func do(t *testing.T, router http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v), rec.Body.String())
	return v
}

func TestListPasses(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/passes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[struct {
		Passes []chaincontrol.MountainPass `json:"passes"`
		Count  int                         `json:"count"`
	}](t, rec)
	assert.Equal(t, len(testCatalog), resp.Count)
	assert.Equal(t, "alpha", resp.Passes[0].ID)
}

func TestPassesNear(t *testing.T) {
	router := newTestRouter(t)

	type nearResponse struct {
		Passes      []chaincontrol.NearbyPass `json:"passes"`
		Count       int                       `json:"count"`
		RadiusMiles float64                   `json:"radius_miles"`
	}

	rec := do(t, router, http.MethodGet, "/api/v1/passes/near?route="+testRouteParam, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[nearResponse](t, rec)
	assert.Equal(t, 5, resp.Count)
	assert.Equal(t, 25.0, resp.RadiusMiles)
	assert.Equal(t, "delta", resp.Passes[0].ID, "nearest first")

	rec = do(t, router, http.MethodGet, "/api/v1/passes/near?radius=5&route="+testRouteParam, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[nearResponse](t, rec)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "delta", resp.Passes[0].ID)
}

func TestPassesNear_Polyline(t *testing.T) {
	router := newTestRouter(t)
	encoded := string(polyline.EncodeCoords([][]float64{{40, -110}, {40, -109}}))

	rec := do(t, router, http.MethodGet, "/api/v1/passes/near?radius=5&polyline="+url.QueryEscape(encoded), "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Count int `json:"count"`
	}](t, rec)
	assert.Equal(t, 1, resp.Count)
}

func TestChainControls_Get(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/chain-controls?route="+testRouteParam, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[AdvisoryView](t, rec)
	require.Len(t, resp.Alerts, 2)
	assert.Equal(t, 2, resp.Count)

	assert.Equal(t, "delta", resp.Alerts[0].PassID)
	assert.Equal(t, "R3", resp.Alerts[0].ChainRequirement.Code)
	assert.Equal(t, "🚫", resp.Alerts[0].Emoji)
	assert.Equal(t, chaincontrol.ChainControlAdvice(chaincontrol.LevelR3), resp.Alerts[0].Advice)

	assert.Equal(t, "alpha", resp.Alerts[1].PassID)
	assert.Equal(t, "R2", resp.Alerts[1].ChainRequirement.Code)
	assert.Equal(t, "⛓️", resp.Alerts[1].Emoji)

	assert.True(t, resp.Closed)
	assert.Equal(t, "R3", resp.HighestLevel.Code)
	assert.Equal(t, "🚫", resp.Emoji)
}

func TestChainControls_Post(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/chain-controls",
		`{"waypoints":[{"lat":40,"lng":-110,"name":"west"},{"lat":40,"lng":-109,"name":"east"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[AdvisoryView](t, rec)
	require.Len(t, resp.Alerts, 2)
	assert.Equal(t, "delta", resp.Alerts[0].PassID)
}

func TestChainControls_ShortRouteIsEmpty(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/chain-controls?route=40,-110", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[AdvisoryView](t, rec)
	assert.NotNil(t, resp.Alerts)
	assert.Empty(t, resp.Alerts)
	assert.False(t, resp.Closed)
	assert.Equal(t, "NONE", resp.HighestLevel.Code)
}

func TestChainControls_BadRequests(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{name: "no route", method: http.MethodGet, target: "/api/v1/chain-controls"},
		{name: "malformed pair", method: http.MethodGet, target: "/api/v1/chain-controls?route=40,-110;abc"},
		{name: "three values", method: http.MethodGet, target: "/api/v1/chain-controls?route=40,-110,5;40,-109"},
		{name: "bad latitude", method: http.MethodGet, target: "/api/v1/chain-controls?route=95,-110;40,-109"},
		{name: "bad longitude", method: http.MethodGet, target: "/api/v1/chain-controls?route=40,-190;40,-109"},
		{name: "bad polyline", method: http.MethodGet, target: "/api/v1/chain-controls?polyline=%7E"},
		{name: "bad radius", method: http.MethodGet, target: "/api/v1/passes/near?radius=-3&route=" + testRouteParam},
		{name: "empty body", method: http.MethodPost, target: "/api/v1/chain-controls"},
		{name: "invalid json", method: http.MethodPost, target: "/api/v1/chain-controls", body: `{"waypoints":`},
		{name: "unknown field", method: http.MethodPost, target: "/api/v1/chain-controls", body: `{"points":[]}`},
		{name: "missing waypoints", method: http.MethodPost, target: "/api/v1/chain-controls", body: `{}`},
		{name: "out of range body", method: http.MethodPost, target: "/api/v1/chain-controls", body: `{"waypoints":[{"lat":40,"lng":-110},{"lat":-91,"lng":-109}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.target, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, codeInvalidRequest, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestChainControlsKML(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/chain-controls.kml?route="+testRouteParam, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, kmlContentType, rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<kml")
	assert.Equal(t, 2, strings.Count(body, "<Placemark>"))
	assert.Contains(t, body, "R3 Delta Pass")
	assert.Contains(t, body, "#level-R3")
	assert.Less(t, strings.Index(body, "Delta Pass"), strings.Index(body, "Alpha Pass"))
}

func TestOfficialControls(t *testing.T) {
	router := newTestRouter(t, services.WithOfficialControls(&fakeControls{controls: testControls}, time.Minute))

	rec := do(t, router, http.MethodGet, "/api/v1/chain-controls/official?route="+testRouteParam, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[struct {
		Controls []struct {
			Name              string                  `json:"name"`
			Level             chaincontrol.ChainLevel `json:"level"`
			DistanceFromRoute float64                 `json:"distance_from_route"`
		} `json:"controls"`
		Count int `json:"count"`
	}](t, rec)

	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "Route 1 near Alpha", resp.Controls[0].Name)
	assert.Equal(t, "R2", resp.Controls[0].Level.Code)
	assert.Equal(t, "Route 2 near Delta", resp.Controls[1].Name)
	assert.InDelta(t, 5.3, resp.Controls[1].DistanceFromRoute, 0.2)
}

func TestOfficialControls_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		router := newTestRouter(t)
		rec := do(t, router, http.MethodGet, "/api/v1/chain-controls/official?route="+testRouteParam, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, codeUnavailable, decode[ErrorResponse](t, rec).Error.Code)
	})

	t.Run("feed failure", func(t *testing.T) {
		router := newTestRouter(t, services.WithOfficialControls(&fakeControls{err: errors.New("connection reset")}, time.Minute))
		rec := do(t, router, http.MethodGet, "/api/v1/chain-controls/official?route="+testRouteParam, "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, codeUpstream, decode[ErrorResponse](t, rec).Error.Code)
	})
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/routes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Routes []routeSummary `json:"routes"`
	}](t, rec)
	assert.Equal(t, []routeSummary{{ID: "test-route", Name: "Test Route"}}, resp.Routes)

	rec = do(t, router, http.MethodGet, "/api/v1/routes/test-route/advisory", "")
	require.Equal(t, http.StatusOK, rec.Code)
	advisory := decode[AdvisoryView](t, rec)
	assert.Equal(t, "test-route", advisory.RouteID)
	assert.Equal(t, "Test Route", advisory.RouteName)
	assert.Len(t, advisory.Alerts, 2)
	assert.False(t, advisory.Stale)

	rec = do(t, router, http.MethodGet, "/api/v1/routes/nowhere/advisory", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeNotFound, decode[ErrorResponse](t, rec).Error.Code)
}

func TestBriefings(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/briefings", `{"route_id":"test-route"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[BriefingView](t, rec)
	assert.Equal(t, "Delta Pass closed on Test Route", resp.Briefing.Headline)
	assert.Equal(t, "R3", resp.Briefing.Level)
	assert.Equal(t, briefing.SourceTemplate, resp.Briefing.Source)
	assert.Len(t, resp.Advisory.Alerts, 2)

	rec = do(t, router, http.MethodPost, "/api/v1/briefings",
		`{"route_name":"Ad hoc","waypoints":[{"lat":40,"lng":-110},{"lat":40,"lng":-109}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[BriefingView](t, rec)
	assert.Equal(t, "Delta Pass closed on Ad hoc", resp.Briefing.Headline)
	assert.Equal(t, "Ad hoc", resp.Advisory.RouteName)

	rec = do(t, router, http.MethodPost, "/api/v1/briefings", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/briefings", `{"route_id":"nowhere"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_MetricsAndFallbacks(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/passes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "atlas_http_requests_total")

	rec = do(t, router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/chain-controls")

	rec = do(t, router, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeNotFound, decode[ErrorResponse](t, rec).Error.Code)

	rec = do(t, router, http.MethodDelete, "/api/v1/passes", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
