package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dpup/prefab/logging"
	"golang.org/x/sync/singleflight"

	"github.com/atlascommand/chaincontrol/server/internal/cache"
	"github.com/atlascommand/chaincontrol/server/internal/clients/caltrans"
	"github.com/atlascommand/chaincontrol/server/internal/clients/google"
	"github.com/atlascommand/chaincontrol/server/internal/config"
	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/lib/geo"
	"github.com/atlascommand/chaincontrol/server/internal/metrics"
)

var (
	// ErrRouteNotFound is returned for route IDs that are not monitored
	ErrRouteNotFound = errors.New("route not found")
	// ErrOfficialControlsUnavailable is returned when no Caltrans feed is configured
	ErrOfficialControlsUnavailable = errors.New("official chain controls not configured")
)

const (
	caltransCacheKey = "caltrans:chain_controls"
	// Route geometry rarely changes
	routeGeometryTTL = 24 * time.Hour
)

// RouteResolver turns an origin and destination into route geometry
type RouteResolver interface {
	ComputeRoute(ctx context.Context, origin, destination geo.Point) (*google.RouteData, error)
}

// ChainControlSource provides officially posted chain controls
type ChainControlSource interface {
	ChainControls(ctx context.Context) ([]caltrans.ChainControl, error)
}

// RouteAdvisory is the chain-control picture for one route
type RouteAdvisory struct {
	RouteID      string                    `json:"route_id,omitempty"`
	RouteName    string                    `json:"route_name,omitempty"`
	Alerts       []chaincontrol.ChainAlert `json:"alerts"`
	Closed       bool                      `json:"closed"`
	HighestLevel chaincontrol.ChainLevel   `json:"highest_level"`
	CheckedAt    time.Time                 `json:"checked_at"`
	Stale        bool                      `json:"stale,omitempty"`
}

// OfficialControl is a posted control with its distance from the route
type OfficialControl struct {
	caltrans.ChainControl
	DistanceFromRoute float64 `json:"distance_from_route"` // miles
}

// AdvisoryService builds advisories for ad-hoc and monitored routes
type AdvisoryService struct {
	advisor  *chaincontrol.Advisor
	routes   RouteResolver
	official ChainControlSource
	cache    *cache.Cache
	config   *config.ChainControlConfig
	// caltransTTL is how long a downloaded feed is reused
	caltransTTL time.Duration
	group       singleflight.Group
	now         func() time.Time
}

// AdvisoryOption configures an AdvisoryService
type AdvisoryOption func(*AdvisoryService)

// WithRouteResolver enables monitored routes defined by origin and destination
func WithRouteResolver(r RouteResolver) AdvisoryOption {
	return func(s *AdvisoryService) {
		s.routes = r
	}
}

// WithOfficialControls enables OfficialControls, reusing a feed for ttl
func WithOfficialControls(source ChainControlSource, ttl time.Duration) AdvisoryOption {
	return func(s *AdvisoryService) {
		s.official = source
		s.caltransTTL = ttl
	}
}

// NewAdvisoryService creates a new AdvisoryService
func NewAdvisoryService(advisor *chaincontrol.Advisor, c *cache.Cache, cfg *config.ChainControlConfig, opts ...AdvisoryOption) *AdvisoryService {
	s := &AdvisoryService{
		advisor:     advisor,
		cache:       c,
		config:      cfg,
		caltransTTL: 15 * time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Advisor returns the underlying alert orchestrator
func (s *AdvisoryService) Advisor() *chaincontrol.Advisor {
	return s.advisor
}

// Advise builds an advisory for caller-supplied waypoints. It never fails;
// passes without weather are left out.
func (s *AdvisoryService) Advise(ctx context.Context, waypoints []chaincontrol.Waypoint) *RouteAdvisory {
	alerts := s.advisor.GetChainControlAlerts(ctx, waypoints)
	highest := chaincontrol.HighestLevel(alerts)
	return &RouteAdvisory{
		Alerts:       alerts,
		Closed:       highest.IsClosure(),
		HighestLevel: highest,
		CheckedAt:    s.now(),
	}
}

// MonitoredRoutes returns the configured routes
func (s *AdvisoryService) MonitoredRoutes() []config.MonitoredRoute {
	return s.config.MonitoredRoutes
}

// RouteAdvisory returns the advisory for a monitored route. Fresh cached data
// is returned as is. Stale data triggers a refresh, and is served with Stale
// set if the refresh fails and the data is not yet very stale.
func (s *AdvisoryService) RouteAdvisory(ctx context.Context, routeID string) (*RouteAdvisory, error) {
	route, ok := s.config.Route(routeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, routeID)
	}

	cacheKey := "advisory:" + routeID

	var cached RouteAdvisory
	_, found, err := s.cache.GetWithMetadata(cacheKey, &cached)
	if err != nil {
		logging.Warnw(ctx, "Advisory cache read failed", "route_id", routeID, "error", err)
		found = false
	}

	if found && !s.cache.IsStale(cacheKey) {
		metrics.CacheHits.WithLabelValues("advisory").Inc()
		return &cached, nil
	}
	metrics.CacheMisses.WithLabelValues("advisory").Inc()

	v, err := sharedCall(ctx, &s.group, cacheKey, func(ctx context.Context) (interface{}, error) {
		return s.refreshRoute(ctx, route)
	})
	if err != nil {
		if found && !s.cache.IsVeryStale(cacheKey) {
			logging.Warnw(ctx, "Refresh failed, returning stale advisory",
				"route_id", routeID, "error", err)
			cached.Stale = true
			return &cached, nil
		}
		if found {
			s.cache.Delete(cacheKey)
		}
		return nil, fmt.Errorf("failed to refresh advisory for %s: %w", routeID, err)
	}

	advisory := *v.(*RouteAdvisory)
	return &advisory, nil
}

// RefreshAll walks every monitored route, refreshing any whose advisory is
// stale. It returns the number of routes that could not be served.
func (s *AdvisoryService) RefreshAll(ctx context.Context) int {
	failed := 0
	for _, route := range s.config.MonitoredRoutes {
		if _, err := s.RouteAdvisory(ctx, route.ID); err != nil {
			logging.Warnw(ctx, "Failed to refresh route advisory", "route_id", route.ID, "error", err)
			failed++
		}
	}
	return failed
}

func (s *AdvisoryService) refreshRoute(ctx context.Context, route config.MonitoredRoute) (*RouteAdvisory, error) {
	waypoints, err := s.ResolveWaypoints(ctx, route)
	if err != nil {
		return nil, err
	}

	advisory := s.Advise(ctx, waypoints)
	advisory.RouteID = route.ID
	advisory.RouteName = route.Name

	if err := s.cache.Set(ctx, "advisory:"+route.ID, advisory, s.config.RefreshInterval); err != nil {
		logging.Warnw(ctx, "Failed to cache advisory", "route_id", route.ID, "error", err)
	}

	logging.Infow(ctx, "Refreshed route advisory",
		"route_id", route.ID, "alerts", len(advisory.Alerts), "highest_level", advisory.HighestLevel.Code)
	return advisory, nil
}

// ResolveWaypoints returns the waypoints for a monitored route, computing and
// caching the route geometry when only origin and destination are configured
func (s *AdvisoryService) ResolveWaypoints(ctx context.Context, route config.MonitoredRoute) ([]chaincontrol.Waypoint, error) {
	if len(route.Waypoints) > 0 {
		waypoints := make([]chaincontrol.Waypoint, len(route.Waypoints))
		for i, c := range route.Waypoints {
			waypoints[i] = chaincontrol.Waypoint{Lat: c.Latitude, Lng: c.Longitude}
		}
		return waypoints, nil
	}

	if route.Origin == nil || route.Destination == nil {
		return nil, fmt.Errorf("route %s has no waypoints or origin and destination", route.ID)
	}
	if s.routes == nil {
		return nil, fmt.Errorf("route %s needs a route resolver: %w", route.ID, google.ErrNoAPIKey)
	}

	cacheKey := "route:" + route.ID
	var points []geo.Point
	found, err := s.cache.Get(ctx, cacheKey, &points)
	if err != nil || !found {
		data, err := s.routes.ComputeRoute(ctx, route.Origin.ToPoint(), route.Destination.ToPoint())
		if err != nil {
			return nil, fmt.Errorf("failed to compute route %s: %w", route.ID, err)
		}
		points = data.Points
		if err := s.cache.Set(ctx, cacheKey, points, routeGeometryTTL); err != nil {
			logging.Warnw(ctx, "Failed to cache route geometry", "route_id", route.ID, "error", err)
		}
	}

	return WaypointsFromPoints(points), nil
}

// OfficialControls returns posted chain controls (level above NONE) within
// radiusMiles of any waypoint, most severe first and nearest first within a
// level. It is independent of the weather-based alerts.
func (s *AdvisoryService) OfficialControls(ctx context.Context, waypoints []chaincontrol.Waypoint, radiusMiles float64) ([]OfficialControl, error) {
	if s.official == nil {
		return nil, ErrOfficialControlsUnavailable
	}

	controls, err := s.chainControlFeed(ctx)
	if err != nil {
		return nil, err
	}

	nearby := []OfficialControl{}
	for _, control := range controls {
		if control.Level.Level == 0 {
			continue
		}
		distance := nearestWaypointMiles(control.Location, waypoints)
		if distance <= radiusMiles {
			nearby = append(nearby, OfficialControl{ChainControl: control, DistanceFromRoute: distance})
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		if nearby[i].Level.Level != nearby[j].Level.Level {
			return nearby[i].Level.Level > nearby[j].Level.Level
		}
		return nearby[i].DistanceFromRoute < nearby[j].DistanceFromRoute
	})
	return nearby, nil
}

func (s *AdvisoryService) chainControlFeed(ctx context.Context) ([]caltrans.ChainControl, error) {
	var controls []caltrans.ChainControl
	found, err := s.cache.Get(ctx, caltransCacheKey, &controls)
	if err == nil && found {
		metrics.CacheHits.WithLabelValues("caltrans").Inc()
		return controls, nil
	}
	metrics.CacheMisses.WithLabelValues("caltrans").Inc()

	v, err := sharedCall(ctx, &s.group, caltransCacheKey, func(ctx context.Context) (interface{}, error) {
		controls, err := s.official.ChainControls(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chain controls: %w", err)
		}
		if err := s.cache.Set(ctx, caltransCacheKey, controls, s.caltransTTL); err != nil {
			logging.Warnw(ctx, "Failed to cache chain controls", "error", err)
		}
		return controls, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]caltrans.ChainControl), nil
}

func nearestWaypointMiles(p geo.Point, waypoints []chaincontrol.Waypoint) float64 {
	nearest := math.Inf(1)
	for _, w := range waypoints {
		d := geo.HaversineMiles(p, geo.Point{Latitude: w.Lat, Longitude: w.Lng})
		if d < nearest {
			nearest = d
		}
	}
	return nearest
}

// WaypointsFromPoints converts decoded route geometry to waypoints
func WaypointsFromPoints(points []geo.Point) []chaincontrol.Waypoint {
	waypoints := make([]chaincontrol.Waypoint, len(points))
	for i, p := range points {
		waypoints[i] = chaincontrol.Waypoint{Lat: p.Latitude, Lng: p.Longitude}
	}
	return waypoints
}
