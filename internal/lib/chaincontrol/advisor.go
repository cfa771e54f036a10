package chaincontrol

import (
	"context"
	"sort"
	"time"

	"github.com/dpup/prefab/logging"
	"golang.org/x/sync/errgroup"

	"github.com/atlascommand/chaincontrol/server/internal/metrics"
)

// DefaultMaxConcurrentLookups bounds parallel weather lookups per request
const DefaultMaxConcurrentLookups = 4

// Advisor builds chain-control alerts for a route from the pass catalog and a
// weather lookup. It holds no per-request state and is safe for concurrent use.
type Advisor struct {
	weather       WeatherLookup
	catalog       Catalog
	radiusMiles   float64
	maxConcurrent int
	lookupTimeout time.Duration
}

// AdvisorOption configures an Advisor
type AdvisorOption func(*Advisor)

// WithCatalog replaces the default pass catalog
func WithCatalog(catalog Catalog) AdvisorOption {
	return func(a *Advisor) {
		a.catalog = catalog
	}
}

// WithSearchRadius sets the route-to-pass distance in miles
func WithSearchRadius(miles float64) AdvisorOption {
	return func(a *Advisor) {
		if miles > 0 {
			a.radiusMiles = miles
		}
	}
}

// WithMaxConcurrentLookups bounds parallel weather lookups; 1 runs them sequentially
func WithMaxConcurrentLookups(n int) AdvisorOption {
	return func(a *Advisor) {
		if n > 0 {
			a.maxConcurrent = n
		}
	}
}

// WithLookupTimeout bounds each weather lookup. A timed out lookup is treated
// like any other failed lookup and the pass is skipped.
func WithLookupTimeout(d time.Duration) AdvisorOption {
	return func(a *Advisor) {
		a.lookupTimeout = d
	}
}

// NewAdvisor creates an Advisor backed by the given weather lookup
func NewAdvisor(weather WeatherLookup, opts ...AdvisorOption) *Advisor {
	a := &Advisor{
		weather:       weather,
		catalog:       DefaultCatalog,
		radiusMiles:   DefaultSearchRadiusMiles,
		maxConcurrent: DefaultMaxConcurrentLookups,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Catalog returns the passes this advisor checks
func (a *Advisor) Catalog() Catalog {
	return a.catalog
}

// SearchRadius returns the route-to-pass distance in miles
func (a *Advisor) SearchRadius() float64 {
	return a.radiusMiles
}

// GetChainControlAlerts returns alerts for passes near the route that have an
// active chain requirement, most severe first and nearest first within a level.
//
// It never fails: passes whose weather lookup errors or returns no data are
// logged and left out, so the result is always a non-nil, possibly empty slice.
func (a *Advisor) GetChainControlAlerts(ctx context.Context, waypoints []Waypoint) []ChainAlert {
	candidates := a.catalog.NearRoute(waypoints, a.radiusMiles)
	alerts := []ChainAlert{}
	if len(candidates) == 0 {
		return alerts
	}

	// One slot per candidate so completion order cannot affect the result
	results := make([]*ChainAlert, len(candidates))

	var g errgroup.Group
	g.SetLimit(a.maxConcurrent)

	for i, pass := range candidates {
		g.Go(func() error {
			results[i] = a.assess(ctx, pass)
			return nil
		})
	}
	_ = g.Wait()

	for _, alert := range results {
		if alert != nil && alert.ChainRequirement.Level > 0 {
			alerts = append(alerts, *alert)
		}
	}

	SortAlerts(alerts)

	for _, alert := range alerts {
		metrics.AlertsEmitted.WithLabelValues(alert.ChainRequirement.Code).Inc()
	}

	return alerts
}

// assess looks up weather for a single pass and classifies it. It returns nil
// when the pass has to be skipped.
func (a *Advisor) assess(ctx context.Context, pass NearbyPass) *ChainAlert {
	lookupCtx := ctx
	if a.lookupTimeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, a.lookupTimeout)
		defer cancel()
	}

	start := time.Now()
	weather, err := a.lookup(lookupCtx, pass)
	metrics.WeatherLookupDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.WeatherLookups.WithLabelValues(metrics.OutcomeError).Inc()
		logging.Warnw(ctx, "Weather lookup failed, skipping pass",
			"pass_id", pass.ID, "error", err)
		return nil
	}
	if weather == nil {
		metrics.WeatherLookups.WithLabelValues(metrics.OutcomeUnknown).Inc()
		logging.Debugw(ctx, "No weather data for pass, skipping", "pass_id", pass.ID)
		return nil
	}
	metrics.WeatherLookups.WithLabelValues(metrics.OutcomeOK).Inc()

	level, rule := classify(weather, pass.Elevation)
	if level.Level > 0 {
		logging.Infow(ctx, "Chain control condition detected",
			"pass_id", pass.ID, "level", level.Code, "rule", rule,
			"condition", weather.Condition, "temp", weather.Temp)
	}

	return &ChainAlert{
		PassID:            pass.ID,
		Name:              pass.Name,
		Highway:           pass.Highway,
		State:             pass.State,
		Elevation:         pass.Elevation,
		Description:       pass.Description,
		DistanceFromRoute: pass.DistanceFromRoute,
		ChainRequirement:  level,
		Weather:           *weather,
		Location:          Location{Lat: pass.Lat, Lng: pass.Lng},
	}
}

// lookup calls the weather collaborator, converting a panic into an error so
// one misbehaving lookup cannot take down the batch
func (a *Advisor) lookup(ctx context.Context, pass NearbyPass) (weather *WeatherSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			weather, err = nil, &lookupPanicError{value: r}
		}
	}()
	if a.weather == nil {
		return nil, nil
	}
	return a.weather.GetWeatherByCoordinates(ctx, pass.Lat, pass.Lng)
}

// SortAlerts orders alerts by chain level descending, then distance ascending
func SortAlerts(alerts []ChainAlert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].ChainRequirement.Level != alerts[j].ChainRequirement.Level {
			return alerts[i].ChainRequirement.Level > alerts[j].ChainRequirement.Level
		}
		return alerts[i].DistanceFromRoute < alerts[j].DistanceFromRoute
	})
}

// HighestLevel returns the most severe level among alerts, LevelNone if empty
func HighestLevel(alerts []ChainAlert) ChainLevel {
	highest := LevelNone
	for _, alert := range alerts {
		if alert.ChainRequirement.Level > highest.Level {
			highest = alert.ChainRequirement
		}
	}
	return highest
}
