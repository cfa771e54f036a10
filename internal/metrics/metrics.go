package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Weather lookup outcomes
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeUnknown = "unknown"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "atlas",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	// WeatherLookups counts per-pass weather lookups by outcome
	WeatherLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Subsystem: "chain_control",
		Name:      "weather_lookups_total",
		Help:      "Per-pass weather lookups made while building chain-control alerts",
	}, []string{"outcome"})

	// WeatherLookupDuration observes the latency of a single pass lookup
	WeatherLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "atlas",
		Subsystem: "chain_control",
		Name:      "weather_lookup_duration_seconds",
		Help:      "Latency of per-pass weather lookups",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	// AlertsEmitted counts alerts returned to callers by chain level
	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Subsystem: "chain_control",
		Name:      "alerts_emitted_total",
		Help:      "Chain-control alerts returned, by level code",
	}, []string{"level"})

	// CacheHits counts cache hits by cache name
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"cache"})

	// CacheMisses counts cache misses by cache name
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"cache"})

	// BriefingsDrafted counts drafted briefings by source (openai, template, cache)
	BriefingsDrafted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Subsystem: "briefing",
		Name:      "drafted_total",
		Help:      "Driver briefings drafted, by source",
	}, []string{"source"})
)

var cacheEntriesDesc = prometheus.NewDesc(
	"atlas_cache_entries",
	"Entries held by an in-memory cache, by state",
	[]string{"cache", "state"}, nil,
)

// cacheEntriesCollector reads entry counts from a cache at scrape time
type cacheEntriesCollector struct {
	cache   string
	entries func() (fresh, stale int)
}

// NewCacheEntriesCollector reports fresh and stale entry counts for the named
// cache, reading them from entries on every scrape
func NewCacheEntriesCollector(cache string, entries func() (fresh, stale int)) prometheus.Collector {
	return &cacheEntriesCollector{cache: cache, entries: entries}
}

func (c *cacheEntriesCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheEntriesDesc
}

func (c *cacheEntriesCollector) Collect(ch chan<- prometheus.Metric) {
	fresh, stale := c.entries()
	ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(fresh), c.cache, "fresh")
	ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(stale), c.cache, "stale")
}

// Middleware records request count and latency keyed by the chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
