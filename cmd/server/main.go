package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/dpup/prefab"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/atlascommand/chaincontrol/server/internal/api"
	"github.com/atlascommand/chaincontrol/server/internal/cache"
	"github.com/atlascommand/chaincontrol/server/internal/clients/caltrans"
	"github.com/atlascommand/chaincontrol/server/internal/clients/google"
	"github.com/atlascommand/chaincontrol/server/internal/clients/weather"
	"github.com/atlascommand/chaincontrol/server/internal/config"
	"github.com/atlascommand/chaincontrol/server/internal/lib/briefing"
	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/metrics"
	"github.com/atlascommand/chaincontrol/server/internal/services"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration using Prefab's config system
	appConfig := loadConfig()

	// In-process cache for advisories, route geometry and the Caltrans feed
	cacheInstance := cache.NewCache()
	cacheInstance.StartPeriodicCleanup(ctx, 10*time.Minute)
	prometheus.MustRegister(metrics.NewCacheEntriesCollector("memory", func() (int, int) {
		stats := cacheInstance.Stats()
		return stats.FreshEntries, stats.StaleEntries
	}))

	// Weather and briefings can share a Valkey cache across instances
	var store cache.Store = cacheInstance
	if appConfig.Weather.CacheBackend == config.CacheBackendValkey {
		valkeyStore, err := cache.NewValkeyStore(appConfig.Weather.ValkeyAddr, "chaincontrol:")
		if err != nil {
			log.Fatalf("Failed to connect to valkey at %s: %v", appConfig.Weather.ValkeyAddr, err)
		}
		defer valkeyStore.Close()
		store = valkeyStore
		log.Printf("Using valkey cache at %s", appConfig.Weather.ValkeyAddr)
	}

	// Initialize external API clients
	if appConfig.Weather.OpenWeatherAPIKey == "" {
		log.Fatal("OpenWeatherMap API key is required in configuration (weather.openweather_api_key)")
	}
	baseURL := appConfig.Weather.BaseURL
	if baseURL == "" {
		baseURL = weather.DefaultBaseURL
	}
	weatherClient := weather.NewClientWithHTTPDoer(appConfig.Weather.OpenWeatherAPIKey, baseURL, &http.Client{
		Timeout: 30 * time.Second,
	})
	caltransClient := caltrans.NewClient(appConfig.Caltrans.ChainControlsURL)

	weatherService := services.NewWeatherService(weatherClient, store, &appConfig.Weather)
	advisor := chaincontrol.NewAdvisor(weatherService,
		chaincontrol.WithSearchRadius(appConfig.ChainControl.SearchRadiusMiles),
		chaincontrol.WithMaxConcurrentLookups(appConfig.ChainControl.MaxConcurrentLookups),
		chaincontrol.WithLookupTimeout(appConfig.ChainControl.LookupTimeout),
	)

	opts := []services.AdvisoryOption{
		services.WithOfficialControls(caltransClient, appConfig.Caltrans.RefreshInterval),
	}
	if appConfig.Routes.GoogleAPIKey != "" {
		opts = append(opts, services.WithRouteResolver(google.NewClient(appConfig.Routes.GoogleAPIKey)))
	} else {
		log.Printf("Google Routes API key not set; monitored routes must list waypoints")
	}
	advisoryService := services.NewAdvisoryService(advisor, cacheInstance, &appConfig.ChainControl, opts...)

	// Briefings fall back to a fixed template without an OpenAI key
	writer := briefing.NewWriter(appConfig.Briefing.OpenAIAPIKey, appConfig.Briefing.Model)
	if appConfig.Briefing.OpenAIAPIKey != "" {
		log.Printf("OpenAI briefings enabled with content-based caching (model: %s)", appConfig.Briefing.Model)
	}
	cachedWriter := briefing.NewCachedWriter(writer, cache.NewBriefingCacheAdapter(store), appConfig.Briefing.CacheTTL)

	log.Printf("Chain control API server starting")
	log.Printf("Passes in catalog: %d", len(advisor.Catalog()))
	log.Printf("Routes monitored: %d", len(appConfig.ChainControl.MonitoredRoutes))

	// Keep monitored route advisories warm
	periodicRefresh := services.NewPeriodicRefreshService(advisoryService, appConfig.ChainControl.RefreshInterval)
	if err := periodicRefresh.StartPeriodicRefresh(ctx); err != nil {
		log.Printf("Failed to start periodic refresh: %v", err)
	}
	defer periodicRefresh.Stop()

	handler := api.NewHandler(advisoryService, cachedWriter, advisor.Catalog(), appConfig.ChainControl.SearchRadiusMiles)
	router := api.NewRouter(handler)

	// Server configuration (port, etc.) is loaded from prefab.yaml/env vars
	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/api/v1/", router.ServeHTTP),
		prefab.WithHTTPHandlerFunc("/", router.ServeHTTP),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration using Prefab's config system on top of the
// defaults. Configuration is read from prefab.yaml and environment variables
// with the PF__ prefix.
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	sections := []struct {
		key    string
		target interface{}
	}{
		{"chain_control", &appConfig.ChainControl},
		{"weather", &appConfig.Weather},
		{"routes", &appConfig.Routes},
		{"caltrans", &appConfig.Caltrans},
		{"briefing", &appConfig.Briefing},
	}
	for _, section := range sections {
		if err := prefab.Config.Unmarshal(section.key, section.target); err != nil {
			log.Fatalf("Failed to unmarshal %s section: %v", section.key, err)
		}
	}

	if err := appConfig.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	return appConfig
}
