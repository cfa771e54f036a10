package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 25.0, cfg.ChainControl.SearchRadiusMiles)
	assert.Equal(t, 4, cfg.ChainControl.MaxConcurrentLookups)
	assert.Equal(t, 10*time.Minute, cfg.Weather.CacheTTL)
	assert.Equal(t, CacheBackendMemory, cfg.Weather.CacheBackend)
	assert.Equal(t, 30*time.Minute, cfg.Briefing.CacheTTL)
	assert.NotEmpty(t, cfg.ChainControl.MonitoredRoutes)
}

func TestDefaultConfig_RoutesHaveUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, route := range DefaultConfig().ChainControl.MonitoredRoutes {
		assert.False(t, seen[route.ID], "duplicate route id %s", route.ID)
		seen[route.ID] = true
		assert.GreaterOrEqual(t, len(route.Waypoints), 2, route.ID)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "zero radius",
			mutate:  func(c *Config) { c.ChainControl.SearchRadiusMiles = 0 },
			wantErr: "SearchRadiusMiles",
		},
		{
			name:    "no lookup concurrency",
			mutate:  func(c *Config) { c.ChainControl.MaxConcurrentLookups = 0 },
			wantErr: "MaxConcurrentLookups",
		},
		{
			name:    "unknown cache backend",
			mutate:  func(c *Config) { c.Weather.CacheBackend = "memcached" },
			wantErr: "CacheBackend",
		},
		{
			name:    "valkey without address",
			mutate:  func(c *Config) { c.Weather.CacheBackend = CacheBackendValkey },
			wantErr: "valkey_addr is required",
		},
		{
			name: "bad valkey address",
			mutate: func(c *Config) {
				c.Weather.CacheBackend = CacheBackendValkey
				c.Weather.ValkeyAddr = "not an address"
			},
			wantErr: "ValkeyAddr",
		},
		{
			name: "route without geometry",
			mutate: func(c *Config) {
				c.ChainControl.MonitoredRoutes = []MonitoredRoute{{ID: "x", Name: "X"}}
			},
			wantErr: "Origin",
		},
		{
			name: "route with one waypoint",
			mutate: func(c *Config) {
				c.ChainControl.MonitoredRoutes = []MonitoredRoute{{
					ID: "x", Name: "X", Waypoints: []CoordinatesYAML{{Latitude: 39, Longitude: -120}},
				}}
			},
			wantErr: "Waypoints",
		},
		{
			name: "waypoint out of range",
			mutate: func(c *Config) {
				c.ChainControl.MonitoredRoutes = []MonitoredRoute{{
					ID: "x", Name: "X", Waypoints: []CoordinatesYAML{
						{Latitude: 39, Longitude: -120}, {Latitude: 95, Longitude: -120},
					},
				}}
			},
			wantErr: "Latitude",
		},
		{
			name: "route without id",
			mutate: func(c *Config) {
				c.ChainControl.MonitoredRoutes[0].ID = ""
			},
			wantErr: "ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_OriginDestinationRoute(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChainControl.MonitoredRoutes = []MonitoredRoute{{
		ID:          "hwy4-arnold-ebbetts",
		Name:        "Hwy 4 - Arnold to Ebbetts Pass",
		Origin:      &CoordinatesYAML{Latitude: 38.2458, Longitude: -120.3486},
		Destination: &CoordinatesYAML{Latitude: 38.5347, Longitude: -119.8075},
	}}
	assert.NoError(t, cfg.Validate())

	cfg.Weather.CacheBackend = CacheBackendValkey
	cfg.Weather.ValkeyAddr = "localhost:6379"
	assert.NoError(t, cfg.Validate())
}

func TestChainControlConfig_Route(t *testing.T) {
	cfg := DefaultConfig()

	route, ok := cfg.ChainControl.Route("i80-sacramento-reno")
	require.True(t, ok)
	assert.Equal(t, "I-80 Sacramento to Reno", route.Name)

	_, ok = cfg.ChainControl.Route("nope")
	assert.False(t, ok)
}

func TestCoordinatesYAML_ToPoint(t *testing.T) {
	p := CoordinatesYAML{Latitude: 38.2458, Longitude: -120.3486}.ToPoint()
	assert.Equal(t, 38.2458, p.Latitude)
	assert.Equal(t, -120.3486, p.Longitude)
}
