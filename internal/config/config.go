package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/atlascommand/chaincontrol/server/internal/lib/geo"
)

// Cache backends for weather snapshots
const (
	CacheBackendMemory = "memory"
	CacheBackendValkey = "valkey"
)

// Config represents the complete server configuration. Each section is read
// from prefab's config (prefab.yaml, PF__ env vars) under the key in its tag.
type Config struct {
	ChainControl ChainControlConfig `koanf:"chain_control" yaml:"chain_control"`
	Weather      WeatherConfig      `koanf:"weather" yaml:"weather"`
	Routes       RoutesConfig       `koanf:"routes" yaml:"routes"`
	Caltrans     CaltransConfig     `koanf:"caltrans" yaml:"caltrans"`
	Briefing     BriefingConfig     `koanf:"briefing" yaml:"briefing"`
}

// ChainControlConfig holds advisory settings
type ChainControlConfig struct {
	SearchRadiusMiles    float64          `koanf:"search_radius_miles" yaml:"search_radius_miles" validate:"gt=0,lte=200"`
	MaxConcurrentLookups int              `koanf:"max_concurrent_lookups" yaml:"max_concurrent_lookups" validate:"gte=1,lte=64"`
	LookupTimeout        time.Duration    `koanf:"lookup_timeout" yaml:"lookup_timeout" validate:"gte=0s"`
	RefreshInterval      time.Duration    `koanf:"refresh_interval" yaml:"refresh_interval" validate:"gt=0s"`
	MonitoredRoutes      []MonitoredRoute `koanf:"monitored_routes" yaml:"monitored_routes" validate:"dive"`
}

// MonitoredRoute is a route whose advisory is refreshed in the background.
// Waypoints take precedence; otherwise the route is resolved from origin and
// destination through Google Routes.
type MonitoredRoute struct {
	ID          string            `koanf:"id" yaml:"id" validate:"required"`
	Name        string            `koanf:"name" yaml:"name" validate:"required"`
	Origin      *CoordinatesYAML  `koanf:"origin" yaml:"origin" validate:"required_without=Waypoints"`
	Destination *CoordinatesYAML  `koanf:"destination" yaml:"destination" validate:"required_without=Waypoints"`
	Waypoints   []CoordinatesYAML `koanf:"waypoints" yaml:"waypoints" validate:"omitempty,min=2,dive"`
}

// CoordinatesYAML represents lat/lon coordinates in YAML config
type CoordinatesYAML struct {
	Latitude  float64 `koanf:"latitude" yaml:"latitude" validate:"latitude"`
	Longitude float64 `koanf:"longitude" yaml:"longitude" validate:"longitude"`
}

// ToPoint converts CoordinatesYAML to a geo.Point
func (c CoordinatesYAML) ToPoint() geo.Point {
	return geo.Point{Latitude: c.Latitude, Longitude: c.Longitude}
}

// WeatherConfig holds OpenWeatherMap and weather cache settings
type WeatherConfig struct {
	OpenWeatherAPIKey string        `koanf:"openweather_api_key" yaml:"openweather_api_key"`
	BaseURL           string        `koanf:"base_url" yaml:"base_url" validate:"omitempty,url"`
	CacheTTL          time.Duration `koanf:"cache_ttl" yaml:"cache_ttl" validate:"gte=0s"`
	CacheBackend      string        `koanf:"cache_backend" yaml:"cache_backend" validate:"oneof=memory valkey"`
	ValkeyAddr        string        `koanf:"valkey_addr" yaml:"valkey_addr" validate:"omitempty,hostname_port"`
}

// RoutesConfig holds Google Routes API settings
type RoutesConfig struct {
	GoogleAPIKey string `koanf:"google_api_key" yaml:"google_api_key"`
}

// CaltransConfig holds Caltrans KML feed settings
type CaltransConfig struct {
	ChainControlsURL string        `koanf:"chain_controls_url" yaml:"chain_controls_url" validate:"omitempty,url"`
	RefreshInterval  time.Duration `koanf:"refresh_interval" yaml:"refresh_interval" validate:"gte=0s"`
}

// BriefingConfig holds OpenAI settings for driver briefings
type BriefingConfig struct {
	OpenAIAPIKey string        `koanf:"openai_api_key" yaml:"openai_api_key"`
	Model        string        `koanf:"model" yaml:"model"`
	CacheTTL     time.Duration `koanf:"cache_ttl" yaml:"cache_ttl" validate:"gte=0s"`
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Weather.CacheBackend == CacheBackendValkey && c.Weather.ValkeyAddr == "" {
		return fmt.Errorf("invalid configuration: weather.valkey_addr is required for the valkey cache backend")
	}
	return nil
}

// Route returns the monitored route with the given ID
func (c *ChainControlConfig) Route(id string) (MonitoredRoute, bool) {
	for _, route := range c.MonitoredRoutes {
		if route.ID == id {
			return route, true
		}
	}
	return MonitoredRoute{}, false
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		ChainControl: ChainControlConfig{
			SearchRadiusMiles:    25,
			MaxConcurrentLookups: 4,
			LookupTimeout:        10 * time.Second,
			RefreshInterval:      5 * time.Minute,
			MonitoredRoutes: []MonitoredRoute{
				{
					ID:   "i80-sacramento-reno",
					Name: "I-80 Sacramento to Reno",
					Waypoints: []CoordinatesYAML{
						{Latitude: 38.5816, Longitude: -121.4944}, // Sacramento
						{Latitude: 38.8966, Longitude: -121.0769}, // Auburn
						{Latitude: 39.3280, Longitude: -120.1833}, // Truckee
						{Latitude: 39.5296, Longitude: -119.8138}, // Reno
					},
				},
				{
					ID:   "us50-placerville-tahoe",
					Name: "US-50 Placerville to South Lake Tahoe",
					Waypoints: []CoordinatesYAML{
						{Latitude: 38.7296, Longitude: -120.7985}, // Placerville
						{Latitude: 38.7835, Longitude: -120.3541}, // Kyburz
						{Latitude: 38.9399, Longitude: -119.9772}, // South Lake Tahoe
					},
				},
				{
					ID:   "i70-denver-vail",
					Name: "I-70 Denver to Vail",
					Waypoints: []CoordinatesYAML{
						{Latitude: 39.7392, Longitude: -104.9903}, // Denver
						{Latitude: 39.7422, Longitude: -105.5136}, // Idaho Springs
						{Latitude: 39.6303, Longitude: -106.0434}, // Silverthorne
						{Latitude: 39.6403, Longitude: -106.3742}, // Vail
					},
				},
				{
					ID:   "i90-seattle-ellensburg",
					Name: "I-90 Seattle to Ellensburg",
					Waypoints: []CoordinatesYAML{
						{Latitude: 47.6062, Longitude: -122.3321}, // Seattle
						{Latitude: 47.4957, Longitude: -121.7868}, // North Bend
						{Latitude: 47.2379, Longitude: -121.1776}, // Cle Elum
						{Latitude: 46.9965, Longitude: -120.5478}, // Ellensburg
					},
				},
			},
		},
		Weather: WeatherConfig{
			BaseURL:      "https://api.openweathermap.org",
			CacheTTL:     10 * time.Minute,
			CacheBackend: CacheBackendMemory,
		},
		Caltrans: CaltransConfig{
			ChainControlsURL: "https://quickmap.dot.ca.gov/data/cc.kml",
			RefreshInterval:  15 * time.Minute, // Changes slowly
		},
		Briefing: BriefingConfig{
			Model:    "gpt-4o-mini",
			CacheTTL: 30 * time.Minute,
		},
	}
}
