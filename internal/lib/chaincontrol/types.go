package chaincontrol

import "context"

// MountainPass is a fixed reference entry in the pass catalog
type MountainPass struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Highway     string  `json:"highway"`
	State       string  `json:"state"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Elevation   int     `json:"elevation"` // feet
	Description string  `json:"description"`
}

// Waypoint is a caller-supplied point along a planned route
type Waypoint struct {
	Lat  float64 `json:"lat" validate:"latitude"`
	Lng  float64 `json:"lng" validate:"longitude"`
	Name string  `json:"name,omitempty"`
}

// WeatherSnapshot is the subset of current conditions the classifier reads.
// Temp is in °F and WindSpeed in mph.
type WeatherSnapshot struct {
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Temp        float64 `json:"temp"`
	WindSpeed   float64 `json:"wind_speed"`
}

// Location is a bare coordinate pair attached to alerts
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NearbyPass is a catalog pass with the distance at which it matched a route
type NearbyPass struct {
	MountainPass
	DistanceFromRoute float64 `json:"distance_from_route"` // miles
}

// ChainAlert describes a pass along the route with an active chain requirement.
// It carries enough denormalized data to render without further lookups.
type ChainAlert struct {
	PassID            string          `json:"pass_id"`
	Name              string          `json:"name"`
	Highway           string          `json:"highway"`
	State             string          `json:"state"`
	Elevation         int             `json:"elevation"`
	Description       string          `json:"description"`
	DistanceFromRoute float64         `json:"distance_from_route"`
	ChainRequirement  ChainLevel      `json:"chain_requirement"`
	Weather           WeatherSnapshot `json:"weather"`
	Location          Location        `json:"location"`
}

// WeatherLookup fetches current conditions for a coordinate.
// A nil snapshot with a nil error means conditions are unknown.
type WeatherLookup interface {
	GetWeatherByCoordinates(ctx context.Context, lat, lng float64) (*WeatherSnapshot, error)
}

// WeatherLookupFunc adapts a function to the WeatherLookup interface
type WeatherLookupFunc func(ctx context.Context, lat, lng float64) (*WeatherSnapshot, error)

// GetWeatherByCoordinates calls f(ctx, lat, lng)
func (f WeatherLookupFunc) GetWeatherByCoordinates(ctx context.Context, lat, lng float64) (*WeatherSnapshot, error) {
	return f(ctx, lat, lng)
}
