package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/atlascommand/chaincontrol/server/internal/lib/geo"
)

// DefaultBaseURL is the Google Routes API root
const DefaultBaseURL = "https://routes.googleapis.com"

const fieldMask = "routes.duration,routes.distanceMeters,routes.polyline.encodedPolyline"

var (
	// ErrNoAPIKey is returned when the client was built without an API key
	ErrNoAPIKey = errors.New("google routes api key not configured")
	// ErrNoRoutes is returned when the API finds no drivable route
	ErrNoRoutes = errors.New("no routes found in response")
)

// HTTPDoer is the subset of *http.Client used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to Google Routes API v2
type Client struct {
	apiKey     string
	httpClient HTTPDoer
	baseURL    string
	geo        geo.GeoUtils
}

// RouteData is the geometry of a computed route
type RouteData struct {
	DurationSeconds int32
	DistanceMeters  int32
	Polyline        string
	Points          []geo.Point
}

// NewClient creates a new Google Routes API client
func NewClient(apiKey string) *Client {
	return NewClientWithHTTPDoer(apiKey, DefaultBaseURL, &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewClientWithHTTPDoer creates a client with a custom base URL and transport
func NewClientWithHTTPDoer(apiKey, baseURL string, doer HTTPDoer) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: doer,
		baseURL:    baseURL,
		geo:        geo.NewGeoUtils(),
	}
}

// ComputeRoute asks for the driving route between two points and returns its
// geometry decoded into points
func (c *Client) ComputeRoute(ctx context.Context, origin, destination geo.Point) (*RouteData, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	jsonBody, err := json.Marshal(computeRoutesRequest{
		Origin:            waypointAt(origin),
		Destination:       waypointAt(destination),
		TravelMode:        "DRIVE",
		RoutingPreference: "TRAFFIC_UNAWARE",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/directions/v2:computeRoutes", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The API rejects requests without a field mask
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limit exceeded (3K QPM)")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var response GoogleRoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Routes) == 0 {
		return nil, ErrNoRoutes
	}

	return c.processRouteResponse(response.Routes[0])
}

func (c *Client) processRouteResponse(route GoogleRoute) (*RouteData, error) {
	durationSeconds, err := parseDuration(route.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration: %w", err)
	}

	points, err := c.geo.DecodePolyline(route.Polyline.EncodedPolyline)
	if err != nil {
		return nil, fmt.Errorf("failed to decode route polyline: %w", err)
	}

	return &RouteData{
		DurationSeconds: durationSeconds,
		DistanceMeters:  route.DistanceMeters,
		Polyline:        route.Polyline.EncodedPolyline,
		Points:          points,
	}, nil
}

// parseDuration parses Google's duration format like "450s" to seconds
func parseDuration(durationStr string) (int32, error) {
	if durationStr == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	if len(durationStr) > 1 && durationStr[len(durationStr)-1] == 's' {
		durationStr = durationStr[:len(durationStr)-1]
	}

	var seconds int32
	_, err := fmt.Sscanf(durationStr, "%d", &seconds)
	return seconds, err
}

type computeRoutesRequest struct {
	Origin            routeWaypoint `json:"origin"`
	Destination       routeWaypoint `json:"destination"`
	TravelMode        string        `json:"travelMode"`
	RoutingPreference string        `json:"routingPreference"`
}

type routeWaypoint struct {
	Location struct {
		LatLng latLng `json:"latLng"`
	} `json:"location"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func waypointAt(p geo.Point) routeWaypoint {
	var w routeWaypoint
	w.Location.LatLng = latLng{Latitude: p.Latitude, Longitude: p.Longitude}
	return w
}

// GoogleRoutesResponse represents the API response structure
type GoogleRoutesResponse struct {
	Routes []GoogleRoute `json:"routes"`
}

// GoogleRoute represents a single route in the response
type GoogleRoute struct {
	Duration       string         `json:"duration"`
	DistanceMeters int32          `json:"distanceMeters"`
	Polyline       GooglePolyline `json:"polyline"`
}

// GooglePolyline represents the route polyline
type GooglePolyline struct {
	EncodedPolyline string `json:"encodedPolyline"`
}
