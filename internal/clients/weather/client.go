package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
)

// DefaultBaseURL is the OpenWeatherMap API root
const DefaultBaseURL = "https://api.openweathermap.org"

var (
	// ErrNoAPIKey is returned when the client was built without an API key
	ErrNoAPIKey = errors.New("openweathermap api key not configured")
	// ErrInvalidAPIKey is returned for 401 responses
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrRateLimited is returned for 429 responses
	ErrRateLimited = errors.New("rate limit exceeded (60/minute)")
)

// HTTPDoer is the subset of *http.Client used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the OpenWeatherMap current weather API
type Client struct {
	apiKey     string
	httpClient HTTPDoer
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[*chaincontrol.WeatherSnapshot]
}

// NewClient creates a new OpenWeatherMap API client
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
		breaker: gobreaker.NewCircuitBreaker[*chaincontrol.WeatherSnapshot](gobreaker.Settings{
			Name:        "openweathermap",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				// A bad key is a configuration problem, not an outage. A caller
				// giving up says nothing about the upstream either.
				return err == nil ||
					errors.Is(err, ErrInvalidAPIKey) ||
					errors.Is(err, context.Canceled) ||
					errors.Is(err, context.DeadlineExceeded)
			},
		}),
	}
}

// GetWeatherByCoordinates returns current conditions at a coordinate in
// imperial units. It returns (nil, nil) when the response carries no weather
// condition.
func (c *Client) GetWeatherByCoordinates(ctx context.Context, lat, lng float64) (*chaincontrol.WeatherSnapshot, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	snapshot, err := c.breaker.Execute(func() (*chaincontrol.WeatherSnapshot, error) {
		return c.fetchCurrentWeather(ctx, lat, lng)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("weather service unavailable: %w", err)
	}
	return snapshot, err
}

func (c *Client) fetchCurrentWeather(ctx context.Context, lat, lng float64) (*chaincontrol.WeatherSnapshot, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.6f", lat))
	params.Set("lon", fmt.Sprintf("%.6f", lng))
	params.Set("appid", c.apiKey)
	params.Set("units", "imperial") // °F and mph, as the classifier thresholds expect

	requestURL := fmt.Sprintf("%s/data/2.5/weather?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidAPIKey
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var response OpenWeatherCurrentResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return toSnapshot(response), nil
}

// toSnapshot keeps the fields the classifier reads; no condition means unknown
func toSnapshot(response OpenWeatherCurrentResponse) *chaincontrol.WeatherSnapshot {
	if len(response.Weather) == 0 {
		return nil
	}
	return &chaincontrol.WeatherSnapshot{
		Condition:   response.Weather[0].Main,
		Description: response.Weather[0].Description,
		Temp:        response.Main.Temp,
		WindSpeed:   response.Wind.Speed,
	}
}

// OpenWeatherCurrentResponse represents the current weather API response
type OpenWeatherCurrentResponse struct {
	Coord      OpenWeatherCoord     `json:"coord"`
	Weather    []OpenWeatherWeather `json:"weather"`
	Main       OpenWeatherMain      `json:"main"`
	Wind       OpenWeatherWind      `json:"wind"`
	Visibility int32                `json:"visibility"`
	Name       string               `json:"name"`
	Dt         int64                `json:"dt"`
}

// OpenWeatherCoord represents coordinates in response
type OpenWeatherCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// OpenWeatherWeather represents weather condition
type OpenWeatherWeather struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// OpenWeatherMain represents main weather data
type OpenWeatherMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Pressure  int32   `json:"pressure"`
	Humidity  int32   `json:"humidity"`
}

// OpenWeatherWind represents wind data
type OpenWeatherWind struct {
	Speed float64 `json:"speed"`
	Deg   int32   `json:"deg"`
}

var _ chaincontrol.WeatherLookup = (*Client)(nil)
