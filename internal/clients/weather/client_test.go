package weather

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockHTTPDoer is a mock implementation of HTTPDoer
type MockHTTPDoer struct {
	mock.Mock
}

func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

const donnerSnowResponse = `{
  "coord": {"lon": -120.3268, "lat": 39.3157},
  "weather": [{"id": 602, "main": "Snow", "description": "heavy snow", "icon": "13d"}],
  "main": {"temp": 24.8, "feels_like": 12.1, "pressure": 1008, "humidity": 93},
  "visibility": 400,
  "wind": {"speed": 31.5, "deg": 240},
  "dt": 1768460400,
  "name": "Soda Springs"
}`

func TestGetWeatherByCoordinates_MapsImperialFields(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		q := req.URL.Query()
		return req.URL.Path == "/data/2.5/weather" &&
			q.Get("units") == "imperial" &&
			q.Get("appid") == "test-api-key" &&
			q.Get("lat") == "39.315700" &&
			q.Get("lon") == "-120.326800"
	})).Return(createMockResponse(200, donnerSnowResponse), nil).Once()

	client := NewClientWithHTTPDoer("test-api-key", "https://api.openweathermap.org", mockHTTP)

	snapshot, err := client.GetWeatherByCoordinates(context.Background(), 39.3157, -120.3268)
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, "Snow", snapshot.Condition)
	assert.Equal(t, "heavy snow", snapshot.Description)
	assert.InDelta(t, 24.8, snapshot.Temp, 0.001)
	assert.InDelta(t, 31.5, snapshot.WindSpeed, 0.001)
	mockHTTP.AssertExpectations(t)
}

func TestGetWeatherByCoordinates_EmptyWeatherIsUnknown(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.Anything).Return(
		createMockResponse(200, `{"weather": [], "main": {"temp": 30}, "wind": {"speed": 3}}`), nil)

	client := NewClientWithHTTPDoer("test-api-key", DefaultBaseURL, mockHTTP)

	snapshot, err := client.GetWeatherByCoordinates(context.Background(), 39.0, -120.0)
	assert.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestGetWeatherByCoordinates_StatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
		wantText   string
	}{
		{name: "invalid key", statusCode: 401, body: `{"cod":401}`, wantErr: ErrInvalidAPIKey},
		{name: "rate limited", statusCode: 429, body: `{"cod":429}`, wantErr: ErrRateLimited},
		{name: "server error", statusCode: 503, body: "upstream down", wantText: "API error 503: upstream down"},
		{name: "bad request", statusCode: 400, body: "wrong latitude", wantText: "API error 400: wrong latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockHTTP := &MockHTTPDoer{}
			mockHTTP.On("Do", mock.Anything).Return(createMockResponse(tt.statusCode, tt.body), nil)
			client := NewClientWithHTTPDoer("test-api-key", DefaultBaseURL, mockHTTP)

			snapshot, err := client.GetWeatherByCoordinates(context.Background(), 39.0, -120.0)
			assert.Nil(t, snapshot)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantText != "" {
				assert.EqualError(t, err, tt.wantText)
			}
		})
	}
}

func TestGetWeatherByCoordinates_TransportError(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.Anything).Return(nil, errors.New("connection reset"))
	client := NewClientWithHTTPDoer("test-api-key", DefaultBaseURL, mockHTTP)

	_, err := client.GetWeatherByCoordinates(context.Background(), 39.0, -120.0)
	assert.ErrorContains(t, err, "connection reset")
}

func TestGetWeatherByCoordinates_MalformedBody(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.Anything).Return(createMockResponse(200, "{not json"), nil)
	client := NewClientWithHTTPDoer("test-api-key", DefaultBaseURL, mockHTTP)

	_, err := client.GetWeatherByCoordinates(context.Background(), 39.0, -120.0)
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestGetWeatherByCoordinates_NoAPIKey(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	client := NewClientWithHTTPDoer("", DefaultBaseURL, mockHTTP)

	_, err := client.GetWeatherByCoordinates(context.Background(), 39.0, -120.0)
	assert.ErrorIs(t, err, ErrNoAPIKey)
	mockHTTP.AssertNotCalled(t, "Do", mock.Anything)
}

func TestGetWeatherByCoordinates_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.Anything).Return(nil, errors.New("timeout")).Times(5)
	client := NewClientWithHTTPDoer("test-api-key", DefaultBaseURL, mockHTTP)

	for i := 0; i < 5; i++ {
		_, err := client.GetWeatherByCoordinates(context.Background(), 39.0, -120.0)
		require.Error(t, err)
	}

	_, err := client.GetWeatherByCoordinates(context.Background(), 39.0, -120.0)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorContains(t, err, "weather service unavailable")
	mockHTTP.AssertNumberOfCalls(t, "Do", 5)
}

func TestGetWeatherByCoordinates_InvalidKeyDoesNotTripBreaker(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.Anything).Return(createMockResponse(401, "{}"), nil)
	client := NewClientWithHTTPDoer("bad-key", DefaultBaseURL, mockHTTP)

	for i := 0; i < 7; i++ {
		_, err := client.GetWeatherByCoordinates(context.Background(), 39.0, -120.0)
		assert.ErrorIs(t, err, ErrInvalidAPIKey)
	}
	mockHTTP.AssertNumberOfCalls(t, "Do", 7)
}

func TestGetWeatherByCoordinates_CallerCancellationDoesNotTripBreaker(t *testing.T) {
	for _, cause := range []error{context.Canceled, context.DeadlineExceeded} {
		t.Run(cause.Error(), func(t *testing.T) {
			mockHTTP := &MockHTTPDoer{}
			mockHTTP.On("Do", mock.Anything).Return(nil, &url.Error{Op: "Get", URL: DefaultBaseURL, Err: cause})
			client := NewClientWithHTTPDoer("test-api-key", DefaultBaseURL, mockHTTP)

			for i := 0; i < 7; i++ {
				_, err := client.GetWeatherByCoordinates(context.Background(), 39.0, -120.0)
				assert.ErrorIs(t, err, cause)
				assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
			}
			mockHTTP.AssertNumberOfCalls(t, "Do", 7)
		})
	}
}

func TestGetWeatherByCoordinates_HTTPServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(donnerSnowResponse))
	}))
	defer server.Close()

	client := NewClientWithHTTPDoer("test-api-key", server.URL, server.Client())

	snapshot, err := client.GetWeatherByCoordinates(context.Background(), 39.3157, -120.3268)
	require.NoError(t, err)
	assert.Equal(t, "Snow", snapshot.Condition)
}
