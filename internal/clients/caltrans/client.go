package caltrans

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultChainControlsURL is the statewide chain-control feed
const DefaultChainControlsURL = "https://quickmap.dot.ca.gov/data/cc.kml"

// HTTPDoer is the subset of *http.Client used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client downloads the Caltrans chain-control feed
type Client struct {
	url        string
	httpClient HTTPDoer
	now        func() time.Time
}

// NewClient creates a client for the feed at url, or the statewide feed when
// url is empty
func NewClient(url string) *Client {
	return NewClientWithHTTPDoer(url, &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewClientWithHTTPDoer creates a client with a custom transport
func NewClientWithHTTPDoer(url string, doer HTTPDoer) *Client {
	if url == "" {
		url = DefaultChainControlsURL
	}
	return &Client{
		url:        url,
		httpClient: doer,
		now:        time.Now,
	}
}

// ChainControls downloads and parses the current chain-control placemarks
func (c *Client) ChainControls(ctx context.Context) ([]ChainControl, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download KML: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d downloading KML from %s", resp.StatusCode, c.url)
	}

	return ParseChainControls(resp.Body, c.now())
}
