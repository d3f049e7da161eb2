// Package geocoding resolves free-text locations to coordinates through the
// Mapbox forward-geocoding API and enriches report submissions with the
// result. Geocoding is strictly best-effort: a miss leaves coordinates empty
// and never blocks publishing.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	sc "github.com/seichilog/seichilog/internal/server/config"
)

// Result is one resolved location.
type Result struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Client calls the Mapbox places endpoint with a fixed country/language bias
// and limit=1.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	country    string
	language   string
}

func NewClient(cfg *sc.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(cfg.MapboxBaseURL, "/"),
		token:      cfg.MapboxToken,
		country:    cfg.GeocodeCountry,
		language:   cfg.GeocodeLanguage,
	}
}

type mapboxFeature struct {
	// Mapbox returns center as [longitude, latitude].
	Center    []float64 `json:"center"`
	PlaceName string    `json:"place_name"`
}

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

// Resolve returns the best match for text, or (nil, nil) when the service has
// no result. Transient failures (429, 5xx, transport errors) are retried with
// capped backoff before giving up.
func (c *Client) Resolve(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("access_token", c.token)
	q.Set("country", c.country)
	q.Set("language", c.language)
	q.Set("limit", "1")

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.baseURL, url.PathEscape(text), q.Encode())

	var body []byte

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("geocoding status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("geocoding status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	var parsed mapboxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("geocoding response: %w", err)
	}

	if len(parsed.Features) == 0 {
		return nil, nil
	}

	f := parsed.Features[0]
	if len(f.Center) < 2 {
		return nil, fmt.Errorf("geocoding response: malformed center")
	}

	return &Result{
		Longitude: f.Center[0],
		Latitude:  f.Center[1],
		Address:   f.PlaceName,
	}, nil
}
