// Package geocode resolves hospital records to coordinates via an ordered
// cascade: Google Find Place, a consumer autocomplete cross-reference,
// Google address geocoding, and finally the memoized city centroid.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/insuremap/exclusion-registry/internal/model"
	"github.com/insuremap/exclusion-registry/internal/resilience"
)

// Place is the textual identity of one entity to resolve.
type Place struct {
	Name    string
	Address string
	City    string
	State   string
	Pincode string
}

// Result is the outcome of one cascade run.
type Result struct {
	Lat      float64
	Lng      float64
	Accuracy model.Accuracy
	PlaceID  string
}

// Matched reports whether the cascade produced usable coordinates.
func (r Result) Matched() bool {
	return r.Lat != 0 || r.Lng != 0
}

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sets the Google Maps API key. An empty key short-circuits
// every resolution to NO_KEY without network calls.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient sets a custom HTTP client for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the requests-per-second limit for paid API calls.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithAutocompleteURL enables the consumer autocomplete cross-reference
// service at the given endpoint. Empty disables the step.
func WithAutocompleteURL(u string) Option {
	return func(c *Client) { c.autocompleteURL = u }
}

// WithCache attaches a persistent result cache.
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRetryConfig overrides the retry policy for outbound calls.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// Client issues geocoding lookups against the configured services.
type Client struct {
	httpClient      *http.Client
	apiKey          string
	autocompleteURL string
	limiter         *rate.Limiter
	retry           resilience.RetryConfig
	cache           *Cache
	centroids       *centroidCache

	// placesDisabled flips when the Places API rejects our key; further
	// Find Place calls this run would only burn quota on errors.
	placesDisabled atomic.Bool
}

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) *Client {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("maps", "lookup")

	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(10, 1),
		retry:      retry,
		centroids:  newCentroidCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasKey reports whether a Google API key is configured.
func (c *Client) HasKey() bool { return c.apiKey != "" }

// statusError reports a non-2xx, non-transient HTTP response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// getJSON performs a rate-limited, retried GET and decodes the JSON body
// into out. Transient statuses (429, 5xx) are retried; other non-2xx
// statuses surface as *statusError.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, headers map[string]string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "geocode: rate limit")
	}

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		reqURL := rawURL
		if len(params) > 0 {
			reqURL += "?" + params.Encode()
		}
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if reqErr != nil {
			return nil, eris.Wrap(reqErr, "geocode: build request")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, eris.Wrap(doErr, "geocode: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			statusErr := &statusError{code: resp.StatusCode}
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
			}
			return nil, statusErr
		}

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, eris.Wrap(readErr, "geocode: read body")
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "geocode: parse response")
	}
	return nil
}
