// Package imagesearch looks up a stock photo for a task title.
//
// Lookups are best effort. A Client without an API key is disabled and every
// failure is logged and reported as "no image", so task creation never
// depends on the photo service being reachable.
package imagesearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/aristath/todograph/internal/config"
	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/logging"
)

// DefaultEndpoint is the Pexels photo search endpoint.
const DefaultEndpoint = "https://api.pexels.com/v1/search"

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

var errMalformed = errors.New("malformed search response")

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("image search returned %s", e.Status)
}

// Retryable reports whether the same request may succeed later.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Options configures a Client.
type Options struct {
	APIKey     string // Empty disables lookups
	Endpoint   string
	Timeout    time.Duration // Per HTTP attempt
	Retry      RetryConfig
	Breaker    BreakerConfig
	HTTPClient *http.Client
}

// Client queries the photo search API.
type Client struct {
	apiKey   string
	endpoint string
	timeout  time.Duration
	retry    RetryConfig
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	inflight singleflight.Group
}

// New creates a client. Zero option values take defaults.
func New(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Retry == (RetryConfig{}) {
		opts.Retry = DefaultRetryConfig()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	return &Client{
		apiKey:   opts.APIKey,
		endpoint: opts.Endpoint,
		timeout:  opts.Timeout,
		retry:    opts.Retry,
		http:     opts.HTTPClient,
		breaker:  newBreaker("pexels", opts.Breaker),
	}
}

// FromConfig creates a client from the images section of the config file.
func FromConfig(cfg config.ImagesConfig) *Client {
	return New(Options{
		APIKey:   cfg.APIKey,
		Endpoint: cfg.Endpoint,
		Timeout:  config.Duration(cfg.Timeout, 5*time.Second),
		Retry:    retryConfigFrom(cfg.Retry),
		Breaker: BreakerConfig{
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
			OpenTimeout:         config.Duration(cfg.Breaker.OpenTimeout, 30*time.Second),
		},
	})
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Lookup returns a photo for the query, or nil when lookups are disabled,
// nothing matched, or the service failed. Failures are logged, not returned.
func (c *Client) Lookup(ctx context.Context, query string) *graph.Image {
	if !c.Enabled() {
		logging.Warn("Images", "no image search API key configured; skipping lookup")
		return nil
	}

	img, err := c.Search(ctx, query)
	if err != nil {
		logging.Error("Images", err, "image lookup failed for %q", query)
		return nil
	}
	return img
}

// Search queries the API for a single landscape photo. It returns nil without
// error when nothing matched. Concurrent searches for the same query share
// one request.
func (c *Client) Search(ctx context.Context, query string) (*graph.Image, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	v, err, shared := c.inflight.Do(query, func() (interface{}, error) {
		return callWithRetry(ctx, c.breaker, c.retry, func() (*graph.Image, error) {
			return c.fetch(ctx, query)
		})
	})
	if shared {
		logging.Debug("Images", "coalesced lookup for %q", query)
	}
	if err != nil {
		return nil, err
	}

	img, _ := v.(*graph.Image)
	if img == nil {
		return nil, nil
	}
	// Callers may modify the result
	out := *img
	return &out, nil
}

func (c *Client) fetch(ctx context.Context, query string) (*graph.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting image search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading image search response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	return parsePhoto(body, query)
}

// parsePhoto extracts the first photo's medium-size URL and alt text.
func parsePhoto(body []byte, query string) (*graph.Image, error) {
	if !gjson.ValidBytes(body) {
		return nil, errMalformed
	}

	photo := gjson.GetBytes(body, "photos.0")
	if !photo.Exists() {
		return nil, nil
	}

	src := photo.Get("src.medium").String()
	if src == "" {
		return nil, fmt.Errorf("%w: first photo has no src.medium", errMalformed)
	}

	alt := photo.Get("alt").String()
	if alt == "" {
		alt = "Image for " + query
	}

	return &graph.Image{URL: src, Alt: alt}, nil
}
