package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/matzehuels/proxysheet/pkg/cache"
	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/httputil"
	"github.com/matzehuels/proxysheet/pkg/observability"
)

// Client provides shared HTTP functionality for all catalog API clients.
// It handles caching, retry logic, request pacing, and common request headers.
//
// All methods are safe for concurrent use.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string

	attempts   int
	retryDelay time.Duration

	paceMu   sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewClient creates a Client with the given cache and default headers.
// The namespace labels cache and HTTP events and prefixes HTTP cache keys.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed.
func NewClient(backend cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return &Client{
		http:       NewHTTPClient(),
		cache:      backend,
		keyer:      cache.NewDefaultKeyer(),
		namespace:  namespace,
		ttl:        ttl,
		headers:    h,
		attempts:   3,
		retryDelay: time.Second,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(h *http.Client) { c.http = h }

// SetHeader sets a default request header. It must not be called
// concurrently with requests.
func (c *Client) SetHeader(key, value string) {
	if value != "" {
		c.headers[key] = value
	}
}

// SetKeyer replaces the cache key layout.
func (c *Client) SetKeyer(k cache.Keyer) {
	if k != nil {
		c.keyer = k
	}
}

// Keyer returns the cache key layout.
func (c *Client) Keyer() cache.Keyer { return c.keyer }

// SetRetry configures the number of attempts and the initial backoff.
func (c *Client) SetRetry(attempts int, delay time.Duration) {
	c.attempts, c.retryDelay = attempts, delay
}

// SetMinInterval spaces consecutive requests at least d apart.
func (c *Client) SetMinInterval(d time.Duration) {
	c.paceMu.Lock()
	c.interval = d
	c.paceMu.Unlock()
}

// HTTPKey returns the cache key of a raw response in this client's namespace.
func (c *Client) HTTPKey(key string) string {
	return c.keyer.HTTPKey(c.namespace, key)
}

// Cached retrieves a JSON value from cache under key or executes fetch and
// caches the result. If refresh is true, the cache is bypassed and fetch is
// always called. The fetch function should populate v; on success, v is
// stored in the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if !refresh {
		if data, ok := c.lookup(ctx, key); ok {
			if err := json.Unmarshal(data, v); err == nil {
				return nil
			}
		}
	}
	if err := httputil.Retry(ctx, c.attempts, c.retryDelay, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		c.store(ctx, key, data)
	}
	return nil
}

// CachedBytes is [Client.Cached] for raw bytes such as images.
func (c *Client) CachedBytes(ctx context.Context, key string, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	if !refresh {
		if data, ok := c.lookup(ctx, key); ok {
			return data, nil
		}
	}
	var data []byte
	err := httputil.Retry(ctx, c.attempts, c.retryDelay, func() error {
		var err error
		data, err = fetch()
		return err
	})
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, data)
	return data, nil
}

func (c *Client) lookup(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, c.namespace)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, c.namespace)
	return data, true
}

func (c *Client) store(ctx context.Context, key string, data []byte) {
	if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, c.namespace, len(data))
	}
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers. Retries are left to [Client.Cached].
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

// GetBytes performs an HTTP GET request and returns the raw response body.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	body, err := c.doRequest(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: read body: %v", ErrNetwork, err)}
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// pace blocks until the minimum interval since the previous request has
// passed.
func (c *Client) pace(ctx context.Context) error {
	c.paceMu.Lock()
	wait := time.Until(c.last.Add(c.interval))
	if wait < 0 {
		wait = 0
	}
	c.last = time.Now().Add(wait)
	c.paceMu.Unlock()

	if wait == 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &httputil.RetryableError{
			Err:   &errors.RateLimitedError{RetryAfter: secs},
			After: time.Duration(secs) * time.Second,
		}
	}
	return checkStatus(resp.StatusCode)
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		return &httputil.RetryableError{Err: &errors.RateLimitedError{}}
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
