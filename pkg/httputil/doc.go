// Package httputil provides HTTP helpers for the catalog clients.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Only errors wrapped in [RetryableError] are retried. The delay doubles
// after every attempt unless the error carries a server-provided
// Retry-After delay:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := http.Get(url)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// Caching of responses lives in the cache package; clients combine the two
// through integrations.Client.
package httputil
