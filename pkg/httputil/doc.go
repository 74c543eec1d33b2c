// Package httputil provides retry infrastructure for the Confluence client.
//
// Confluence instances rate-limit aggressively and large space scans issue
// thousands of requests, so every call goes through [Retry]: transient
// failures (network errors, 5xx responses, 429 rate limits) are wrapped in
// [RetryableError] by the caller and retried with exponential backoff, while
// permanent failures (4xx, auth errors) return immediately.
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// Response caching lives in pkg/cache; this package deliberately stays
// stateless.
package httputil
