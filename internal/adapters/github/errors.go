package github

import (
	"errors"
	"fmt"
	"time"
)

// StatusError wraps non-2xx HTTP responses from GitHub
type StatusError struct {
	Status int
	Body   string

	// RetryAfter is the server supplied wait, zero when absent
	RetryAfter time.Duration

	// RateLimited marks 429s and secondary limit 403s
	RateLimited bool
}

// Error implements the error interface
func (e *StatusError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("github rate limited status %d", e.Status)
	}
	return fmt.Sprintf("github status %d: %s", e.Status, e.Body)
}

// IsRateLimited reports whether err is a primary or secondary rate limit response
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.RateLimited
}

// decodeError marks a mangled body on an otherwise successful response
type decodeError struct {
	path string
	err  error
}

// Error implements the error interface
func (e *decodeError) Error() string {
	return fmt.Sprintf("github decode %s: %v", e.path, e.err)
}

// Unwrap exposes the underlying json error
func (e *decodeError) Unwrap() error { return e.err }

// retryable reports whether a retry of the failed request may succeed
// network errors arrive as non StatusError values and are always retryable
func retryable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return true
	}
	return se.RateLimited || se.Status >= 500
}

// countsForBreaker reports whether the failure should trip the breaker
// plain client errors mean the request was wrong, not that GitHub is down
// and rate limiting is backpressure, not an outage
func countsForBreaker(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return true
	}
	return !se.RateLimited && se.Status >= 500
}
