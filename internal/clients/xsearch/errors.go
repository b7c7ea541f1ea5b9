package xsearch

import "fmt"

// RateLimitedError is returned when the provider rejects a query with 429.
// The scheduler records it against the affected user and moves on.
type RateLimitedError struct {
	RetryAfter string
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter != "" {
		return fmt.Sprintf("search provider rate limited (retry after %s)", e.RetryAfter)
	}
	return "search provider rate limited"
}

func (e *RateLimitedError) HTTPStatusCode() int { return 429 }

// TransientError covers provider 5xx responses and transport failures.
type TransientError struct {
	StatusCode int
	Message    string
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("search provider error (http %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("search provider error: %s", e.Message)
}

func (e *TransientError) HTTPStatusCode() int { return e.StatusCode }
