package oracle

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrUnavailable means the provider cannot be called, typically because no
// credential is configured.
var ErrUnavailable = errors.New("classification oracle unavailable")

// RateLimitError indicates an oracle provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// InvalidLabelError reports a response that is not one of the allowed labels.
type InvalidLabelError struct {
	Provider string
	Raw      string
}

func (e *InvalidLabelError) Error() string {
	return fmt.Sprintf("%s returned a label outside the allowed set: %q", e.Provider, truncate(e.Raw, 100))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
