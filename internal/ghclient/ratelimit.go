package ghclient

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/assignwatch/assignwatch/internal/log"
)

// ErrRateLimited is returned when the GitHub API rate limit is exhausted.
var ErrRateLimited = errors.New("github API rate limit exceeded")

// rateLimitLowWatermark is the remaining-request threshold below which a
// warning is logged.
const rateLimitLowWatermark = 100

// rateLimitState tracks the primary rate limit across all requests.
type rateLimitState struct {
	mu        sync.Mutex
	limited   bool
	resetAt   time.Time
	remaining int
}

var globalRateLimit rateLimitState

func (s *rateLimitState) isLimited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limited && time.Now().After(s.resetAt) {
		s.limited = false
	}
	return s.limited
}

func (s *rateLimitState) update(remaining int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	if remaining == 0 {
		s.limited = true
		s.resetAt = resetAt
	}
}

// IsRateLimited reports whether the client is currently rate limited.
func IsRateLimited() bool {
	return globalRateLimit.isLimited()
}

// rateLimitTransport wraps an http.RoundTripper to track GitHub rate limits.
type rateLimitTransport struct {
	base http.RoundTripper
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if globalRateLimit.isLimited() {
		return nil, ErrRateLimited
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 {
		globalRateLimit.update(remaining, resetAt)
	}

	if remaining > 0 && remaining <= rateLimitLowWatermark {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.StatusCode == http.StatusTooManyRequests {
			_ = resp.Body.Close()
			return nil, ErrRateLimited
		}
	}

	return resp, nil
}

// parseRateLimitHeaders extracts rate limit info from response headers.
func parseRateLimitHeaders(resp *http.Response) (remaining int, resetAt time.Time) {
	remaining = -1

	if s := resp.Header.Get("X-RateLimit-Remaining"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			remaining = n
		}
	}
	if s := resp.Header.Get("X-RateLimit-Reset"); s != "" {
		if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
			resetAt = time.Unix(unix, 0)
		}
	}

	return remaining, resetAt
}
