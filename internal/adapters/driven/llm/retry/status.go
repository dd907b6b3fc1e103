package retry

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// FromStatus classifies a non-200 HTTP response from a generator API.
// 429 becomes a RateLimitError honouring a Retry-After header in seconds,
// 5xx becomes a TransientError and anything else is permanent.
func FromStatus(provider string, status int, retryAfter, message string) error {
	message = strings.TrimSpace(message)
	switch {
	case status == http.StatusTooManyRequests:
		var delay time.Duration
		if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs > 0 {
			delay = time.Duration(secs) * time.Second
		}
		return &RateLimitError{RetryAfter: delay, Message: message}
	case status >= http.StatusInternalServerError:
		return Transient(fmt.Errorf("%s error (status %d): %s", provider, status, message))
	default:
		return fmt.Errorf("%s error (status %d): %s", provider, status, message)
	}
}
