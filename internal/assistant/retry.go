package assistant

import (
	"errors"
	"math/rand"
	"time"

	"studyassist/internal/generator"
)

const maxRetries = 3

// isRetryable checks if a generator error is worth retrying.
func isRetryable(err error) bool {
	var retryErr *generator.RetryableError
	return errors.As(err, &retryErr)
}

// backoff returns a duration for attempt n (0-indexed) with jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}
