package ratelimit

import (
	"math/rand/v2"
	"time"
)

// MultipartStreamDownloadConcurrency caps the number of in-flight ranged
// requests against a single short-lived stream URL.
const MultipartStreamDownloadConcurrency = 4

// WebAPIRequestsPerSecond is the steady-state budget for catalog and
// mutation calls against the sj web API.
const WebAPIRequestsPerSecond = 5

// StreamChunkSleepMS returns a randomized pause inserted between ranged
// chunk requests so a full-track fetch does not look like a burst.
func StreamChunkSleepMS() time.Duration {
	const (
		from = 1
		to   = 3
	)
	millis := (rand.IntN(to-from)+from)*1000 + rand.N(1000) //nolint:gosec

	return time.Duration(millis) * time.Millisecond
}
