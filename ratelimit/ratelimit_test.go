package ratelimit_test

import (
	"testing"

	"github.com/xeptore/skyjam/ratelimit"
)

func TestStreamChunkSleepMS(t *testing.T) {
	t.Parallel()
	for range 100 {
		ms := ratelimit.StreamChunkSleepMS().Milliseconds()
		if ms < 1000 || ms > 3000 {
			t.Errorf("expected 1000 <= ms <= 3000, got %d", ms)
		}
	}
}
