package webapi

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xeptore/skyjam/gpm/sign"
)

// IncrementPlayCount reports one play of a track. The numeric type code
// depends on the catalog sentinel, like every other track mutation.
func (s *Service) IncrementPlayCount(ctx context.Context, songID string) error {
	stats := []map[string]any{{
		"id":                    songID,
		"incremental_plays":     "1",
		"last_play_time_millis": strconv.FormatInt(time.Now().UnixMilli(), 10),
		"type":                  strconv.Itoa(sign.SourceCode(songID)),
		"track_events":          []any{},
	}}

	if _, err := s.postJSON(ctx, "trackstats", altJSON(), map[string]any{"track_stats": stats}); nil != err {
		return fmt.Errorf("failed to increment play count: %w", err)
	}

	return nil
}
