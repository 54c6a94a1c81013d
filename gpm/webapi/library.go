package webapi

import (
	"context"
	"fmt"

	"github.com/xeptore/skyjam/gpm/types"
)

// TrackFeed lists the user's library tracks one page at a time. Pass the
// previous page's NextPageToken to continue; an empty token starts over.
func (s *Service) TrackFeed(ctx context.Context, pageToken string) (*types.TrackPage, error) {
	var body any
	if pageToken != "" {
		body = map[string]string{"start-token": pageToken}
	}

	resp, err := s.postJSON(ctx, "trackfeed", nil, body)
	if nil != err {
		return nil, err
	}

	var page types.TrackPage
	if err := resp.DecodeJSON(&page); nil != err {
		return nil, fmt.Errorf("failed to decode track feed page: %w", err)
	}

	return &page, nil
}
