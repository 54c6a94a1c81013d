package webapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/xeptore/skyjam/gpm/types"
)

// Track fetches an all-access track document. Requires a catalog ("T"
// prefixed) id; uploaded library tracks are not served by this endpoint.
func (s *Service) Track(ctx context.Context, nid string) (*types.Track, error) {
	query := altJSON()
	query.Set("nid", nid)

	resp, err := s.get(ctx, "fetchtrack", query)
	if nil != err {
		return nil, err
	}

	var track types.Track
	if err := resp.DecodeJSON(&track); nil != err {
		return nil, fmt.Errorf("failed to decode track %s: %w", nid, err)
	}

	return &track, nil
}

// Album fetches an all-access album document, optionally with its track
// list. The payload shape is passed through untouched.
func (s *Service) Album(ctx context.Context, nid string, includeTracks bool) (json.RawMessage, error) {
	query := altJSON()
	query.Set("nid", nid)
	query.Set("include-tracks", strconv.FormatBool(includeTracks))

	resp, err := s.get(ctx, "fetchalbum", query)
	if nil != err {
		return nil, err
	}

	return jsonBody(resp)
}

// Artist fetches an artist document with optional albums, top tracks, and
// related artists.
func (s *Service) Artist(
	ctx context.Context,
	nid string,
	includeAlbums bool,
	topTrackCount, relatedArtistCount int,
) (json.RawMessage, error) {
	query := altJSON()
	query.Set("nid", nid)
	query.Set("include-albums", strconv.FormatBool(includeAlbums))
	query.Set("num-top-tracks", strconv.Itoa(topTrackCount))
	query.Set("num-related-artists", strconv.Itoa(relatedArtistCount))

	resp, err := s.get(ctx, "fetchartist", query)
	if nil != err {
		return nil, err
	}

	return jsonBody(resp)
}

// Search queries the all-access catalog.
func (s *Service) Search(ctx context.Context, text string, maxResults int) (*types.SearchResults, error) {
	query := make(url.Values, 2)
	query.Set("q", text)
	query.Set("max-results", strconv.Itoa(maxResults))

	resp, err := s.get(ctx, "query", query)
	if nil != err {
		return nil, err
	}

	var results types.SearchResults
	if err := resp.DecodeJSON(&results); nil != err {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	return &results, nil
}
