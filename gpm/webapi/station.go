package webapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/xeptore/skyjam/gpm/sign"
	"github.com/xeptore/skyjam/gpm/types"
)

var ErrInvalidSeedKind = errors.New("seed kind must be one of: track, artist, album, genre")

// NewStationSeed builds a station seed from an id and a kind. Track seeds
// split on the catalog sentinel the same way stream requests do.
func NewStationSeed(seedID, kind string) (*types.StationSeed, error) {
	switch kind {
	case "track":
		if sign.IsAllAccess(seedID) {
			return &types.StationSeed{TrackID: seedID, SeedType: types.SeedTypeCatalogTrack}, nil //nolint:exhaustruct
		}

		return &types.StationSeed{TrackID: seedID, SeedType: types.SeedTypeLibraryTrack}, nil //nolint:exhaustruct
	case "artist":
		return &types.StationSeed{ArtistID: seedID, SeedType: types.SeedTypeArtist}, nil //nolint:exhaustruct
	case "album":
		return &types.StationSeed{AlbumID: seedID, SeedType: types.SeedTypeAlbum}, nil //nolint:exhaustruct
	case "genre":
		return &types.StationSeed{GenreID: seedID, SeedType: types.SeedTypeGenre}, nil //nolint:exhaustruct
	default:
		return nil, ErrInvalidSeedKind
	}
}

// Stations lists the account's radio stations, payload passed through.
func (s *Service) Stations(ctx context.Context) (json.RawMessage, error) {
	resp, err := s.postJSON(ctx, "radio/station", nil, nil)
	if nil != err {
		return nil, err
	}

	return jsonBody(resp)
}

// CreateStation creates (or gets) a station grown from the given seed and
// returns its id.
func (s *Service) CreateStation(ctx context.Context, name string, seed *types.StationSeed) (string, error) {
	mutations := []map[string]any{{
		"createOrGet": map[string]any{
			"clientId":              uuid.NewString(),
			"deleted":               false,
			"imageType":             1,
			"lastModifiedTimestamp": "-1",
			"name":                  name,
			"recentTimeStamp":       strconv.FormatInt(time.Now().UnixMicro(), 10),
			"seed":                  seed,
			"tracks":                []any{},
		},
		"includeFeed": false,
		"numEntries":  0,
		"params":      map[string]any{"contentFilter": 1},
	}}

	resp, err := s.postJSON(ctx, "radio/editstation", altJSON(), map[string]any{"mutations": mutations})
	if nil != err {
		return "", fmt.Errorf("failed to create station: %w", err)
	}

	return gjson.GetBytes(resp.RawBody, "mutate_response.0.id").String(), nil
}

// StationTracks fetches up to numEntries tracks of a station feed, payload
// passed through.
func (s *Service) StationTracks(ctx context.Context, stationID string, numEntries int) (json.RawMessage, error) {
	query := altJSON()
	query.Set("include-tracks", "true")

	body := map[string]any{
		"contentFilter": 1,
		"stations": []map[string]any{{
			"radioId":        stationID,
			"numEntries":     numEntries,
			"recentlyPlayed": []any{},
		}},
	}

	resp, err := s.postJSON(ctx, "radio/stationfeed", query, body)
	if nil != err {
		return nil, err
	}

	return jsonBody(resp)
}
