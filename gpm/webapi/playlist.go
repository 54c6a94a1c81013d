package webapi

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/xeptore/skyjam/gpm/sign"
)

// Playlists lists all playlists of the account, payload passed through.
func (s *Service) Playlists(ctx context.Context) (json.RawMessage, error) {
	resp, err := s.postJSON(ctx, "playlistfeed", nil, nil)
	if nil != err {
		return nil, err
	}

	return jsonBody(resp)
}

// PlaylistEntries lists the tracks of every playlist, payload passed
// through. Entry ids in the result feed RemovePlaylistEntry.
func (s *Service) PlaylistEntries(ctx context.Context) (json.RawMessage, error) {
	resp, err := s.postJSON(ctx, "plentryfeed", nil, nil)
	if nil != err {
		return nil, err
	}

	return jsonBody(resp)
}

// CreatePlaylist creates a user playlist and returns its server-assigned id.
func (s *Service) CreatePlaylist(ctx context.Context, name string) (string, error) {
	mutations := []map[string]any{{
		"create": map[string]any{
			"creationTimestamp":     -1,
			"deleted":               false,
			"lastModifiedTimestamp": 0,
			"name":                  name,
			"type":                  "USER_GENERATED",
		},
	}}

	resp, err := s.postJSON(ctx, "playlistbatch", altJSON(), map[string]any{"mutations": mutations})
	if nil != err {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}

	id := gjson.GetBytes(resp.RawBody, "mutate_response.0.id").String()
	if id == "" {
		return "", fmt.Errorf("playlist creation response misses the new id, body: %s", string(resp.RawBody))
	}

	return id, nil
}

// AddPlaylistEntry appends a track to the end of a playlist and returns the
// new entry id. The numeric source code depends on whether the track id is a
// catalog or a library one.
func (s *Service) AddPlaylistEntry(ctx context.Context, songID, playlistID string) (string, error) {
	mutations := []map[string]any{{
		"create": map[string]any{
			"clientId":              uuid.NewString(),
			"creationTimestamp":     "-1",
			"deleted":               "false",
			"lastModifiedTimestamp": "0",
			"playlistId":            playlistID,
			"source":                strconv.Itoa(sign.SourceCode(songID)),
			"trackId":               songID,
		},
	}}

	resp, err := s.postJSON(ctx, "plentriesbatch", altJSON(), map[string]any{"mutations": mutations})
	if nil != err {
		return "", fmt.Errorf("failed to add playlist entry: %w", err)
	}

	return gjson.GetBytes(resp.RawBody, "mutate_response.0.id").String(), nil
}

// RemovePlaylistEntry deletes a playlist entry by its entry id.
func (s *Service) RemovePlaylistEntry(ctx context.Context, entryID string) error {
	mutations := []map[string]any{{"delete": entryID}}

	if _, err := s.postJSON(ctx, "plentriesbatch", altJSON(), map[string]any{"mutations": mutations}); nil != err {
		return fmt.Errorf("failed to remove playlist entry: %w", err)
	}

	return nil
}
