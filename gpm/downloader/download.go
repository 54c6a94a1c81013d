package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/xeptore/skyjam/cache"
	"github.com/xeptore/skyjam/gpm/sign"
	"github.com/xeptore/skyjam/gpm/types"
	"github.com/xeptore/skyjam/result"
)

// Download fetches a track into dir and returns the final file path. The
// catalog metadata fetch and the audio download run concurrently; both must
// succeed before tags are embedded, and a failure in either aborts the
// whole operation before tagging starts. Library tracks have no catalog
// document so they are stored untagged.
func (d *Downloader) Download(
	ctx context.Context,
	logger zerolog.Logger,
	id, dir string,
) (string, error) {
	streamURL, err := d.StreamURL(ctx, logger, id)
	if nil != err {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o0755); nil != err {
		return "", fmt.Errorf("failed to create downloads directory: %v", err)
	}

	metaCh := make(chan result.Of[types.Track], 1)
	go func() {
		defer close(metaCh)
		if !sign.IsAllAccess(id) {
			metaCh <- result.Ok[types.Track](nil)
			return
		}

		track, err := d.trackMeta(ctx, id)
		if nil != err {
			metaCh <- result.Err[types.Track](err)
			return
		}
		metaCh <- result.Ok(track)
	}()

	fileName := filepath.Join(dir, id)
	if err := d.streamToFile(ctx, logger, streamURL, fileName); nil != err {
		// The metadata branch drains into the buffered channel on its own.
		return "", fmt.Errorf("failed to stream track to file: %w", err)
	}

	res := <-metaCh
	if err := res.Err(); nil != err {
		if removeErr := os.Remove(fileName); nil != removeErr {
			logger.Warn().Err(removeErr).Msg("Failed to remove track file after metadata failure")
		}

		return "", fmt.Errorf("failed to fetch track metadata: %w", err)
	}

	track := res.Unwrap()
	if track != nil {
		if err := embedTrackAttributes(ctx, fileName, track); nil != err {
			return "", err
		}
	}

	finalName, err := withDetectedExt(fileName)
	if nil != err {
		return "", err
	}

	logger.Info().Str("file", finalName).Msg("Track downloaded")

	return finalName, nil
}

func (d *Downloader) trackMeta(ctx context.Context, id string) (*types.Track, error) {
	cached, err := d.cache.Tracks.Fetch(
		id,
		cache.DefaultTrackTTL,
		func() (*types.Track, error) { return d.api.Track(ctx, id) },
	)
	if nil != err {
		return nil, err
	}

	return cached.Value(), nil
}

// withDetectedExt renames the downloaded file to carry the extension of its
// detected audio type.
func withDetectedExt(fileName string) (string, error) {
	mime, err := mimetype.DetectFile(fileName)
	if nil != err {
		return "", fmt.Errorf("failed to detect track file type: %v", err)
	}

	ext := mime.Extension()
	if ext == "" {
		return fileName, nil
	}

	finalName := fileName + ext
	if err := os.Rename(fileName, finalName); nil != err {
		return "", fmt.Errorf("failed to rename track file: %v", err)
	}

	return finalName, nil
}
