package downloader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/xeptore/skyjam/gpm/types"
)

// embedTrackAttributes writes catalog metadata into the downloaded audio
// file with ffmpeg, replacing the original in place.
func embedTrackAttributes(ctx context.Context, trackFilePath string, track *types.Track) error {
	taggedFilePath := trackFilePath + ".tagged.mp3"

	metaTags := []string{
		"title=" + track.Title,
		"artist=" + track.Artist,
		"album=" + track.Album,
		"album_artist=" + track.AlbumArtist,
		"track=" + strconv.Itoa(track.TrackNumber),
		"disc=" + strconv.Itoa(track.DiscNumber),
	}
	if track.Composer != "" {
		metaTags = append(metaTags, "composer="+track.Composer)
	}
	if track.Year != 0 {
		metaTags = append(metaTags, "date="+strconv.Itoa(track.Year))
	}

	args := []string{
		"-i",
		trackFilePath,
		"-c",
		"copy",
		"-id3v2_version",
		"3",
	}
	for _, tag := range metaTags {
		args = append(args, "-metadata", tag)
	}
	args = append(args, taggedFilePath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if err := cmd.Run(); nil != err {
		return fmt.Errorf("failed to write track attributes: %v", err)
	}
	if err := os.Rename(taggedFilePath, trackFilePath); nil != err {
		return fmt.Errorf("failed to rename tagged track file: %v", err)
	}

	return nil
}
