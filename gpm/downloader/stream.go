package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/skyjam/gpm/auth"
	"github.com/xeptore/skyjam/gpm/sign"
	"github.com/xeptore/skyjam/gpm/transport"
	"github.com/xeptore/skyjam/httputil"
	"github.com/xeptore/skyjam/mathutil"
	"github.com/xeptore/skyjam/ratelimit"
	"github.com/xeptore/skyjam/unit"
)

const (
	mplayURL = "https://android.clients.google.com/music/mplay"

	streamChunkSize = 1 * unit.Mebibyte
)

// StreamURL mints a short-lived streaming URL for a track. A fresh salt is
// drawn per call and never reused; the endpoint answers a signed request
// with a raw 302 whose Location is the playable URL. The URL must not be
// cached or replayed past one playback attempt, its TTL is enforced
// server-side.
func (d *Downloader) StreamURL(ctx context.Context, logger zerolog.Logger, id string) (string, error) {
	return d.streamRedirect(ctx, logger, mplayURL, d.auth.Session(), id)
}

func (d *Downloader) streamRedirect(
	ctx context.Context,
	logger zerolog.Logger,
	endpoint string,
	session *auth.Session,
	id string,
) (string, error) {
	salt := sign.Salt(sign.SaltLength)
	sig := sign.Track(id, session.SigningKey, salt)

	header := make(http.Header, 1)
	header.Set("X-Device-ID", session.DeviceID)

	logger.Debug().Str("track_id", id).Msg("Requesting stream redirect")

	resp, err := d.t.Send(ctx, transport.Request{ //nolint:exhaustruct
		Method:  http.MethodGet,
		URL:     endpoint,
		Query:   sign.StreamParams(d.conf.AccountIndex, id, salt, sig),
		Header:  header,
		Timeout: time.Duration(d.conf.Timeouts.GetStreamURL) * time.Second,
	})
	if nil != err {
		return "", fmt.Errorf("failed to request stream redirect: %w", err)
	}

	if resp.StatusCode != http.StatusFound {
		return "", ErrNoStreamURL
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", ErrNoStreamURL
	}

	return location, nil
}

// streamToFile downloads the body behind a stream URL into fileName with
// ranged chunk requests. The URL itself carries the authorization; no
// session header is attached.
func (d *Downloader) streamToFile(
	ctx context.Context,
	logger zerolog.Logger,
	streamURL, fileName string,
) (err error) {
	fileSize, err := d.streamSize(ctx, streamURL)
	if nil != err {
		return fmt.Errorf("failed to get stream size: %w", err)
	}

	defer func() {
		if nil != err {
			if removeErr := os.Remove(fileName); nil != removeErr {
				if !errors.Is(removeErr, os.ErrNotExist) {
					err = errors.Join(err, fmt.Errorf("failed to remove incomplete track file: %v", removeErr))
				}
			}
		}
	}()

	if fileSize <= 0 {
		logger.Debug().Msg("Stream size unknown, downloading in a single request")
		return d.downloadSingle(ctx, streamURL, fileName)
	}

	logger.Debug().Int("size", fileSize).Msg("Downloading stream in ranged chunks")

	wg, wgCtx := errgroup.WithContext(ctx)
	wg.SetLimit(ratelimit.MultipartStreamDownloadConcurrency)

	numChunks := mathutil.DivCeil(fileSize, streamChunkSize)
	parts := make([]string, numChunks)
	for i := range numChunks {
		wg.Go(func() (err error) {
			start := i * streamChunkSize
			end := min((i+1)*streamChunkSize-1, fileSize-1)

			partFileName := fileName + ".part." + strconv.Itoa(i)
			parts[i] = partFileName
			f, err := os.OpenFile(partFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_SYNC, 0o0600)
			if nil != err {
				return fmt.Errorf("failed to create track part file: %v", err)
			}
			defer func() {
				if nil != err {
					if removeErr := os.Remove(partFileName); nil != removeErr {
						if !errors.Is(removeErr, os.ErrNotExist) {
							err = errors.Join(err, fmt.Errorf("failed to remove incomplete track part file: %v", removeErr))
						}
					}
				} else if closeErr := f.Close(); nil != closeErr {
					err = fmt.Errorf("failed to close track part file: %v", closeErr)
				}
			}()

			time.Sleep(ratelimit.StreamChunkSleepMS())

			if err := d.downloadRange(wgCtx, streamURL, start, end, f); nil != err {
				return fmt.Errorf("failed to download track part %d: %w", i, err)
			}

			return nil
		})
	}

	if err := wg.Wait(); nil != err {
		return fmt.Errorf("failed to wait for track download workers: %w", err)
	}

	return assembleParts(fileName, parts)
}

func (d *Downloader) streamSize(ctx context.Context, streamURL string) (s int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, streamURL, nil)
	if nil != err {
		return 0, fmt.Errorf("failed to create stream size request: %v", err)
	}

	client := http.Client{Timeout: time.Duration(d.conf.Timeouts.GetStreamSize) * time.Second} //nolint:exhaustruct
	resp, err := client.Do(req)
	if nil != err {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, context.DeadlineExceeded
		}

		if errors.Is(err, context.Canceled) {
			return 0, context.Canceled
		}

		return 0, fmt.Errorf("failed to send stream size request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close stream size response body: %v", closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected stream size status code: %d", resp.StatusCode)
	}

	if resp.ContentLength > 0 {
		return int(resp.ContentLength), nil
	}

	return 0, nil
}

func (d *Downloader) downloadSingle(ctx context.Context, streamURL, fileName string) (err error) {
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_SYNC, 0o0600)
	if nil != err {
		return fmt.Errorf("failed to create track file: %v", err)
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close track file: %v", closeErr))
		}
	}()

	return d.downloadRange(ctx, streamURL, 0, -1, f)
}

func (d *Downloader) downloadRange(
	ctx context.Context,
	streamURL string,
	start, end int,
	f *os.File,
) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if nil != err {
		return fmt.Errorf("failed to create stream download request: %v", err)
	}
	if end >= 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	}

	client := http.Client{Timeout: time.Duration(d.conf.Timeouts.StreamChunk) * time.Second} //nolint:exhaustruct
	resp, err := client.Do(req)
	if nil != err {
		if errors.Is(err, context.DeadlineExceeded) {
			return context.DeadlineExceeded
		}

		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}

		return fmt.Errorf("failed to send stream download request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close stream download response body: %v", closeErr))
		}
	}()

	switch code := resp.StatusCode; code {
	case http.StatusOK, http.StatusPartialContent:
	default:
		respBytes, err := httputil.ReadOptionalResponseBody(resp)
		if nil != err {
			return fmt.Errorf("failed to read unexpected stream response body: %v", err)
		}

		return fmt.Errorf("unexpected stream response code %d with body: %s", code, string(respBytes))
	}

	if _, err := f.ReadFrom(resp.Body); nil != err {
		return fmt.Errorf("failed to write stream body to file: %v", err)
	}

	return nil
}

func assembleParts(fileName string, parts []string) (err error) {
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_SYNC, 0o0600)
	if nil != err {
		return fmt.Errorf("failed to create track file: %v", err)
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close track file: %v", closeErr))
		}
	}()

	for _, partFileName := range parts {
		p, err := os.Open(partFileName)
		if nil != err {
			return fmt.Errorf("failed to open track part file: %v", err)
		}

		if _, err := f.ReadFrom(p); nil != err {
			err = errors.Join(err, p.Close())
			return fmt.Errorf("failed to append track part file: %v", err)
		}

		if closeErr := p.Close(); nil != closeErr {
			return fmt.Errorf("failed to close track part file: %v", closeErr)
		}

		if err := os.Remove(partFileName); nil != err {
			return fmt.Errorf("failed to remove track part file: %v", err)
		}
	}

	return nil
}
