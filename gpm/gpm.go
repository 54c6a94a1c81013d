// Package gpm is the client for the Google Play Music mobile protocol: it
// logs a user session in, binds an authorized playback device, and exposes
// the catalog, library, playlist, station, and streaming operations over a
// shared authenticated transport.
package gpm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/xeptore/skyjam/cache"
	"github.com/xeptore/skyjam/config"
	"github.com/xeptore/skyjam/gpm/auth"
	"github.com/xeptore/skyjam/gpm/downloader"
	"github.com/xeptore/skyjam/gpm/transport"
	"github.com/xeptore/skyjam/gpm/types"
	"github.com/xeptore/skyjam/gpm/webapi"
	"github.com/xeptore/skyjam/store"
)

var (
	ErrLoginRequired      = errors.New("login required")
	ErrLoginInProgress    = errors.New("another login is in progress")
	ErrDownloadInProgress = errors.New("another download is in progress")
	ErrSessionRefreshed   = errors.New("session was refreshed")

	ErrMissingCredentials = auth.ErrMissingCredentials
	ErrNoUsableDevice     = auth.ErrNoUsableDevice
	ErrNoStreamURL        = downloader.ErrNoStreamURL
)

// Client is the single stateful service object of the protocol. The bound
// session lives inside auth behind an atomic pointer: it is written by the
// login sequence only and replaced wholesale on re-login, so every other
// operation reads it without locking.
type Client struct {
	auth        *auth.Auth
	api         *webapi.Service
	dl          *downloader.Downloader
	st          *store.Store
	cache       *cache.Cache
	conf        config.GPM
	loginSem    chan struct{}
	downloadSem chan struct{}
}

func NewClient(conf config.GPM) (*Client, error) {
	st, err := store.Open(conf.StorePath)
	if nil != err {
		return nil, fmt.Errorf("failed to open install store: %v", err)
	}

	t, err := transport.New(conf.Proxy)
	if nil != err {
		if closeErr := st.Close(); nil != closeErr {
			err = errors.Join(err, closeErr)
		}

		return nil, fmt.Errorf("failed to create transport: %v", err)
	}

	var (
		a   = auth.New(st, t, conf)
		api = webapi.New(t, conf)
		c   = cache.New()
		dl  = downloader.New(a, api, t, c, conf)
	)

	return &Client{
		auth:        a,
		api:         api,
		dl:          dl,
		st:          st,
		cache:       c,
		conf:        conf,
		loginSem:    make(chan struct{}, 1),
		downloadSem: make(chan struct{}, 1),
	}, nil
}

func (c *Client) Close() error {
	if err := c.st.Close(); nil != err {
		return fmt.Errorf("failed to close install store: %v", err)
	}

	return nil
}

// API exposes the peripheral endpoint wrappers. They share the client's
// authenticated transport and require a bound session.
func (c *Client) API() *webapi.Service {
	return c.api
}

func (c *Client) Subscribed() bool {
	if s := c.auth.Session(); s != nil {
		return s.Subscribed
	}

	return false
}

func (c *Client) DeviceID() (string, error) {
	if err := c.requireSession(); nil != err {
		return "", err
	}

	return c.auth.Session().DeviceID, nil
}

// TryLogin runs the login sequence unless one is already in flight.
func (c *Client) TryLogin(ctx context.Context, logger zerolog.Logger) error {
	select {
	case c.loginSem <- struct{}{}:
		defer func() { <-c.loginSem }()
		if err := c.auth.Login(ctx, logger); nil != err {
			return fmt.Errorf("failed to login: %w", err)
		}

		return nil
	default:
		logger.Debug().Msg("Another login in progress")
		return ErrLoginInProgress
	}
}

// Settings fetches the account settings of the bound session.
func (c *Client) Settings(ctx context.Context, logger zerolog.Logger) (*types.Settings, error) {
	if err := c.requireSession(); nil != err {
		return nil, err
	}

	return c.auth.Settings(ctx, logger)
}

// Album fetches an all-access album document through the client cache.
// Album documents are immutable so repeated fetches within the TTL never
// touch the network.
func (c *Client) Album(ctx context.Context, nid string, includeTracks bool) (json.RawMessage, error) {
	if err := c.requireSession(); nil != err {
		return nil, err
	}

	key := nid
	if includeTracks {
		key += "+tracks"
	}
	cached, err := c.cache.Albums.Fetch(
		key,
		cache.DefaultAlbumTTL,
		func() (json.RawMessage, error) { return c.api.Album(ctx, nid, includeTracks) },
	)
	if nil != err {
		return nil, err
	}

	return cached.Value(), nil
}

// StreamURL mints a fresh signed streaming URL for a track.
func (c *Client) StreamURL(ctx context.Context, logger zerolog.Logger, id string) (string, error) {
	if err := c.requireSession(); nil != err {
		return "", err
	}

	return c.dl.StreamURL(ctx, logger, id)
}

// TryDownload downloads one track into the configured downloads directory
// and returns the final file path. Expired sessions are refreshed once per
// attempt by re-running the login sequence, which swaps the session
// atomically; requests already in flight finish with the old token.
func (c *Client) TryDownload(ctx context.Context, logger zerolog.Logger, id string) (string, error) {
	select {
	case c.downloadSem <- struct{}{}:
		logger.Debug().Str("track_id", id).Msg("Downloading track")
		defer func() { <-c.downloadSem }()

		var fileName string
		err := retry.Do(
			ctx,
			retry.WithMaxRetries(5, retry.NewFibonacci(1*time.Second)),
			func(ctx context.Context) error {
				name, err := c.downloadTrack(ctx, logger, id)
				if nil != err {
					if errors.Is(err, context.DeadlineExceeded) {
						return retry.RetryableError(context.DeadlineExceeded)
					}

					var statusErr *transport.StatusError
					if errors.As(err, &statusErr) {
						switch statusErr.Code {
						case 401, 403:
							if err := c.auth.Login(ctx, logger); nil != err {
								if errors.Is(err, auth.ErrNoUsableDevice) {
									return err
								}

								return fmt.Errorf("failed to refresh session: %w", err)
							}

							return retry.RetryableError(ErrSessionRefreshed)
						case 429:
							return retry.RetryableError(err)
						}
					}

					return fmt.Errorf("failed to download track: %w", err)
				}
				fileName = name

				return nil
			},
		)
		if nil != err {
			return "", fmt.Errorf("failed to download track after retries: %w", err)
		}

		return fileName, nil
	default:
		logger.Debug().Msg("Another download in progress")
		return "", ErrDownloadInProgress
	}
}

func (c *Client) downloadTrack(ctx context.Context, logger zerolog.Logger, id string) (string, error) {
	if err := c.requireSession(); nil != err {
		return "", err
	}

	return c.dl.Download(ctx, logger, id, c.conf.DownloadsDir)
}

func (c *Client) requireSession() error {
	if c.auth.Session() == nil {
		return ErrLoginRequired
	}

	return nil
}
