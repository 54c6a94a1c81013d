// Package downloader turns a bound session into bytes on disk: it mints
// signed, short-lived stream URLs, streams the audio body to a file, and
// embeds catalog metadata into the result.
package downloader

import (
	"errors"

	"github.com/xeptore/skyjam/cache"
	"github.com/xeptore/skyjam/config"
	"github.com/xeptore/skyjam/gpm/auth"
	"github.com/xeptore/skyjam/gpm/transport"
	"github.com/xeptore/skyjam/gpm/webapi"
)

var (
	// ErrNoStreamURL is a stream request that did not end in a redirect
	// carrying a Location, which is the only success shape the endpoint has.
	ErrNoStreamURL = errors.New("missing or malformed stream redirect")
)

type Downloader struct {
	auth  *auth.Auth
	api   *webapi.Service
	t     *transport.Transport
	cache *cache.Cache
	conf  config.GPM
}

func New(
	a *auth.Auth,
	api *webapi.Service,
	t *transport.Transport,
	c *cache.Cache,
	conf config.GPM,
) *Downloader {
	return &Downloader{
		auth:  a,
		api:   api,
		t:     t,
		cache: c,
		conf:  conf,
	}
}
