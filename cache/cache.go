package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/karlseguin/ccache/v3"

	"github.com/xeptore/skyjam/gpm/types"
)

var (
	DefaultTrackTTL = 1 * time.Hour
	DefaultAlbumTTL = 1 * time.Hour
)

type Cache struct {
	Tracks TracksCache
	Albums AlbumsCache
}

func New() *Cache {
	tracksCache := ccache.New(
		ccache.Configure[*types.Track]().
			MaxSize(10_000).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	albumsCache := ccache.New(
		ccache.Configure[json.RawMessage]().
			MaxSize(1000).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	return &Cache{
		Tracks: TracksCache{
			c:   tracksCache,
			mux: sync.Mutex{},
		},
		Albums: AlbumsCache{
			c:   albumsCache,
			mux: sync.Mutex{},
		},
	}
}

type TracksCache struct {
	c   *ccache.Cache[*types.Track]
	mux sync.Mutex
}

func (c *TracksCache) Fetch(
	k string,
	ttl time.Duration,
	fetch func() (*types.Track, error),
) (*ccache.Item[*types.Track], error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	v, err := c.c.Fetch(k, ttl, fetch)
	if nil != err {
		return nil, fmt.Errorf("fetch track: %w", err)
	}

	return v, nil
}

type AlbumsCache struct {
	c   *ccache.Cache[json.RawMessage]
	mux sync.Mutex
}

func (c *AlbumsCache) Fetch(
	k string,
	ttl time.Duration,
	fetch func() (json.RawMessage, error),
) (*ccache.Item[json.RawMessage], error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	v, err := c.c.Fetch(k, ttl, fetch)
	if nil != err {
		return nil, fmt.Errorf("fetch album: %w", err)
	}

	return v, nil
}
