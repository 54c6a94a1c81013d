package downloader

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/skyjam/config"
	"github.com/xeptore/skyjam/gpm/auth"
	"github.com/xeptore/skyjam/gpm/sign"
	"github.com/xeptore/skyjam/gpm/transport"
)

func newTestDownloader(t *testing.T) *Downloader {
	t.Helper()

	tr, err := transport.New("")
	require.NoError(t, err)

	//nolint:exhaustruct
	return &Downloader{
		t:    tr,
		conf: config.GPM{Timeouts: config.GPMTimeouts{GetStreamURL: 5}}, //nolint:exhaustruct
	}
}

func testSession() *auth.Session {
	return &auth.Session{
		Token:      "session-token",
		DeviceID:   "1234",
		SigningKey: []byte("0123456789"),
		Subscribed: true,
	}
}

func TestStreamRedirect(t *testing.T) {
	t.Parallel()

	t.Run("RedirectLocationPassedThrough", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Exactly(t, "1234", r.Header.Get("X-Device-ID"))

			q := r.URL.Query()
			assert.Exactly(t, "Tabc123", q.Get("mjck"))
			assert.False(t, q.Has("songid"))
			assert.Len(t, q.Get("slt"), sign.SaltLength)
			assert.NotEmpty(t, q.Get("sig"))

			w.Header().Set("Location", "https://edge.example.com/stream?x=1")
			w.WriteHeader(http.StatusFound)
		}))
		defer srv.Close()

		d := newTestDownloader(t)
		u, err := d.streamRedirect(t.Context(), zerolog.Nop(), srv.URL, testSession(), "Tabc123")
		require.NoError(t, err)
		assert.Exactly(t, "https://edge.example.com/stream?x=1", u)
	})

	t.Run("OKInsteadOfRedirect", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		d := newTestDownloader(t)
		_, err := d.streamRedirect(t.Context(), zerolog.Nop(), srv.URL, testSession(), "Tabc123")
		require.ErrorIs(t, err, ErrNoStreamURL)
	})

	t.Run("RedirectWithoutLocation", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusFound)
		}))
		defer srv.Close()

		d := newTestDownloader(t)
		_, err := d.streamRedirect(t.Context(), zerolog.Nop(), srv.URL, testSession(), "Tabc123")
		require.ErrorIs(t, err, ErrNoStreamURL)
	})

	t.Run("LibraryTrackUsesSongID", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Exactly(t, "abc-123", q.Get("songid"))
			assert.False(t, q.Has("mjck"))

			w.Header().Set("Location", "https://edge.example.com/stream?x=2")
			w.WriteHeader(http.StatusFound)
		}))
		defer srv.Close()

		d := newTestDownloader(t)
		u, err := d.streamRedirect(t.Context(), zerolog.Nop(), srv.URL, testSession(), "abc-123")
		require.NoError(t, err)
		assert.Exactly(t, "https://edge.example.com/stream?x=2", u)
	})
}
