package transport_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/skyjam/gpm/transport"
)

type staticTokens string

func (s staticTokens) SessionToken() string {
	return string(s)
}

func newTestTransport(t *testing.T) *transport.Transport {
	t.Helper()

	tr, err := transport.New("")
	require.NoError(t, err)

	return tr
}

func TestSendAttachesSessionToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t)
	tr.Bind(staticTokens("session-token"))

	//nolint:exhaustruct
	res, err := tr.Send(t.Context(), transport.Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Exactly(t, "GoogleLogin auth=session-token", gotAuth)
	assert.JSONEq(t, `{"ok":true}`, string(res.JSON))
}

// An explicitly set Authorization header must win over the bound session
// token. Re-login depends on this: the fresh token rides in the request
// header while the stale one is still bound.
func TestSendKeepsExplicitAuthorization(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := newTestTransport(t)
	tr.Bind(staticTokens("stale-token"))

	header := make(http.Header, 1)
	header.Set("Authorization", "GoogleLogin auth=fresh-token")

	//nolint:exhaustruct
	_, err := tr.Send(t.Context(), transport.Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Header:  header,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Exactly(t, "GoogleLogin auth=fresh-token", gotAuth)
}

func TestSendStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Error=BadAuthentication"))
	}))
	defer srv.Close()

	tr := newTestTransport(t)

	//nolint:exhaustruct
	_, err := tr.Send(t.Context(), transport.Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Timeout: 5 * time.Second,
	})
	require.Error(t, err)

	var statusErr *transport.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Exactly(t, http.StatusForbidden, statusErr.Code)
	assert.Exactly(t, "Error=BadAuthentication", string(statusErr.Body))
}

func TestSendParseErrorOnInvalidDeclaredJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	tr := newTestTransport(t)

	//nolint:exhaustruct
	_, err := tr.Send(t.Context(), transport.Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Timeout: 5 * time.Second,
	})
	require.Error(t, err)

	var parseErr *transport.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Exactly(t, "not json at all", string(parseErr.RawBody))
}

// JSON served under a non-JSON content type must come back raw and
// undecoded. The settings endpoint answers text/plain and callers re-parse
// the payload themselves.
func TestSendKeepsUndeclaredJSONRaw(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`{"settings":{"isSubscription":true}}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t)

	//nolint:exhaustruct
	res, err := tr.Send(t.Context(), transport.Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Nil(t, res.JSON)
	assert.JSONEq(t, `{"settings":{"isSubscription":true}}`, string(res.RawBody))

	var decoded struct{}
	require.Error(t, res.DecodeJSON(&decoded))
}

func TestSendDoesNotFollowRedirects(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/redirect" {
			w.Header().Set("Location", "https://edge.example.com/stream?sig=abc")
			w.WriteHeader(http.StatusFound)
			return
		}
		t.Errorf("redirect was followed to %s", r.URL.Path)
	}))
	defer srv.Close()

	tr := newTestTransport(t)

	//nolint:exhaustruct
	res, err := tr.Send(t.Context(), transport.Request{
		Method:  http.MethodGet,
		URL:     srv.URL + "/redirect",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Exactly(t, http.StatusFound, res.StatusCode)
	assert.Exactly(t, "https://edge.example.com/stream?sig=abc", res.Header.Get("Location"))
}

func TestSendEncodesQuery(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := newTestTransport(t)

	query := make(url.Values, 2)
	query.Set("alt", "json")
	query.Set("nid", "Tabc123")

	//nolint:exhaustruct
	_, err := tr.Send(t.Context(), transport.Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Query:   query,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Exactly(t, "json", gotQuery.Get("alt"))
	assert.Exactly(t, "Tabc123", gotQuery.Get("nid"))
}
