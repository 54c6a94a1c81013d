package webapi

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/skyjam/gpm/transport"
)

func TestJSONBody(t *testing.T) {
	t.Parallel()

	t.Run("DeclaredJSON", func(t *testing.T) {
		t.Parallel()

		//nolint:exhaustruct
		resp := &transport.Response{
			RawBody: []byte(`{"kind":"sj#playlistList"}`),
			JSON:    json.RawMessage(`{"kind":"sj#playlistList"}`),
		}
		raw, err := jsonBody(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"kind":"sj#playlistList"}`, string(raw))
	})

	t.Run("UndeclaredContentType", func(t *testing.T) {
		t.Parallel()

		//nolint:exhaustruct
		resp := &transport.Response{RawBody: []byte("<html>error</html>"), JSON: nil}
		_, err := jsonBody(resp)
		require.Error(t, err)

		var parseErr *transport.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Exactly(t, "<html>error</html>", string(parseErr.RawBody))
	})
}
