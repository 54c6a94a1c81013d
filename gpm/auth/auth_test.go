package auth_test

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/skyjam/config"
	"github.com/xeptore/skyjam/gpm/auth"
	"github.com/xeptore/skyjam/gpm/transport"
	"github.com/xeptore/skyjam/store"
)

func newTestAuth(t *testing.T, conf config.GPM) (*auth.Auth, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, st.Close()) })

	tr, err := transport.New(conf.Proxy)
	require.NoError(t, err)

	return auth.New(st, tr, conf), st
}

func TestLoginWithoutCredentials(t *testing.T) {
	t.Parallel()

	a, _ := newTestAuth(t, config.GPM{}) //nolint:exhaustruct

	err := a.Login(t.Context(), zerolog.Nop())
	require.ErrorIs(t, err, auth.ErrMissingCredentials)
	assert.Nil(t, a.Session())
}

func TestLoginWithPasswordButNoEmail(t *testing.T) {
	t.Parallel()

	a, _ := newTestAuth(t, config.GPM{Password: "hunter2"}) //nolint:exhaustruct

	err := a.Login(t.Context(), zerolog.Nop())
	require.ErrorIs(t, err, auth.ErrMissingCredentials)
}

// The android id must be minted once per install and reused on every
// subsequent login attempt, even when the attempt itself fails.
func TestLoginPersistsAndroidID(t *testing.T) {
	t.Parallel()

	a, st := newTestAuth(t, config.GPM{}) //nolint:exhaustruct

	require.ErrorIs(t, a.Login(t.Context(), zerolog.Nop()), auth.ErrMissingCredentials)

	id, err := st.AndroidID()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), id)

	require.ErrorIs(t, a.Login(t.Context(), zerolog.Nop()), auth.ErrMissingCredentials)

	again, err := st.AndroidID()
	require.NoError(t, err)
	assert.Exactly(t, id, again)
}

func TestSessionTokenWithoutSession(t *testing.T) {
	t.Parallel()

	a, _ := newTestAuth(t, config.GPM{}) //nolint:exhaustruct
	assert.Empty(t, a.SessionToken())
}
