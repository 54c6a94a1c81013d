package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/skyjam/store"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.db")

	st, err := store.Open(path)
	require.NoError(t, err)

	id, err := st.AndroidID()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, st.SetAndroidID("301a1b2c3d4e5f60"))
	require.NoError(t, st.SetMasterToken("aas_et/master-token"))
	require.NoError(t, st.Close())

	// Values must survive reopening the database.
	st, err = store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, st.Close()) })

	id, err = st.AndroidID()
	require.NoError(t, err)
	assert.Exactly(t, "301a1b2c3d4e5f60", id)

	token, err := st.MasterToken()
	require.NoError(t, err)
	assert.Exactly(t, "aas_et/master-token", token)
}

func TestStoreOverwrite(t *testing.T) {
	t.Parallel()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, st.Close()) })

	require.NoError(t, st.SetMasterToken("first"))
	require.NoError(t, st.SetMasterToken("second"))

	token, err := st.MasterToken()
	require.NoError(t, err)
	assert.Exactly(t, "second", token)
}
