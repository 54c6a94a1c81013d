package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/skyjam/gpm/types"
)

func TestSelectDevice(t *testing.T) {
	t.Parallel()

	t.Run("FirstMobileWinsWithPrefixStripped", func(t *testing.T) {
		t.Parallel()

		devices := []types.Device{
			{ID: "0xdeadbeef", Type: "CHROME"},
			{ID: "0x1234", Type: types.DeviceTypePhone},
			{ID: "0x5678", Type: types.DeviceTypeIOS},
		}
		id, err := selectDevice(devices)
		require.NoError(t, err)
		assert.Exactly(t, "1234", id)
	})

	t.Run("IOSBeforePhone", func(t *testing.T) {
		t.Parallel()

		devices := []types.Device{
			{ID: "ios:cafe", Type: types.DeviceTypeIOS},
			{ID: "0x1234", Type: types.DeviceTypePhone},
		}
		id, err := selectDevice(devices)
		require.NoError(t, err)
		assert.Exactly(t, "s:cafe", id)
	})

	t.Run("NoMobileDevice", func(t *testing.T) {
		t.Parallel()

		devices := []types.Device{
			{ID: "0xdeadbeef", Type: "CHROME"},
			{ID: "0xfeedface", Type: "DESKTOP_APP"},
		}
		_, err := selectDevice(devices)
		require.ErrorIs(t, err, ErrNoUsableDevice)
	})

	t.Run("NoDevices", func(t *testing.T) {
		t.Parallel()

		_, err := selectDevice(nil)
		require.ErrorIs(t, err, ErrNoUsableDevice)
	})

	t.Run("MalformedID", func(t *testing.T) {
		t.Parallel()

		_, err := selectDevice([]types.Device{{ID: "0x", Type: types.DeviceTypePhone}})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoUsableDevice)
	})
}
