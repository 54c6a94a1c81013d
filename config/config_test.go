package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPMTimeoutsSetDefaults(t *testing.T) {
	t.Parallel()

	var timeouts GPMTimeouts
	timeouts.setDefaults()

	assert.Exactly(t, 10, timeouts.Auth)
	assert.Exactly(t, 10, timeouts.LoadSettings)
	assert.Exactly(t, 5, timeouts.GetStreamURL)
	assert.Exactly(t, 60, timeouts.StreamChunk)
	assert.Exactly(t, 10, timeouts.WebAPI)
	assert.Exactly(t, 5, timeouts.GetStreamSize)
	require.NoError(t, timeouts.validate())
}

func TestGPMTimeoutsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		timeouts GPMTimeouts
		wantErr  string
	}{
		{
			name:     "NegativeAuth",
			timeouts: GPMTimeouts{Auth: -1}, //nolint:exhaustruct
			wantErr:  "auth must not be negative",
		},
		{
			name:     "NegativeLoadSettings",
			timeouts: GPMTimeouts{LoadSettings: -1}, //nolint:exhaustruct
			wantErr:  "load_settings must not be negative",
		},
		{
			name:     "NegativeGetStreamURL",
			timeouts: GPMTimeouts{GetStreamURL: -1}, //nolint:exhaustruct
			wantErr:  "get_stream_url must not be negative",
		},
		{
			name:     "NegativeStreamChunk",
			timeouts: GPMTimeouts{StreamChunk: -1}, //nolint:exhaustruct
			wantErr:  "stream_chunk must not be negative",
		},
		{
			name:     "NegativeWebAPI",
			timeouts: GPMTimeouts{WebAPI: -1}, //nolint:exhaustruct
			wantErr:  "web_api must not be negative",
		},
		{
			name:     "NegativeGetStreamSize",
			timeouts: GPMTimeouts{GetStreamSize: -1}, //nolint:exhaustruct
			wantErr:  "get_stream_size must not be negative",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			err := test.timeouts.validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, test.wantErr)
		})
	}
}
