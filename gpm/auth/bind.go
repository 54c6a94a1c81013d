package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/skyjam/gpm/transport"
	"github.com/xeptore/skyjam/gpm/types"
)

const loadSettingsURL = "https://play.google.com/music/services/loadsettings"

// deviceIDPrefixLen is the length of the fixed "0x" prefix stripped from a
// registration id to obtain the identifier the stream endpoint expects.
const deviceIDPrefixLen = 2

// Settings fetches the account settings document with the bound session.
func (a *Auth) Settings(ctx context.Context, logger zerolog.Logger) (*types.Settings, error) {
	return a.loadSettings(ctx, logger, "")
}

// loadSettings posts to the loadsettings endpoint. An explicit token
// overrides the bound session, which is how the binder authenticates before
// any session exists.
func (a *Auth) loadSettings(
	ctx context.Context,
	logger zerolog.Logger,
	token string,
) (*types.Settings, error) {
	body, err := json.Marshal(map[string]string{"sessionId": ""})
	if nil != err {
		return nil, fmt.Errorf("failed to encode loadsettings request body: %v", err)
	}

	query := make(url.Values, 1)
	query.Set("u", strconv.Itoa(a.conf.AccountIndex))

	header := make(http.Header, 1)
	if token != "" {
		header.Set("Authorization", "GoogleLogin auth="+token)
	}

	logger.Debug().Msg("Loading account settings")

	resp, err := a.t.Send(ctx, transport.Request{ //nolint:exhaustruct
		Method:      http.MethodPost,
		URL:         loadSettingsURL,
		Query:       query,
		Header:      header,
		ContentType: "application/json",
		Body:        body,
		Timeout:     time.Duration(a.conf.Timeouts.LoadSettings) * time.Second,
	})
	if nil != err {
		return nil, fmt.Errorf("failed to load account settings: %w", err)
	}

	// loadsettings declares text/plain even though the body is JSON, so the
	// transport leaves it undecoded and it must be parsed here.
	var respBody struct {
		Settings types.Settings `json:"settings"`
	}
	if err := json.Unmarshal(resp.RawBody, &respBody); nil != err {
		return nil, &transport.ParseError{RawBody: resp.RawBody, Err: err}
	}

	return &respBody.Settings, nil
}

// bindSession fetches the account settings with the freshly resolved token
// and selects the first PHONE or IOS registration in account order. Zero
// eligible devices is permanent: the user must register a mobile device
// out-of-band before stream URLs can ever be minted.
func (a *Auth) bindSession(
	ctx context.Context,
	logger zerolog.Logger,
	token string,
) (*Session, error) {
	settings, err := a.loadSettings(ctx, logger, token)
	if nil != err {
		return nil, err
	}

	deviceID, err := selectDevice(settings.Devices)
	if nil != err {
		return nil, err
	}

	logger.Debug().Str("device_id", deviceID).Msg("Selected mobile device")

	return &Session{
		Token:      token,
		DeviceID:   deviceID,
		SigningKey: SigningKey(),
		Subscribed: settings.IsSubscription,
	}, nil
}

// selectDevice picks the stream-authorized registration: the first PHONE or
// IOS entry in account order, with the fixed "0x" prefix stripped from its
// id.
func selectDevice(devices []types.Device) (string, error) {
	mobile := lo.Filter(devices, func(d types.Device, _ int) bool { return d.Mobile() })
	if len(mobile) == 0 {
		return "", ErrNoUsableDevice
	}

	first := mobile[0]
	if len(first.ID) <= deviceIDPrefixLen {
		return "", fmt.Errorf("unexpected device id format: %s", first.ID)
	}

	return first.ID[deviceIDPrefixLen:], nil
}
