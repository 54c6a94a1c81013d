package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/xeptore/skyjam/gpm/transport"
	"github.com/xeptore/skyjam/httputil"
)

const authURL = "https://android.clients.google.com/auth"

// acquireSessionToken exchanges the configured credential for a short-lived
// session token. A missing credential is a configuration error detected
// before any network I/O. The endpoint answers with newline-delimited
// key=value pairs, not JSON; Auth is the session token. No retry happens
// here, that is the caller's business.
func (a *Auth) acquireSessionToken(
	ctx context.Context,
	logger zerolog.Logger,
	androidID string,
) (string, error) {
	masterToken := a.conf.MasterToken
	if masterToken == "" {
		stored, err := a.store.MasterToken()
		if nil != err {
			return "", fmt.Errorf("failed to load stored master token: %v", err)
		}
		masterToken = stored
	}

	data := make(url.Values, 12)
	data.Set("accountType", "HOSTED_OR_GOOGLE")
	data.Set("has_permission", "1")
	data.Set("service", "sj")
	data.Set("source", "android")
	data.Set("androidId", androidID)
	data.Set("app", "com.google.android.music")
	data.Set("device_country", "us")
	data.Set("operatorCountry", "us")
	data.Set("lang", "en")
	data.Set("sdk_version", "17")

	switch {
	case masterToken != "":
		data.Set("Token", masterToken)
	case a.conf.Password != "":
		if a.conf.Email == "" {
			return "", ErrMissingCredentials
		}
		data.Set("Email", a.conf.Email)
		data.Set("Passwd", a.conf.Password)
	default:
		return "", ErrMissingCredentials
	}

	logger.Debug().Str("android_id", androidID).Msg("Exchanging credential for session token")

	resp, err := a.t.Send(ctx, transport.Request{ //nolint:exhaustruct
		Method:  http.MethodPost,
		URL:     authURL,
		Body:    []byte(data.Encode()),
		Timeout: time.Duration(a.conf.Timeouts.Auth) * time.Second,
	})
	if nil != err {
		return "", fmt.Errorf("failed to exchange credential for session token: %w", err)
	}

	kv := httputil.ParseKeyValues(string(resp.RawBody))
	token, ok := kv["Auth"]
	if !ok || token == "" {
		return "", fmt.Errorf("authentication response misses the Auth field, body: %s", string(resp.RawBody))
	}

	// A password exchange may also mint a long-lived master token. Keep it so
	// subsequent runs skip the password.
	if mt, ok := kv["Token"]; ok && mt != "" && a.conf.MasterToken == "" {
		if err := a.store.SetMasterToken(mt); nil != err {
			logger.Warn().Err(err).Msg("Failed to persist master token")
		}
	}

	return token, nil
}
