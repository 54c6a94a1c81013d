package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/xeptore/skyjam/config"
	"github.com/xeptore/skyjam/gpm/transport"
	"github.com/xeptore/skyjam/store"
)

var (
	ErrMissingCredentials = errors.New("either an email and password pair or a master token is required")
	ErrNoUsableDevice     = errors.New("no usable mobile device is registered on the account")
)

// Session is the immutable outcome of a successful login. It is created once
// by Login, stored wholesale, and only ever read afterwards; re-login
// replaces the whole value atomically so concurrent readers never observe a
// partially updated session.
type Session struct {
	Token      string
	DeviceID   string
	SigningKey []byte
	Subscribed bool
}

type Auth struct {
	store   *store.Store
	t       *transport.Transport
	conf    config.GPM
	session atomic.Pointer[Session]
}

func New(st *store.Store, t *transport.Transport, conf config.GPM) *Auth {
	a := &Auth{
		store:   st,
		t:       t,
		conf:    conf,
		session: atomic.Pointer[Session]{},
	}
	t.Bind(a)

	return a
}

func (a *Auth) Session() *Session {
	return a.session.Load()
}

// SessionToken implements transport.TokenSource. In-flight requests that
// already read a token keep it; only requests issued after a re-login see
// the replacement.
func (a *Auth) SessionToken() string {
	if s := a.session.Load(); s != nil {
		return s.Token
	}

	return ""
}

// Login runs the full sequence: resolve a session token from the configured
// credential, then bind the session by selecting a usable mobile device from
// the account settings. Binding strictly follows resolution as it needs the
// token the resolver produced.
func (a *Auth) Login(ctx context.Context, logger zerolog.Logger) error {
	androidID, err := a.androidID()
	if nil != err {
		return fmt.Errorf("failed to resolve android id: %v", err)
	}

	token, err := a.acquireSessionToken(ctx, logger, androidID)
	if nil != err {
		return err
	}

	session, err := a.bindSession(ctx, logger, token)
	if nil != err {
		return err
	}

	a.session.Store(session)
	logger.Debug().Str("device_id", session.DeviceID).Bool("subscribed", session.Subscribed).Msg("Session bound")

	return nil
}

// androidID returns the stable per-install device identifier, generating and
// persisting one on first use.
func (a *Auth) androidID() (string, error) {
	id, err := a.store.AndroidID()
	if nil != err {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	raw := make([]byte, 8)
	if _, err := rand.Read(raw); nil != err {
		return "", fmt.Errorf("failed to generate android id: %v", err)
	}
	id = hex.EncodeToString(raw)

	if err := a.store.SetAndroidID(id); nil != err {
		return "", err
	}

	return id, nil
}
