// Package transport is the thin HTTP layer shared by the authenticated core
// and every peripheral sj endpoint wrapper. It attaches the bound session
// token, buffers response bodies, and decodes JSON only when the server
// declares it. It never retries and never follows redirects: the stream
// endpoint's raw 302 must stay observable.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/net/proxy"

	"github.com/xeptore/skyjam/httputil"
)

// TokenSource yields the current session token, or the empty string when no
// session is bound yet. Implemented by the auth layer.
type TokenSource interface {
	SessionToken() string
}

type Transport struct {
	tokens TokenSource
	dial   func(ctx context.Context, network, addr string) (net.Conn, error)
}

// New builds a transport, optionally tunneling through a SOCKS5 proxy URL.
func New(proxyURL string) (*Transport, error) {
	t := &Transport{tokens: nil, dial: nil}

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if nil != err {
			return nil, fmt.Errorf("failed to parse proxy URL: %v", err)
		}

		var auth *proxy.Auth
		if u.User != nil {
			pwd, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pwd}
		}

		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if nil != err {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %v", err)
		}

		ctxDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, errors.New("SOCKS5 dialer does not support context dialing")
		}
		t.dial = ctxDialer.DialContext
	}

	return t, nil
}

// Bind attaches a token source. Requests sent afterwards carry the
// GoogleLogin authorization header whenever the source yields a token.
func (t *Transport) Bind(tokens TokenSource) {
	t.tokens = tokens
}

type Request struct {
	Method      string
	URL         string
	Query       url.Values
	Header      http.Header
	ContentType string
	Body        []byte
	Timeout     time.Duration
}

type Response struct {
	StatusCode int
	Header     http.Header
	RawBody    []byte

	// JSON is set only when the response declared application/json and the
	// body parsed. Endpoints that serve JSON under a non-JSON content type
	// must re-parse RawBody themselves.
	JSON json.RawMessage
}

func (r *Response) DecodeJSON(v any) error {
	if r.JSON == nil {
		return &ParseError{RawBody: r.RawBody, Err: errors.New("response did not declare a JSON content type")}
	}
	if err := json.Unmarshal(r.JSON, v); nil != err {
		return &ParseError{RawBody: r.RawBody, Err: err}
	}

	return nil
}

// Send performs a single round-trip. Failures are distinguishable by kind:
// dial/TLS problems come back wrapped as plain errors, HTTP status >= 400 is
// a *StatusError with the buffered body, and a body that fails to parse as
// declared is a *ParseError that still carries the raw payload.
func (t *Transport) Send(ctx context.Context, r Request) (res *Response, err error) {
	reqURL := r.URL
	if len(r.Query) > 0 {
		u, err := url.Parse(r.URL)
		if nil != err {
			return nil, fmt.Errorf("failed to parse request URL %s: %v", r.URL, err)
		}
		u.RawQuery = r.Query.Encode()
		reqURL = u.String()
	}

	var body *bytes.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, reqURL, body)
	if nil != err {
		return nil, fmt.Errorf("failed to create %s %s request: %v", r.Method, reqURL, err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	contentType := r.ContentType
	if contentType == "" {
		contentType = "application/x-www-form-urlencoded"
	}
	req.Header.Set("Content-Type", contentType)

	if req.Header.Get("Authorization") == "" && t.tokens != nil {
		if token := t.tokens.SessionToken(); token != "" {
			req.Header.Set("Authorization", "GoogleLogin auth="+token)
		}
	}

	client := t.newClient(r.Timeout)
	resp, err := client.Do(req)
	if nil != err {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}

		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}

		return nil, fmt.Errorf("failed to send %s %s request: %w", r.Method, reqURL, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close response body: %v", closeErr))
		}
	}()

	respBody, err := httputil.ReadOptionalResponseBody(resp)
	if nil != err {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{Code: resp.StatusCode, Body: respBody}
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		RawBody:    respBody,
		JSON:       nil,
	}

	if declaredContentType(resp) == "application/json" {
		if !json.Valid(respBody) {
			return nil, &ParseError{RawBody: respBody, Err: errors.New("body is not valid JSON")}
		}
		out.JSON = respBody
	}

	return out, nil
}

func (t *Transport) newClient(timeout time.Duration) *http.Client {
	client := &http.Client{ //nolint:exhaustruct
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	if t.dial != nil {
		client.Transport = &http.Transport{DialContext: t.dial} //nolint:exhaustruct
	}

	return client
}

func declaredContentType(resp *http.Response) string {
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}

	return strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
}
