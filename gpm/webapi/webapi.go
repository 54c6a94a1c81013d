// Package webapi wraps the peripheral sj JSON endpoints: library, search,
// catalog fetches, playlist and station mutation batches. They carry no
// protocol logic of their own; every call is a pass-through authenticated
// request over the shared transport.
package webapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/xeptore/skyjam/config"
	"github.com/xeptore/skyjam/gpm/transport"
	"github.com/xeptore/skyjam/must"
	"github.com/xeptore/skyjam/ratelimit"
)

const baseURL = "https://www.googleapis.com/sj/v1.11/"

type Service struct {
	t       *transport.Transport
	conf    config.GPM
	limiter *rate.Limiter
}

func New(t *transport.Transport, conf config.GPM) *Service {
	return &Service{
		t:    t,
		conf: conf,
		limiter: rate.NewLimiter(
			rate.Limit(ratelimit.WebAPIRequestsPerSecond),
			ratelimit.WebAPIRequestsPerSecond,
		),
	}
}

func endpoint(path string) string {
	u, err := url.JoinPath(baseURL, path)
	must.NilErr(err)

	return u
}

func (s *Service) get(ctx context.Context, path string, query url.Values) (*transport.Response, error) {
	if err := s.limiter.Wait(ctx); nil != err {
		return nil, fmt.Errorf("failed to wait for request budget: %w", err)
	}

	resp, err := s.t.Send(ctx, transport.Request{ //nolint:exhaustruct
		Method:  http.MethodGet,
		URL:     endpoint(path),
		Query:   query,
		Timeout: time.Duration(s.conf.Timeouts.WebAPI) * time.Second,
	})
	if nil != err {
		return nil, fmt.Errorf("failed to get %s: %w", path, err)
	}

	return resp, nil
}

func (s *Service) postJSON(ctx context.Context, path string, query url.Values, body any) (*transport.Response, error) {
	if err := s.limiter.Wait(ctx); nil != err {
		return nil, fmt.Errorf("failed to wait for request budget: %w", err)
	}

	var raw []byte
	if body != nil {
		b, err := json.Marshal(body)
		if nil != err {
			return nil, fmt.Errorf("failed to encode %s request body: %v", path, err)
		}
		raw = b
	}

	resp, err := s.t.Send(ctx, transport.Request{ //nolint:exhaustruct
		Method:      http.MethodPost,
		URL:         endpoint(path),
		Query:       query,
		ContentType: "application/json",
		Body:        raw,
		Timeout:     time.Duration(s.conf.Timeouts.WebAPI) * time.Second,
	})
	if nil != err {
		return nil, fmt.Errorf("failed to post %s: %w", path, err)
	}

	return resp, nil
}

func altJSON() url.Values {
	q := make(url.Values, 1)
	q.Set("alt", "json")

	return q
}

// jsonBody is the passthrough for endpoints whose payload is returned to the
// caller untouched. A response without a declared JSON content type is a
// parse failure, not an empty payload.
func jsonBody(resp *transport.Response) (json.RawMessage, error) {
	if resp.JSON == nil {
		return nil, &transport.ParseError{
			RawBody: resp.RawBody,
			Err:     errors.New("response did not declare a JSON content type"),
		}
	}

	return resp.JSON, nil
}
