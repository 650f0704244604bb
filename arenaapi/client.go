package arenaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/httpjson"
	"github.com/programme-lv/arena/logger"
	"github.com/programme-lv/arena/srvcerror"
)

// Client talks to the contest backend. Authenticated calls go through
// auth.Transport; login and refresh use a bare client so a refresh can
// never recurse into another refresh.
type Client struct {
	baseURL string
	authed  *http.Client
	bare    *http.Client
	store   auth.Store
}

type Option func(*options)

type options struct {
	timeout time.Duration
	base    http.RoundTripper
}

// WithTimeout bounds every request. Zero means no client side limit.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithBaseTransport replaces http.DefaultTransport under the compression
// and auth layers.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

func NewClient(baseURL string, store auth.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", baseURL)
	}
	o := options{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	compressed := gzhttp.Transport(o.base)
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		bare:    &http.Client{Transport: compressed, Timeout: o.timeout},
		store:   store,
	}
	c.authed = &http.Client{
		Transport: &auth.Transport{
			Base:    compressed,
			Store:   store,
			Refresh: c.Refresh,
		},
		Timeout: o.timeout,
	}
	return c, nil
}

func (c *Client) Store() auth.Store {
	return c.store
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(hc *http.Client, req *http.Request, out any) error {
	log := logger.FromContext(req.Context())
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		log.Warn("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		srvcErr := &srvcerror.Error{}
		if errors.As(err, &srvcErr) {
			return srvcErr
		}
		return srvcerror.ErrNetwork().SetDebug(err)
	}
	log.Debug("request done",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start))
	return httpjson.Decode(resp, out)
}
