package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/programme-lv/arena/logger"
	"github.com/programme-lv/arena/srvcerror"
	"golang.org/x/sync/singleflight"
)

var errNoRefreshToken = errors.New("no refresh token stored")

// RefreshFunc trades a refresh token for a new pair of credentials.
type RefreshFunc func(ctx context.Context, refreshToken string) (Credentials, error)

// Transport attaches the bearer token to every request. On a 401 it
// refreshes the credentials once, retries the request once, and if the
// refresh is rejected or the retry is still refused clears the stored
// credentials and reports unauthenticated so the caller can send the user
// to the login screen. A refresh that fails for any other reason, such as
// the network, keeps the credentials for a later attempt.
type Transport struct {
	Base    http.RoundTripper
	Store   Store
	Refresh RefreshFunc

	// concurrent 401s share a single refresh
	refreshGroup singleflight.Group
}

func (t *Transport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	creds, err := t.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	resp, err := t.base().RoundTrip(withBearer(req, creds.AccessToken))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	drain(resp)

	log := logger.FromContext(req.Context())
	fresh, err := t.refresh(req.Context(), creds.AccessToken)
	if err != nil {
		if !refreshRejected(err) {
			log.Warn("credential refresh failed, keeping credentials", "error", err)
			return nil, transient(err)
		}
		log.Warn("credential refresh rejected", "error", err)
		return nil, t.unauthenticated(err)
	}

	retry, err := rewind(req)
	if err != nil {
		return nil, err
	}
	resp, err = t.base().RoundTrip(withBearer(retry, fresh.AccessToken))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		log.Warn("request rejected after credential refresh", "url", req.URL.Path)
		return nil, t.unauthenticated(errors.New("rejected after refresh"))
	}
	return resp, nil
}

// refresh returns fresh credentials. If another request already
// refreshed past staleAccess, its result is reused.
func (t *Transport) refresh(ctx context.Context, staleAccess string) (Credentials, error) {
	v, err, _ := t.refreshGroup.Do("refresh", func() (interface{}, error) {
		cur, err := t.Store.Load()
		if err != nil {
			return Credentials{}, err
		}
		if cur.AccessToken != "" && cur.AccessToken != staleAccess {
			return cur, nil
		}
		if cur.RefreshToken == "" || t.Refresh == nil {
			return Credentials{}, errNoRefreshToken
		}

		fresh, err := t.Refresh(ctx, cur.RefreshToken)
		if err != nil {
			return Credentials{}, err
		}
		if fresh.RefreshToken == "" {
			fresh.RefreshToken = cur.RefreshToken
		}
		if err := t.Store.Save(fresh); err != nil {
			return Credentials{}, fmt.Errorf("failed to store refreshed credentials: %w", err)
		}
		return fresh, nil
	})
	if err != nil {
		return Credentials{}, err
	}
	return v.(Credentials), nil
}

// refreshRejected reports whether the server refused the refresh token
// itself, as opposed to the refresh not getting through.
func refreshRejected(err error) bool {
	if errors.Is(err, errNoRefreshToken) {
		return true
	}
	srvcErr := &srvcerror.Error{}
	if !errors.As(err, &srvcErr) {
		return false
	}
	status := srvcErr.HttpStatusCode()
	return status >= 400 && status < 500
}

func transient(err error) error {
	srvcErr := &srvcerror.Error{}
	if errors.As(err, &srvcErr) {
		return srvcErr
	}
	return srvcerror.ErrNetwork().SetDebug(err)
}

func (t *Transport) unauthenticated(cause error) error {
	if err := t.Store.Clear(); err != nil {
		cause = errors.Join(cause, err)
	}
	return srvcerror.ErrUnauthenticated().SetDebug(cause)
}

func withBearer(req *http.Request, token string) *http.Request {
	r := req.Clone(req.Context())
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	} else {
		r.Header.Del("Authorization")
	}
	return r
}

// rewind prepares the original request for a second attempt.
func rewind(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to replay request body: %w", err)
	}
	r.Body = body
	return r, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
