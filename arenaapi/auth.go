package arenaapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/programme-lv/arena/auth"
)

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges a username and password for credentials and stores them.
func (c *Client) Login(ctx context.Context, username, password string) (auth.Identity, error) {
	body := map[string]string{"username": username, "password": password}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", body)
	if err != nil {
		return auth.Identity{}, err
	}
	var res tokenPair
	if err := c.do(c.bare, req, &res); err != nil {
		return auth.Identity{}, err
	}
	creds := auth.Credentials{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}
	if err := c.store.Save(creds); err != nil {
		return auth.Identity{}, fmt.Errorf("failed to store credentials: %w", err)
	}
	return auth.ParseIdentity(res.AccessToken)
}

// Refresh trades a refresh token for new credentials. It does not store
// them; auth.Transport does.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (auth.Credentials, error) {
	body := map[string]string{"refreshToken": refreshToken}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/refresh", body)
	if err != nil {
		return auth.Credentials{}, err
	}
	var res tokenPair
	if err := c.do(c.bare, req, &res); err != nil {
		return auth.Credentials{}, err
	}
	return auth.Credentials{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil
}

// Identity reports who the stored credentials belong to.
func (c *Client) Identity() (auth.Identity, error) {
	creds, err := c.store.Load()
	if err != nil {
		return auth.Identity{}, err
	}
	if creds.AccessToken == "" {
		return auth.Identity{}, ErrNotSignedIn()
	}
	return auth.ParseIdentity(creds.AccessToken)
}
