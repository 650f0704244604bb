package arenafake

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/httpjson"
	"golang.org/x/crypto/bcrypt"
)

// AddUser creates an account and returns its id.
func (s *Server) AddUser(username, password string) (string, error) {
	bcryptPwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return "", ErrUsernameTaken()
	}
	u := &user{id: uuid.NewString(), username: username, bcryptPwd: bcryptPwd}
	s.users[username] = u
	return u.id, nil
}

// IssueTokens signs a fresh token pair for username without a password.
func (s *Server) IssueTokens(username string) (auth.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return auth.Credentials{}, ErrWrongCredentials()
	}
	return s.issueTokens(u)
}

func (s *Server) issueTokens(u *user) (auth.Credentials, error) {
	access, err := auth.GenerateJWT(u.username, u.id, s.cfg.AccessTTL, s.cfg.JwtKey)
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("failed to generate jwt: %w", err)
	}
	refresh := uuid.NewString()
	s.refresh[refresh] = u.id
	return auth.Credentials{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Server) userByID(id string) (*user, bool) {
	for _, u := range s.users {
		if u.id == id {
			return u, true
		}
	}
	return nil, false
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) postLogin(w http.ResponseWriter, r *http.Request) {
	type loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	s.log.Info("received login request", "username", request.Username)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[request.Username]
	if !ok {
		httpjson.HandleError(s.log, w, ErrWrongCredentials())
		return
	}
	if err := bcrypt.CompareHashAndPassword(u.bcryptPwd, []byte(request.Password)); err != nil {
		httpjson.HandleError(s.log, w, ErrWrongCredentials())
		return
	}

	creds, err := s.issueTokens(u)
	if err != nil {
		httpjson.HandleError(s.log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, tokenResponse(creds))
}

// postRefresh rotates the refresh token: the old one stops working.
func (s *Server) postRefresh(w http.ResponseWriter, r *http.Request) {
	type refreshRequest struct {
		RefreshToken string `json:"refreshToken"`
	}

	var request refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.refresh[request.RefreshToken]
	if !ok {
		httpjson.HandleError(s.log, w, ErrInvalidRefreshToken())
		return
	}
	delete(s.refresh, request.RefreshToken)

	u, ok := s.userByID(userID)
	if !ok {
		httpjson.HandleError(s.log, w, ErrInvalidRefreshToken())
		return
	}
	creds, err := s.issueTokens(u)
	if err != nil {
		httpjson.HandleError(s.log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, tokenResponse(creds))
}
