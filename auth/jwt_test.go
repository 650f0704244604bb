package auth_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/programme-lv/arena/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("arena-test-key")

func TestGenerateValidateAndParse(t *testing.T) {
	token, err := auth.GenerateJWT("asha", "u-1", time.Hour, testKey)
	require.NoError(t, err)

	claims, err := auth.ValidateJWT(token, testKey)
	require.NoError(t, err)
	assert.Equal(t, "asha", claims.Username)
	assert.Equal(t, "u-1", claims.UUID)

	_, err = auth.ValidateJWT(token, []byte("other-key"))
	assert.Error(t, err)

	id, err := auth.ParseIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, "asha", id.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), id.ExpiresAt, 5*time.Second)

	_, err = auth.ParseIdentity("not-a-jwt")
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := auth.GenerateJWT("asha", "u-1", -time.Minute, testKey)
	require.NoError(t, err)
	_, err = auth.ValidateJWT(token, testKey)
	assert.Error(t, err)

	// identity is still readable so the client knows whose token expired
	id, err := auth.ParseIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
}

func TestMiddleware(t *testing.T) {
	var seen *auth.JwtClaims
	h := auth.GetJwtAuthMiddleware(testKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.ClaimsFromContext(r.Context())
	}))

	token, err := auth.GenerateJWT("asha", "u-1", time.Hour, testKey)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.NotNil(t, seen)
	assert.Equal(t, "u-1", seen.UUID)

	seen = nil
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, seen)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena", "credentials.json")
	s := auth.NewFileStore(path)

	c, err := s.Load()
	require.NoError(t, err)
	assert.True(t, c.Empty())

	want := auth.Credentials{AccessToken: "a", RefreshToken: "r"}
	require.NoError(t, s.Save(want))
	got, err := auth.NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	c, err = s.Load()
	require.NoError(t, err)
	assert.True(t, c.Empty())
}
