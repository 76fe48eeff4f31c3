package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/internal/model"
	"warbler/internal/session"
)

type stubTokens map[string]int64

func (s stubTokens) ParseToken(token string) (int64, error) {
	if token == "expired" {
		return 0, model.ErrTokenExpired
	}
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, model.ErrTokenInvalid
}

type stubUsers map[int64]*model.User

func (s stubUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, model.ErrUserNotFound
}

func runWith(t *testing.T, sessions *session.Manager, r *http.Request) (*httptest.ResponseRecorder, *model.User) {
	t.Helper()
	var seen *model.User
	h := LoadCurrentUser(sessions, stubTokens{"good": 1, "ghost": 2}, stubUsers{1: {ID: 1, Username: "alice"}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = GetCurrentUser(r.Context())
		}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec, seen
}

func TestLoadCurrentUser_Anonymous(t *testing.T) {
	rec, user := runWith(t, session.NewManager("k", 60, false), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, user)
}

func TestLoadCurrentUser_Bearer(t *testing.T) {
	sessions := session.NewManager("k", 60, false)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer good")
	_, user := runWith(t, sessions, r)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	for token, code := range map[string]string{"expired": model.CodeTokenExpired, "junk": model.CodeTokenInvalid, "ghost": model.CodeTokenInvalid} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rec, user := runWith(t, sessions, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, token)
		assert.Contains(t, rec.Body.String(), code, token)
		assert.Nil(t, user)
	}
}

func TestLoadCurrentUser_Session(t *testing.T) {
	sessions := session.NewManager("k", 60, false)

	login := httptest.NewRecorder()
	require.NoError(t, sessions.Login(login, httptest.NewRequest(http.MethodGet, "/", nil), 1))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range login.Result().Cookies() {
		r.AddCookie(c)
	}
	_, user := runWith(t, sessions, r)
	require.NotNil(t, user)
	assert.Equal(t, int64(1), user.ID)
}

func TestLoadCurrentUser_StaleSessionIsCleared(t *testing.T) {
	sessions := session.NewManager("k", 60, false)

	login := httptest.NewRecorder()
	require.NoError(t, sessions.Login(login, httptest.NewRequest(http.MethodGet, "/", nil), 42))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range login.Result().Cookies() {
		r.AddCookie(c)
	}
	rec, user := runWith(t, sessions, r)
	assert.Nil(t, user)
	assert.NotEmpty(t, rec.Result().Cookies(), "session is rewritten without curr_user")
}
