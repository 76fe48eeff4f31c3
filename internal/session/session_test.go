package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/internal/session"
)

const secret = "test-secret"

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			found = c
		}
	}
	require.NotNil(t, found, "session cookie not set")
	return found
}

func requestWith(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestLoginStoresCurrUser(t *testing.T) {
	m := session.NewManager(secret, 3600, false)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Login(rec, requestWith(nil), 42))
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	values := map[interface{}]interface{}{}
	codec := securecookie.New([]byte(secret), nil)
	require.NoError(t, codec.Decode(session.CookieName, cookie.Value, &values))
	assert.Equal(t, int64(42), values["curr_user"])

	id, ok := m.UserID(requestWith(cookie))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestLogoutClearsUser(t *testing.T) {
	m := session.NewManager(secret, 3600, false)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Login(rec, requestWith(nil), 7))
	cookie := sessionCookie(t, rec)

	rec = httptest.NewRecorder()
	require.NoError(t, m.Logout(rec, requestWith(cookie)))

	_, ok := m.UserID(requestWith(sessionCookie(t, rec)))
	assert.False(t, ok)
}

func TestFlashesArePoppedOnce(t *testing.T) {
	m := session.NewManager(secret, 3600, false)

	rec := httptest.NewRecorder()
	r := requestWith(nil)
	require.NoError(t, m.AddFlash(rec, r, session.FlashSuccess, "Hello, alice!"))
	require.NoError(t, m.AddFlash(rec, r, session.FlashDanger, "Access unauthorized."))
	cookie := sessionCookie(t, rec)

	rec = httptest.NewRecorder()
	flashes, err := m.Flashes(rec, requestWith(cookie))
	require.NoError(t, err)
	assert.Equal(t, []session.Flash{
		{Category: session.FlashSuccess, Message: "Hello, alice!"},
		{Category: session.FlashDanger, Message: "Access unauthorized."},
	}, flashes)

	flashes, err = m.Flashes(httptest.NewRecorder(), requestWith(sessionCookie(t, rec)))
	require.NoError(t, err)
	assert.Empty(t, flashes)
}

func TestForeignCookieIsIgnored(t *testing.T) {
	other := session.NewManager("another-secret", 3600, false)
	rec := httptest.NewRecorder()
	require.NoError(t, other.Login(rec, requestWith(nil), 1))

	m := session.NewManager(secret, 3600, false)
	_, ok := m.UserID(requestWith(sessionCookie(t, rec)))
	assert.False(t, ok)
}
