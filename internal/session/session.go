// Package session keeps the logged-in user and pending flash messages in a
// signed cookie.
package session

import (
	"encoding/gob"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "warbler_session"

	userKey = "curr_user"
)

// Flash categories.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

func init() {
	gob.Register(Flash{})
}

// Manager reads and writes the session cookie.
type Manager struct {
	store *sessions.CookieStore
}

// NewManager creates a cookie-backed session manager signed with secret.
func NewManager(secret string, maxAge int, secure bool) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store}
}

// get never fails hard: a cookie signed with another key yields a fresh session.
func (m *Manager) get(r *http.Request) *sessions.Session {
	s, _ := m.store.Get(r, CookieName)
	return s
}

// UserID returns the id stored under curr_user, if any.
func (m *Manager) UserID(r *http.Request) (int64, bool) {
	id, ok := m.get(r).Values[userKey].(int64)
	return id, ok
}

// Login records userID as the current user.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, userID int64) error {
	s := m.get(r)
	s.Values[userKey] = userID
	return m.save(w, r, s)
}

// Logout removes the current user but keeps pending flashes.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	s := m.get(r)
	delete(s.Values, userKey)
	return m.save(w, r, s)
}

// AddFlash queues a message for the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) error {
	s := m.get(r)
	s.AddFlash(Flash{Category: category, Message: message})
	return m.save(w, r, s)
}

// Flashes pops all queued messages. The cookie is rewritten only when
// something was consumed.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) ([]Flash, error) {
	s := m.get(r)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}

	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes, m.save(w, r, s)
}

func (m *Manager) save(w http.ResponseWriter, r *http.Request, s *sessions.Session) error {
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
