package httputil

import "net/http"

// View is the JSON document a page renders in place of an HTML template.
type View struct {
	Template    string            `json:"template"`
	Flashes     any               `json:"flashes"`
	CurrentUser any               `json:"current_user"`
	Data        any               `json:"data"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// WriteView renders a page envelope with the given status.
func WriteView(w http.ResponseWriter, status int, view View) {
	WriteJSON(w, status, view)
}

// NoCache marks every response as non-cacheable.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
