package handler

import (
	"net/http"

	"warbler/internal/httputil"
	"warbler/internal/service"
	"warbler/internal/transport/http/middleware"
)

type HomeHandler struct {
	pages       *Pages
	feedService *service.FeedService
}

func NewHomeHandler(pages *Pages, feedService *service.FeedService) *HomeHandler {
	return &HomeHandler{
		pages:       pages,
		feedService: feedService,
	}
}

// Home shows the landing page to visitors and the followed-users timeline to members.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.pages.render(w, r, http.StatusOK, "home-anon", nil, nil)
		return
	}

	feed, err := h.feedService.Home(r.Context(), user.ID)
	if err != nil {
		h.pages.serverError(w, r, "Failed to load feed", err)
		return
	}

	h.pages.render(w, r, http.StatusOK, "home", feed, nil)
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
