package handler

import (
	"context"
	"errors"
	"net/http"

	"warbler/internal/httputil"
	"warbler/internal/model"
	"warbler/internal/service"
	"warbler/internal/session"
)

type FollowHandler struct {
	pages         *Pages
	followService *service.FollowService
}

func NewFollowHandler(pages *Pages, followService *service.FollowService) *FollowHandler {
	return &FollowHandler{
		pages:         pages,
		followService: followService,
	}
}

func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.followService.Follow)
}

func (h *FollowHandler) StopFollowing(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.followService.Unfollow)
}

func (h *FollowHandler) change(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, followerID, followeeID int64) error) {
	user, ok := h.pages.requireUser(w, r)
	if !ok {
		return
	}

	followeeID, ok := idParam(r, "id")
	if !ok {
		httputil.WriteNotFound(w, "User not found")
		return
	}

	following := userURL(user.ID) + "/following"
	if err := apply(r.Context(), user.ID, followeeID); err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, model.ErrCannotFollowSelf):
			h.pages.flashRedirect(w, r, session.FlashDanger, flashSelfFollow, following)
		default:
			h.pages.serverError(w, r, "Failed to update follow", err)
		}
		return
	}

	h.pages.redirect(w, r, following)
}

func (h *FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "users/following", h.followService.GetFollowing)
}

func (h *FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "users/followers", h.followService.GetFollowers)
}

func (h *FollowHandler) list(w http.ResponseWriter, r *http.Request, template string, fetch func(ctx context.Context, userID, viewerID int64) (*model.FollowListResponse, error)) {
	viewer, ok := h.pages.requireUser(w, r)
	if !ok {
		return
	}

	userID, ok := idParam(r, "id")
	if !ok {
		httputil.WriteNotFound(w, "User not found")
		return
	}

	resp, err := fetch(r.Context(), userID, viewer.ID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		h.pages.serverError(w, r, "Failed to load follow list", err)
		return
	}
	if resp.Users == nil {
		resp.Users = []model.UserSummary{}
	}

	h.pages.render(w, r, http.StatusOK, template, resp, nil)
}
