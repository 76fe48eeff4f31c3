package handler

import (
	"errors"
	"net/http"

	"warbler/internal/form"
	"warbler/internal/httputil"
	"warbler/internal/model"
	"warbler/internal/service"
	"warbler/internal/session"
	"warbler/internal/transport/http/middleware"
)

// UserHandler serves the user directory, profiles, profile editing,
// liked messages and account deletion.
type UserHandler struct {
	pages       *Pages
	sessions    *session.Manager
	userService *service.UserService
	likeService *service.LikeService
	images      ImageUploader
}

// NewUserHandler wires the handler. images may be nil.
func NewUserHandler(pages *Pages, sessions *session.Manager, userService *service.UserService, likeService *service.LikeService, images ImageUploader) *UserHandler {
	return &UserHandler{
		pages:       pages,
		sessions:    sessions,
		userService: userService,
		likeService: likeService,
		images:      images,
	}
}

// Index lists users whose username contains ?q=.
func (h *UserHandler) Index(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	users, err := h.userService.Search(r.Context(), query, viewerID)
	if err != nil {
		h.pages.serverError(w, r, "Failed to search users", err)
		return
	}
	if users == nil {
		users = []model.UserSummary{}
	}

	h.pages.render(w, r, http.StatusOK, "users/index", map[string]any{
		"q":     query,
		"users": users,
	}, nil)
}

// Show renders the requested user's profile.
func (h *UserHandler) Show(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.pages.requireLogin(w, r)
	if !ok {
		return
	}

	userID, ok := idParam(r, "id")
	if !ok {
		httputil.WriteNotFound(w, "User not found")
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), userID, viewer.ID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		h.pages.serverError(w, r, "Failed to load profile", err)
		return
	}

	h.pages.render(w, r, http.StatusOK, "users/show", profile, nil)
}

func (h *UserHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user, ok := h.pages.requireLogin(w, r)
	if !ok {
		return
	}
	h.pages.render(w, r, http.StatusOK, "users/edit", map[string]any{"user": user}, nil)
}

// Edit saves the profile form after re-checking the password.
func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.pages.requireLogin(w, r)
	if !ok {
		return
	}
	data := map[string]any{"user": user}

	if err := parseUploadForm(w, r); err != nil {
		if errs := uploadErrors("image", err); errs != nil {
			h.pages.render(w, r, http.StatusBadRequest, "users/edit", data, errs)
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	var f form.UserEdit
	errs, err := form.Parse(r, &f)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}
	if errs != nil {
		h.pages.render(w, r, http.StatusBadRequest, "users/edit", data, errs)
		return
	}

	req := f.ToUpdateRequest()
	if errs, err := h.applyUploads(r, &req); err != nil {
		h.pages.serverError(w, r, "Failed to upload image", err)
		return
	} else if errs != nil {
		h.pages.render(w, r, http.StatusBadRequest, "users/edit", data, errs)
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidCredentials):
			h.pages.render(w, r, http.StatusUnauthorized, "users/edit", data, nil, session.Flash{Category: session.FlashDanger, Message: flashBadPassword})
		case errors.Is(err, model.ErrUsernameExists):
			h.pages.render(w, r, http.StatusConflict, "users/edit", data, nil, session.Flash{Category: session.FlashDanger, Message: flashUsername})
		case errors.Is(err, model.ErrEmailExists):
			h.pages.render(w, r, http.StatusConflict, "users/edit", data, nil, session.Flash{Category: session.FlashDanger, Message: flashEmail})
		default:
			h.pages.serverError(w, r, "Failed to update profile", err)
		}
		return
	}

	h.pages.redirect(w, r, userURL(updated.ID))
}

// applyUploads stores posted "image" and "header_image" files and points
// req at them. Rejected files come back as form errors.
func (h *UserHandler) applyUploads(r *http.Request, req *model.UpdateProfileRequest) (form.Errors, error) {
	if h.images == nil {
		return nil, nil
	}

	profile, err := uploadField(r, "image", h.images.UploadProfileImage)
	if err != nil {
		if errs := uploadErrors("image", err); errs != nil {
			return errs, nil
		}
		return nil, err
	}
	if profile != nil {
		req.ImageURL, req.ImageKey = profile.URL, &profile.Key
	}

	header, err := uploadField(r, "header_image", h.images.UploadHeaderImage)
	if err != nil {
		if errs := uploadErrors("header_image", err); errs != nil {
			return errs, nil
		}
		return nil, err
	}
	if header != nil {
		req.HeaderImageURL, req.HeaderImageKey = header.URL, &header.Key
	}
	return nil, nil
}

// Likes lists the messages the current user liked.
func (h *UserHandler) Likes(w http.ResponseWriter, r *http.Request) {
	user, ok := h.pages.requireLogin(w, r)
	if !ok {
		return
	}

	messages, err := h.likeService.LikedMessages(r.Context(), user.ID)
	if err != nil {
		h.pages.serverError(w, r, "Failed to load likes", err)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	liked := make([]int64, len(messages))
	for i, m := range messages {
		liked[i] = m.ID
	}

	h.pages.render(w, r, http.StatusOK, "users/likes", map[string]any{
		"user":      user,
		"messages":  messages,
		"liked_ids": liked,
	}, nil)
}

// Delete removes the current user's own account and logs them out.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	targetID, validID := idParam(r, "id")
	if !ok || !validID || targetID != user.ID {
		h.pages.flashRedirect(w, r, session.FlashDanger, flashUnauthorized, "/")
		return
	}

	if err := h.userService.Delete(r.Context(), user.ID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		h.pages.serverError(w, r, "Failed to delete user", err)
		return
	}

	if err := h.sessions.Logout(w, r); err != nil {
		logger.WithError(err).Warn("Failed to clear session after delete")
	}
	h.pages.redirect(w, r, "/signup")
}
