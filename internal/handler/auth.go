package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"warbler/internal/form"
	"warbler/internal/httputil"
	"warbler/internal/metrics"
	"warbler/internal/model"
	"warbler/internal/service"
	"warbler/internal/session"
)

// AuthHandler serves signup, login, logout and the API token endpoint.
type AuthHandler struct {
	pages       *Pages
	sessions    *session.Manager
	userService *service.UserService
	authService *service.AuthService
	images      ImageUploader
}

// NewAuthHandler wires dependencies for authentication endpoints. images may be nil.
func NewAuthHandler(pages *Pages, sessions *session.Manager, userService *service.UserService, authService *service.AuthService, images ImageUploader) *AuthHandler {
	return &AuthHandler{
		pages:       pages,
		sessions:    sessions,
		userService: userService,
		authService: authService,
		images:      images,
	}
}

func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "users/signup", nil, nil)
}

// Signup creates the account, logs it in and redirects home.
// Multipart bodies may carry an "image" file when uploads are configured.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(w, r); err != nil {
		if errs := uploadErrors("image", err); errs != nil {
			h.pages.render(w, r, http.StatusBadRequest, "users/signup", nil, errs)
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	var f form.Signup
	errs, err := form.Parse(r, &f)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}
	if errs != nil {
		h.pages.render(w, r, http.StatusBadRequest, "users/signup", nil, errs)
		return
	}

	req := f.ToSignupRequest()
	if h.images != nil {
		result, err := uploadField(r, "image", h.images.UploadProfileImage)
		if err != nil {
			if errs := uploadErrors("image", err); errs != nil {
				h.pages.render(w, r, http.StatusBadRequest, "users/signup", nil, errs)
				return
			}
			h.pages.serverError(w, r, "Failed to upload image", err)
			return
		}
		if result != nil {
			req.ImageURL, req.ImageKey = result.URL, &result.Key
		}
	}

	user, err := h.userService.Signup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUsernameExists):
			h.pages.render(w, r, http.StatusConflict, "users/signup", nil, nil, session.Flash{Category: session.FlashDanger, Message: flashUsername})
		case errors.Is(err, model.ErrEmailExists):
			h.pages.render(w, r, http.StatusConflict, "users/signup", nil, nil, session.Flash{Category: session.FlashDanger, Message: flashEmail})
		default:
			h.pages.serverError(w, r, "Failed to create user", err)
		}
		return
	}

	if err := h.sessions.Login(w, r, user.ID); err != nil {
		h.pages.serverError(w, r, "Failed to start session", err)
		return
	}
	metrics.SignupSuccess.Inc()
	h.pages.redirect(w, r, "/")
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "users/login", nil, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var f form.Login
	errs, err := form.Parse(r, &f)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}
	if errs != nil {
		metrics.LoginFailure.WithLabelValues("invalid_form").Inc()
		h.pages.render(w, r, http.StatusBadRequest, "users/login", nil, errs)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), f.Username, f.Password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			metrics.LoginFailure.WithLabelValues("invalid_credentials").Inc()
			h.pages.flashRedirect(w, r, session.FlashDanger, flashBadLogin, "/login")
			return
		}
		h.pages.serverError(w, r, "Failed to log in", err)
		return
	}

	if err := h.sessions.Login(w, r, user.ID); err != nil {
		h.pages.serverError(w, r, "Failed to start session", err)
		return
	}
	metrics.LoginSuccess.Inc()
	h.pages.flashRedirect(w, r, session.FlashSuccess, fmt.Sprintf("Hello, %s!", user.Username), "/")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.pages.serverError(w, r, "Failed to end session", err)
		return
	}
	h.pages.flashRedirect(w, r, session.FlashSuccess, flashLoggedOut, "/login")
}

// Token exchanges a JSON {username, password} body for a bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid JSON body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Username and password are required")
		return
	}

	token, err := h.authService.IssueToken(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			metrics.LoginFailure.WithLabelValues("invalid_credentials").Inc()
			httputil.WriteUnauthorized(w, "Invalid credentials")
			return
		}
		h.pages.serverError(w, r, "Failed to issue token", err)
		return
	}

	metrics.LoginSuccess.Inc()
	httputil.WriteJSON(w, http.StatusOK, token)
}
