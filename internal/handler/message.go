package handler

import (
	"errors"
	"net/http"

	"warbler/internal/form"
	"warbler/internal/httputil"
	"warbler/internal/metrics"
	"warbler/internal/model"
	"warbler/internal/service"
	"warbler/internal/transport/http/middleware"
)

// MessageHandler serves message creation, viewing, deletion and like toggles.
type MessageHandler struct {
	pages          *Pages
	messageService *service.MessageService
	likeService    *service.LikeService
}

func NewMessageHandler(pages *Pages, messageService *service.MessageService, likeService *service.LikeService) *MessageHandler {
	return &MessageHandler{
		pages:          pages,
		messageService: messageService,
		likeService:    likeService,
	}
}

func (h *MessageHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.pages.requireUser(w, r); !ok {
		return
	}
	h.pages.render(w, r, http.StatusOK, "messages/new", nil, nil)
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.pages.requireUser(w, r)
	if !ok {
		return
	}

	var f form.Message
	errs, err := form.Parse(r, &f)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}
	if errs != nil {
		h.pages.render(w, r, http.StatusBadRequest, "messages/new", nil, errs)
		return
	}

	if _, err := h.messageService.Create(r.Context(), user.ID, f.Text); err != nil {
		switch {
		case errors.Is(err, model.ErrMessageEmpty), errors.Is(err, model.ErrMessageTooLong):
			h.pages.render(w, r, http.StatusBadRequest, "messages/new", nil, form.Errors{"text": err.Error()})
		default:
			h.pages.serverError(w, r, "Failed to create message", err)
		}
		return
	}

	metrics.MessagesPosted.Inc()
	h.pages.redirect(w, r, userURL(user.ID))
}

func (h *MessageHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := h.pages.requireLogin(w, r)
	if !ok {
		return
	}

	messageID, ok := idParam(r, "id")
	if !ok {
		httputil.WriteNotFound(w, "Message not found")
		return
	}

	resp, err := h.messageService.GetByID(r.Context(), messageID, user.ID)
	if err != nil {
		if errors.Is(err, model.ErrMessageNotFound) {
			httputil.WriteNotFound(w, "Message not found")
			return
		}
		h.pages.serverError(w, r, "Failed to load message", err)
		return
	}

	h.pages.render(w, r, http.StatusOK, "messages/show", resp, nil)
}

// Delete removes a message. Missing messages get 404; anyone but the owner,
// including anonymous visitors, gets 403.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	messageID, ok := idParam(r, "id")
	if !ok {
		httputil.WriteNotFound(w, "Message not found")
		return
	}

	// 0 never owns a message
	actorID, _ := middleware.GetUserIDFromContext(r.Context())

	if err := h.messageService.Delete(r.Context(), messageID, actorID); err != nil {
		switch {
		case errors.Is(err, model.ErrMessageNotFound):
			httputil.WriteNotFound(w, "Message not found")
		case errors.Is(err, model.ErrNotMessageOwner):
			httputil.WriteForbidden(w, "Access unauthorized")
		default:
			h.pages.serverError(w, r, "Failed to delete message", err)
		}
		return
	}

	h.pages.redirect(w, r, userURL(actorID))
}

// ToggleLike likes or unlikes a message and goes back home.
func (h *MessageHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user, ok := h.pages.requireLogin(w, r)
	if !ok {
		return
	}

	messageID, ok := idParam(r, "id")
	if !ok {
		httputil.WriteNotFound(w, "Message not found")
		return
	}

	result, err := h.likeService.Toggle(r.Context(), user.ID, messageID)
	if err != nil {
		if errors.Is(err, model.ErrMessageNotFound) {
			httputil.WriteNotFound(w, "Message not found")
			return
		}
		h.pages.serverError(w, r, "Failed to toggle like", err)
		return
	}

	state := "unliked"
	if result.Liked {
		state = "liked"
	}
	metrics.LikesToggled.WithLabelValues(state).Inc()
	h.pages.redirect(w, r, "/")
}
