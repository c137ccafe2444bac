package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adityakr/videotube-be/internal/apperrors"
	"github.com/adityakr/videotube-be/internal/auth"
	"github.com/adityakr/videotube-be/internal/services"
)

// SubscriptionHandler handles HTTP requests for subscription edges.
type SubscriptionHandler struct {
	service services.SubscriptionServiceProvider
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(service services.SubscriptionServiceProvider) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// Toggle subscribes the current user to the named channel, or
// unsubscribes if already subscribed.
func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	subscribed, err := h.service.ToggleSubscription(r.Context(), user.ID, chi.URLParam(r, "username"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	respond(w, http.StatusOK, message, map[string]bool{"subscribed": subscribed})
}

// Subscribers lists the users subscribed to the current user's channel.
func (h *SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	subscribers, err := h.service.ListSubscribers(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Subscribers fetched successfully", subscribers)
}

// Channels lists the channels the current user subscribes to.
func (h *SubscriptionHandler) Channels(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	channels, err := h.service.ListSubscribedChannels(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Subscribed channels fetched successfully", channels)
}
