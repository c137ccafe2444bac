package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adityakr/videotube-be/internal/apperrors"
	"github.com/adityakr/videotube-be/internal/auth"
	"github.com/adityakr/videotube-be/internal/services"
)

// ChannelHandler handles HTTP requests for the aggregated channel views.
type ChannelHandler struct {
	service services.ChannelServiceProvider
}

// NewChannelHandler creates a new ChannelHandler.
func NewChannelHandler(service services.ChannelServiceProvider) *ChannelHandler {
	return &ChannelHandler{service: service}
}

// GetProfile returns the channel profile for the username in the path,
// with the subscription flag computed for the current user.
func (h *ChannelHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewer, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	profile, err := h.service.GetChannelProfile(r.Context(), viewer.ID, chi.URLParam(r, "username"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Channel profile fetched successfully", profile)
}

// GetWatchHistory returns the current user's resolved watch history.
func (h *ChannelHandler) GetWatchHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	history, err := h.service.GetWatchHistory(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Watch history fetched successfully", history)
}
