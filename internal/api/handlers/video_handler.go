package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/adityakr/videotube-be/internal/apperrors"
	"github.com/adityakr/videotube-be/internal/auth"
	"github.com/adityakr/videotube-be/internal/services"
)

// VideoHandler handles HTTP requests for videos.
type VideoHandler struct {
	service       services.VideoServiceProvider
	uploadTempDir string
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(service services.VideoServiceProvider, uploadTempDir string) *VideoHandler {
	return &VideoHandler{service: service, uploadTempDir: uploadTempDir}
}

// Publish handles publishing a new video (multipart form with the
// media file and an optional thumbnail).
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, r, apperrors.Validation("invalid multipart form"))
		return
	}

	videoPath, err := stageUploadedFile(r, "videoFile", h.uploadTempDir)
	if err != nil {
		respondError(w, r, apperrors.Internal("failed to stage video upload", err))
		return
	}
	thumbPath, err := stageUploadedFile(r, "thumbnail", h.uploadTempDir)
	if err != nil {
		respondError(w, r, apperrors.Internal("failed to stage thumbnail upload", err))
		return
	}

	duration, _ := strconv.ParseInt(r.FormValue("duration"), 10, 64)

	video, err := h.service.PublishVideo(r.Context(), services.PublishVideoInput{
		OwnerID:       user.ID,
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		Duration:      duration,
		VideoPath:     videoPath,
		ThumbnailPath: thumbPath,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, "Video published successfully", video)
}

// Get returns a video and records the watch for the current user.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	video, err := h.service.GetVideo(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Video fetched successfully", video)
}

// ListForChannel returns the named channel's published videos.
func (h *VideoHandler) ListForChannel(w http.ResponseWriter, r *http.Request) {
	videos, err := h.service.ListChannelVideos(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Channel videos fetched successfully", videos)
}
