package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/adityakr/videotube-be/internal/apperrors"
	"github.com/adityakr/videotube-be/internal/auth"
	"github.com/adityakr/videotube-be/internal/models"
	"github.com/adityakr/videotube-be/internal/services"
)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	service       services.UserServiceProvider
	events        services.EventServiceProvider
	uploadTempDir string
	secureCookies bool
	refreshExpiry time.Duration
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, events services.EventServiceProvider, uploadTempDir string, secureCookies bool, refreshExpiry time.Duration) *UserHandler {
	return &UserHandler{
		service:       service,
		events:        events,
		uploadTempDir: uploadTempDir,
		secureCookies: secureCookies,
		refreshExpiry: refreshExpiry,
	}
}

// LoginPayload defines the structure for login requests. Either
// username or email identifies the account.
type LoginPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration (multipart form with avatar
// and optional cover image).
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, r, apperrors.Validation("invalid multipart form"))
		return
	}

	avatarPath, err := stageUploadedFile(r, "avatar", h.uploadTempDir)
	if err != nil {
		respondError(w, r, apperrors.Internal("failed to stage avatar upload", err))
		return
	}
	coverPath, err := stageUploadedFile(r, "coverImage", h.uploadTempDir)
	if err != nil {
		respondError(w, r, apperrors.Internal("failed to stage cover image upload", err))
		return
	}

	user, err := h.service.Register(r.Context(), services.RegisterInput{
		Fullname:       r.FormValue("fullname"),
		Email:          r.FormValue("email"),
		Username:       r.FormValue("username"),
		Password:       r.FormValue("password"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, "User registered successfully", user)
}

// Login handles user authentication, setting the session cookies.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, pair, err := h.service.Login(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	respond(w, http.StatusOK, "User logged in successfully", map[string]interface{}{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Refresh rotates the session from the refresh token cookie (or JSON
// body for non-browser clients).
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(auth.RefreshTokenCookie); err == nil {
		token = cookie.Value
	} else {
		var payload struct {
			RefreshToken string `json:"refreshToken"`
		}
		// Body is optional; a missing token fails in the service.
		_ = decodeJSONQuiet(r, &payload)
		token = payload.RefreshToken
	}

	pair, err := h.service.RefreshSession(r.Context(), token)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	respond(w, http.StatusOK, "Access token refreshed", pair)
}

// Logout clears the stored refresh token and both session cookies.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	if err := h.service.Logout(r.Context(), user.ID); err != nil {
		respondError(w, r, err)
		return
	}

	h.clearSessionCookies(w)
	respond(w, http.StatusOK, "User logged out", nil)
}

// ChangePassword handles changing the current user's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	var payload struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), user.ID, payload.OldPassword, payload.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Password changed successfully", nil)
}

// GetMe returns the middleware-resolved current user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}
	respond(w, http.StatusOK, "Current user fetched successfully", user)
}

// UpdateAccount handles updating the current user's fullname and email.
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	var payload struct {
		Fullname string `json:"fullname"`
		Email    string `json:"email"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	updated, err := h.service.UpdateAccountDetails(r.Context(), user.ID, payload.Fullname, payload.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Account details updated successfully", updated)
}

// UpdateAvatar handles replacing the current user's avatar image.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "Avatar updated successfully", h.service.UpdateAvatar)
}

// UpdateCoverImage handles replacing the current user's cover image.
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "Cover image updated successfully", h.service.UpdateCoverImage)
}

// Activity returns the current user's recent account events.
func (h *UserHandler) Activity(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}

	events, err := h.events.GetRecentEventsForUser(r.Context(), user.ID, limit)
	if err != nil {
		respondError(w, r, apperrors.Internal("failed to load activity", err))
		return
	}

	respond(w, http.StatusOK, "Activity fetched successfully", events)
}

func (h *UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, message string,
	update func(ctx context.Context, userID, localPath string) (models.User, error)) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized("unauthorized request"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, r, apperrors.Validation("invalid multipart form"))
		return
	}

	path, err := stageUploadedFile(r, field, h.uploadTempDir)
	if err != nil {
		respondError(w, r, apperrors.Internal("failed to stage upload", err))
		return
	}

	updated, err := update(r.Context(), user.ID, path)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, message, updated)
}

func (h *UserHandler) setSessionCookies(w http.ResponseWriter, pair services.TokenPair) {
	expires := time.Now().Add(h.refreshExpiry)
	for name, value := range map[string]string{
		auth.AccessTokenCookie:  pair.AccessToken,
		auth.RefreshTokenCookie: pair.RefreshToken,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Expires:  expires,
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteStrictMode,
			Path:     "/",
		})
	}
}

func (h *UserHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteStrictMode,
			Path:     "/",
		})
	}
}
