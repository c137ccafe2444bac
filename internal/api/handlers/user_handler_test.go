package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakr/videotube-be/internal/auth"
	"github.com/adityakr/videotube-be/internal/config"
	"github.com/adityakr/videotube-be/internal/database"
	"github.com/adityakr/videotube-be/internal/services"
)

type stubUploader struct{ fail bool }

func (s *stubUploader) Upload(ctx context.Context, localPath string) (string, error) {
	if s.fail {
		return "", errors.New("upload failed")
	}
	return "https://cdn.example.com/" + filepath.Base(localPath), nil
}

func newTestHandler(t *testing.T) (*UserHandler, *sql.DB) {
	t.Helper()

	db, err := database.New("file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	tokens := auth.NewTokenManager(config.TokenConfig{
		AccessSecret:  "access",
		AccessExpiry:  time.Hour,
		RefreshSecret: "refresh",
		RefreshExpiry: 24 * time.Hour,
	})
	events := services.NewEventService(db)
	users := services.NewUserService(db, tokens, &stubUploader{}, events)

	return NewUserHandler(users, events, t.TempDir(), false, 24*time.Hour), db
}

func registerForm(t *testing.T, fields map[string]string, withAvatar bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withAvatar {
		part, err := mw.CreateFormFile("avatar", "avatar.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("not-really-a-png"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRegisterEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	body, contentType := registerForm(t, map[string]string{
		"fullname": "Chai Aurcode",
		"email":    "chai@example.com",
		"username": "Chai",
		"password": "secret",
	}, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"username":"chai"`)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "refreshToken")
}

func TestRegisterEndpointValidation(t *testing.T) {
	h, db := newTestHandler(t)

	// Blank username fails naming the field.
	body, contentType := registerForm(t, map[string]string{
		"fullname": "Chai Aurcode",
		"email":    "chai@example.com",
		"username": "",
		"password": "secret",
	}, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "username")

	// Missing avatar fails before any record is created.
	body, contentType = registerForm(t, map[string]string{
		"fullname": "Chai Aurcode",
		"email":    "chai@example.com",
		"username": "chai",
		"password": "secret",
	}, false)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Message, "Avatar")

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Zero(t, count)
}

func TestLoginEndpointSetsSessionCookies(t *testing.T) {
	h, _ := newTestHandler(t)

	body, contentType := registerForm(t, map[string]string{
		"fullname": "Chai Aurcode",
		"email":    "chai@example.com",
		"username": "chai",
		"password": "secret",
	}, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	loginBody := strings.NewReader(`{"username":"chai","password":"secret"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/login", loginBody)
	rec = httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	var names []string
	for _, c := range cookies {
		names = append(names, c.Name)
		assert.True(t, c.HttpOnly, "session cookies must be HTTP-only")
	}
	assert.Contains(t, names, auth.AccessTokenCookie)
	assert.Contains(t, names, auth.RefreshTokenCookie)
}

func TestRefreshEndpointRotatesCookie(t *testing.T) {
	h, _ := newTestHandler(t)

	body, contentType := registerForm(t, map[string]string{
		"fullname": "Chai Aurcode",
		"email":    "chai@example.com",
		"username": "chai",
		"password": "secret",
	}, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader(`{"username":"chai","password":"secret"}`))
	rec = httptest.NewRecorder()
	h.Login(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.RefreshTokenCookie {
			refreshCookie = c
		}
	}
	require.NotNil(t, refreshCookie)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(refreshCookie)
	rec = httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.RefreshTokenCookie {
			assert.NotEqual(t, refreshCookie.Value, c.Value, "refresh must rotate the token")
		}
	}

	// The rotated-out cookie is now rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(refreshCookie)
	rec = httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token is expired or used", decodeEnvelope(t, rec).Message)
}

func TestRefreshEndpointWithoutToken(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
