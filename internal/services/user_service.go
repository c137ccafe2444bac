package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/adityakr/videotube-be/internal/apperrors"
	"github.com/adityakr/videotube-be/internal/auth"
	"github.com/adityakr/videotube-be/internal/media"
	"github.com/adityakr/videotube-be/internal/models"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterInput carries the registration fields plus the staged local
// paths of the uploaded images. CoverImagePath may be empty.
type RegisterInput struct {
	Fullname       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, in RegisterInput) (models.User, error)
	Login(ctx context.Context, username, email, password string) (models.User, TokenPair, error)
	RefreshSession(ctx context.Context, refreshToken string) (TokenPair, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	UpdateAccountDetails(ctx context.Context, userID, fullname, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, localPath string) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID, localPath string) (models.User, error)
}

// UserService provides registration, the session lifecycle, and profile
// mutations over the users table.
type UserService struct {
	db       *sql.DB
	tokens   *auth.TokenManager
	uploader media.Uploader
	events   EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, tokens *auth.TokenManager, uploader media.Uploader, events EventServiceProvider) *UserService {
	return &UserService{db: db, tokens: tokens, uploader: uploader, events: events}
}

const userColumns = "id, username, email, fullname, password_hash, avatar_url, cover_image_url, refresh_token, created_at"

func scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	var refreshToken sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Fullname, &u.PasswordHash,
		&u.AvatarURL, &u.CoverImageURL, &refreshToken, &u.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	u.RefreshToken = refreshToken.String
	return u, nil
}

// GetUserByID retrieves a single user by their ID, sanitized.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperrors.NotFound("user not found")
		}
		return models.User{}, apperrors.Internal("failed to load user", err)
	}
	user.Sanitize()
	return user, nil
}

// Register validates the input, uploads the avatar (required) and cover
// image (optional) concurrently, and creates the user record. The
// returned user never carries the password hash or refresh token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	for _, field := range []struct{ name, value string }{
		{"fullname", in.Fullname},
		{"email", in.Email},
		{"username", in.Username},
		{"password", in.Password},
	} {
		if strings.TrimSpace(field.value) == "" {
			return models.User{}, apperrors.Validation(field.name + " is required")
		}
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.TrimSpace(in.Email)

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username = ? OR email = ?", username, email).Scan(&exists)
	if err != nil {
		return models.User{}, apperrors.Internal("failed to check existing users", err)
	}
	if exists > 0 {
		return models.User{}, apperrors.Conflict("User with this email or username already exists")
	}

	if in.AvatarPath == "" {
		return models.User{}, apperrors.Validation("Avatar file is required")
	}

	// Avatar and cover image uploads are independent; run them together.
	var (
		wg                  sync.WaitGroup
		avatarURL, coverURL string
		avatarErr           error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		avatarURL, avatarErr = s.uploader.Upload(ctx, in.AvatarPath)
	}()
	if in.CoverImagePath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			url, err := s.uploader.Upload(ctx, in.CoverImagePath)
			if err != nil {
				// Cover image is optional; a failed upload just leaves it blank.
				log.Warn().Err(err).Msg("Cover image upload failed")
				return
			}
			coverURL = url
		}()
	}
	wg.Wait()

	if avatarErr != nil || avatarURL == "" {
		return models.User{}, apperrors.Upload("Avatar upload failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, apperrors.Internal("failed to hash password", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, fullname, password_hash, avatar_url, cover_image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, username, email, in.Fullname, string(hash), avatarURL, coverURL)
	if err != nil {
		return models.User{}, apperrors.Internal("failed to create user", err)
	}

	created, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, apperrors.Internal("something went wrong while registering the user", err)
	}

	s.recordEvent(ctx, "user.register", "info", fmt.Sprintf("user %s registered", username), &id)
	return created, nil
}

// Login verifies credentials by username or email and mints a token
// pair. The refresh token is persisted, replacing any previous one so
// exactly one refresh token is valid per user.
func (s *UserService) Login(ctx context.Context, username, email, password string) (models.User, TokenPair, error) {
	if strings.TrimSpace(username) == "" && strings.TrimSpace(email) == "" {
		return models.User{}, TokenPair{}, apperrors.Validation("username or email is required")
	}

	user, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? OR email = ?",
		strings.ToLower(strings.TrimSpace(username)), strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, TokenPair{}, apperrors.NotFound("User does not exist")
		}
		return models.User{}, TokenPair{}, apperrors.Internal("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, TokenPair{}, apperrors.InvalidCredential("Invalid user credentials")
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}

	s.recordEvent(ctx, "user.login", "info", fmt.Sprintf("user %s logged in", user.Username), &user.ID)
	user.Sanitize()
	return user, pair, nil
}

// RefreshSession rotates a refresh token. The presented token must both
// verify and match the value stored on the user record byte for byte;
// any previously issued token is rejected as reused.
func (s *UserService) RefreshSession(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, apperrors.Unauthorized("unauthorized request")
	}

	claims, err := s.tokens.Verify(refreshToken, auth.RefreshToken)
	if err != nil {
		// Expired and malformed tokens are indistinguishable to the caller.
		return TokenPair{}, apperrors.InvalidToken("Invalid refresh token")
	}

	user, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", claims.UserID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, apperrors.InvalidToken("Invalid refresh token")
		}
		return TokenPair{}, apperrors.Internal("failed to look up user", err)
	}

	if subtle.ConstantTimeCompare([]byte(refreshToken), []byte(user.RefreshToken)) != 1 {
		return TokenPair{}, apperrors.TokenReused("Refresh token is expired or used")
	}

	return s.issueSession(ctx, user)
}

// Logout clears the stored refresh token. Idempotent.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE users SET refresh_token = NULL WHERE id = ?", userID); err != nil {
		return apperrors.Internal("failed to clear session", err)
	}
	s.recordEvent(ctx, "user.logout", "info", "user logged out", &userID)
	return nil
}

// ChangePassword verifies the old password, then hashes and persists
// the new one. The stored refresh token is left untouched, so existing
// sessions stay valid.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperrors.Validation("old and new passwords are required")
	}

	var hash string
	err := s.db.QueryRowContext(ctx,
		"SELECT password_hash FROM users WHERE id = ?", userID).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("user not found")
		}
		return apperrors.Internal("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)); err != nil {
		return apperrors.InvalidCredential("Invalid old password")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE id = ?", string(newHash), userID); err != nil {
		return apperrors.Internal("failed to update password", err)
	}

	s.recordEvent(ctx, "user.password_change", "info", "password changed", &userID)
	return nil
}

// UpdateAccountDetails overwrites the user's fullname and email.
func (s *UserService) UpdateAccountDetails(ctx context.Context, userID, fullname, email string) (models.User, error) {
	if strings.TrimSpace(fullname) == "" || strings.TrimSpace(email) == "" {
		return models.User{}, apperrors.Validation("fullname and email are required")
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE users SET fullname = ?, email = ? WHERE id = ?",
		fullname, strings.TrimSpace(email), userID); err != nil {
		return models.User{}, apperrors.Internal("failed to update account details", err)
	}
	return s.GetUserByID(ctx, userID)
}

// UpdateAvatar uploads a new avatar image and persists its URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, localPath string) (models.User, error) {
	return s.updateImage(ctx, userID, localPath, "avatar_url", "Avatar")
}

// UpdateCoverImage uploads a new cover image and persists its URL.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID, localPath string) (models.User, error) {
	return s.updateImage(ctx, userID, localPath, "cover_image_url", "Cover image")
}

func (s *UserService) updateImage(ctx context.Context, userID, localPath, column, label string) (models.User, error) {
	if localPath == "" {
		return models.User{}, apperrors.Validation(label + " file is missing")
	}

	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil || url == "" {
		return models.User{}, apperrors.Upload(label + " upload failed")
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE users SET "+column+" = ? WHERE id = ?", url, userID); err != nil {
		return models.User{}, apperrors.Internal("failed to update "+column, err)
	}
	return s.GetUserByID(ctx, userID)
}

// issueSession mints a fresh token pair and stores the refresh token on
// the user record. Only the refresh_token column is written.
func (s *UserService) issueSession(ctx context.Context, user models.User) (TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, apperrors.Internal("failed to issue access token", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return TokenPair{}, apperrors.Internal("failed to issue refresh token", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE users SET refresh_token = ? WHERE id = ?", refresh, user.ID); err != nil {
		return TokenPair{}, apperrors.Internal("failed to store refresh token", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// recordEvent logs account activity best-effort; failures never abort
// the operation that triggered them.
func (s *UserService) recordEvent(ctx context.Context, eventType, level, message string, userID *string) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, eventType, level, message, userID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}
