package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adityakr/videotube-be/internal/config"
	"github.com/adityakr/videotube-be/internal/models"
)

// TokenKind distinguishes the two tokens of a session pair.
type TokenKind string

const (
	// AccessToken is the short-lived, stateless token presented on every
	// authenticated request.
	AccessToken TokenKind = "access"
	// RefreshToken is the long-lived token persisted on the user record
	// so it can be revoked and rotated.
	RefreshToken TokenKind = "refresh"
)

var (
	// ErrInvalidToken covers bad signatures, malformed tokens, and kind
	// mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates the token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")
)

// Claims defines the JWT claims structure for both token kinds.
type Claims struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username,omitempty"`
	Kind     TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the access/refresh token pair. The
// two kinds are signed with separate secrets and expiries so access
// tokens stay verifiable without a database round-trip while refresh
// tokens remain revocable.
type TokenManager struct {
	accessSecret  []byte
	accessExpiry  time.Duration
	refreshSecret []byte
	refreshExpiry time.Duration
}

// NewTokenManager builds a TokenManager from injected configuration.
func NewTokenManager(cfg config.TokenConfig) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		accessExpiry:  cfg.AccessExpiry,
		refreshSecret: []byte(cfg.RefreshSecret),
		refreshExpiry: cfg.RefreshExpiry,
	}
}

// IssueAccessToken creates a new short-lived access token for a user.
func (tm *TokenManager) IssueAccessToken(user models.User) (string, error) {
	return tm.sign(AccessToken, user.ID, user.Username, tm.accessSecret, tm.accessExpiry)
}

// IssueRefreshToken creates a new long-lived refresh token. The caller
// persists the returned value on the user record.
func (tm *TokenManager) IssueRefreshToken(user models.User) (string, error) {
	return tm.sign(RefreshToken, user.ID, "", tm.refreshSecret, tm.refreshExpiry)
}

// Verify parses tokenStr, checks its signature and expiry against the
// given kind's secret, and returns the claims.
func (tm *TokenManager) Verify(tokenStr string, kind TokenKind) (*Claims, error) {
	secret := tm.accessSecret
	if kind == RefreshToken {
		secret = tm.refreshSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (tm *TokenManager) sign(kind TokenKind, userID, username string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			// Unique ID so two tokens minted in the same second never
			// collide; rotation depends on the new value differing.
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
