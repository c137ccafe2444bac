package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adityakr/videotube-be/internal/auth"
	"github.com/adityakr/videotube-be/internal/config"
	"github.com/adityakr/videotube-be/internal/database"
	"github.com/adityakr/videotube-be/internal/models"
)

// fakeUploader is an in-memory media.Uploader. Uploads map the local
// path to a deterministic URL; failures are opt-in per path.
type fakeUploader struct {
	mu       sync.Mutex
	uploads  []string
	failFor  map[string]bool
	uploadsN atomic.Int64
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{failFor: map[string]bool{}}
}

func (f *fakeUploader) Upload(ctx context.Context, localPath string) (string, error) {
	f.uploadsN.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[localPath] {
		return "", errors.New("upload failed")
	}
	f.uploads = append(f.uploads, localPath)
	return "https://cdn.example.com/" + filepath.Base(localPath), nil
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New("file::memory:")
	require.NoError(t, err)
	// A pooled second connection would see its own empty in-memory DB.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(config.TokenConfig{
		AccessSecret:  "test-access-secret",
		AccessExpiry:  time.Hour,
		RefreshSecret: "test-refresh-secret",
		RefreshExpiry: 24 * time.Hour,
	})
}

type testEnv struct {
	db            *sql.DB
	uploader      *fakeUploader
	tokens        *auth.TokenManager
	users         *UserService
	channels      *ChannelService
	subscriptions *SubscriptionService
	videos        *VideoService
	events        *EventService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	uploader := newFakeUploader()
	tokens := newTestTokenManager()
	events := NewEventService(db)
	return &testEnv{
		db:            db,
		uploader:      uploader,
		tokens:        tokens,
		users:         NewUserService(db, tokens, uploader, events),
		channels:      NewChannelService(db),
		subscriptions: NewSubscriptionService(db),
		videos:        NewVideoService(db, uploader),
		events:        events,
	}
}

var userSeq atomic.Int64

// mustRegister creates a user through the real registration path.
func (e *testEnv) mustRegister(t *testing.T, username string) models.User {
	t.Helper()
	n := userSeq.Add(1)
	user, err := e.users.Register(context.Background(), RegisterInput{
		Fullname:   "User " + username,
		Email:      fmt.Sprintf("%s-%d@example.com", username, n),
		Username:   username,
		Password:   "correct-horse",
		AvatarPath: fmt.Sprintf("avatar-%s.png", username),
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) storedRefreshToken(t *testing.T, userID string) sql.NullString {
	t.Helper()
	var token sql.NullString
	err := e.db.QueryRow("SELECT refresh_token FROM users WHERE id = ?", userID).Scan(&token)
	require.NoError(t, err)
	return token
}
