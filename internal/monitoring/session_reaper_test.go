package monitoring

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakr/videotube-be/internal/auth"
	"github.com/adityakr/videotube-be/internal/config"
	"github.com/adityakr/videotube-be/internal/database"
	"github.com/adityakr/videotube-be/internal/models"
	"github.com/adityakr/videotube-be/internal/services"
)

func newReaperTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New("file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func insertUserWithToken(t *testing.T, db *sql.DB, id, username, token string) {
	t.Helper()
	var refresh interface{}
	if token != "" {
		refresh = token
	}
	_, err := db.Exec(`
		INSERT INTO users (id, username, email, fullname, password_hash, avatar_url, refresh_token)
		VALUES (?, ?, ?, ?, 'x', 'x', ?)
	`, id, username, username+"@example.com", username, refresh)
	require.NoError(t, err)
}

func TestReapOnceClearsOnlyDeadSessions(t *testing.T) {
	db := newReaperTestDB(t)

	live := auth.NewTokenManager(config.TokenConfig{
		AccessSecret: "a", AccessExpiry: time.Hour,
		RefreshSecret: "r", RefreshExpiry: time.Hour,
	})
	expired := auth.NewTokenManager(config.TokenConfig{
		AccessSecret: "a", AccessExpiry: time.Hour,
		RefreshSecret: "r", RefreshExpiry: -time.Hour,
	})

	liveToken, err := live.IssueRefreshToken(models.User{ID: "u-live"})
	require.NoError(t, err)
	expiredToken, err := expired.IssueRefreshToken(models.User{ID: "u-expired"})
	require.NoError(t, err)

	insertUserWithToken(t, db, "u-live", "alive", liveToken)
	insertUserWithToken(t, db, "u-expired", "stale", expiredToken)
	insertUserWithToken(t, db, "u-garbage", "garbage", "not-a-token")
	insertUserWithToken(t, db, "u-anon", "anon", "")

	reaper, err := NewSessionReaper(db, live, services.NewEventService(db), "*/30 * * * *")
	require.NoError(t, err)

	reaper.reapOnce()

	tokenFor := func(id string) sql.NullString {
		var tok sql.NullString
		require.NoError(t, db.QueryRow("SELECT refresh_token FROM users WHERE id = ?", id).Scan(&tok))
		return tok
	}

	assert.True(t, tokenFor("u-live").Valid, "live session survives")
	assert.False(t, tokenFor("u-expired").Valid, "expired session is cleared")
	assert.False(t, tokenFor("u-garbage").Valid, "unverifiable token is cleared")
	assert.False(t, tokenFor("u-anon").Valid)

	var events int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM events WHERE type = 'session.reaped'").Scan(&events))
	assert.Equal(t, 2, events)
}

func TestNewSessionReaperRejectsBadSchedule(t *testing.T) {
	db := newReaperTestDB(t)
	tm := auth.NewTokenManager(config.TokenConfig{
		AccessSecret: "a", AccessExpiry: time.Hour,
		RefreshSecret: "r", RefreshExpiry: time.Hour,
	})

	_, err := NewSessionReaper(db, tm, services.NewEventService(db), "not a cron expr")
	require.Error(t, err)
}
