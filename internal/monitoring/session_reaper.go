package monitoring

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/adityakr/videotube-be/internal/auth"
	"github.com/adityakr/videotube-be/internal/services"
)

// SessionReaper periodically clears refresh tokens that no longer
// verify (expired), so dead sessions do not linger on user records.
type SessionReaper struct {
	db       *sql.DB
	tokens   *auth.TokenManager
	eventSvc services.EventServiceProvider
	schedule cron.Schedule
	done     chan bool
}

// NewSessionReaper creates a reaper driven by the given cron expression.
func NewSessionReaper(db *sql.DB, tokens *auth.TokenManager, eventSvc services.EventServiceProvider, cronExpr string) (*SessionReaper, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid session reaper schedule %q: %w", cronExpr, err)
	}
	return &SessionReaper{
		db:       db,
		tokens:   tokens,
		eventSvc: eventSvc,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the reaping loop. Blocks until Stop is called.
func (sr *SessionReaper) Run() {
	log.Info().Msg("Starting session reaper...")
	for {
		next := sr.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-sr.done:
			timer.Stop()
			log.Info().Msg("Stopping session reaper.")
			return
		case <-timer.C:
			sr.reapOnce()
		}
	}
}

// Stop halts the reaping loop.
func (sr *SessionReaper) Stop() {
	sr.done <- true
}

// reapOnce scans users holding a refresh token and clears the rows
// whose token is expired. Tokens that fail verification outright are
// cleared too; they can never be presented successfully.
func (sr *SessionReaper) reapOnce() {
	ctx := context.Background()

	rows, err := sr.db.QueryContext(ctx,
		"SELECT id, refresh_token FROM users WHERE refresh_token IS NOT NULL")
	if err != nil {
		log.Error().Err(err).Msg("SessionReaper: Failed to query sessions")
		return
	}
	defer rows.Close()

	type staleSession struct{ userID string }
	var stale []staleSession
	for rows.Next() {
		var userID, token string
		if err := rows.Scan(&userID, &token); err != nil {
			log.Error().Err(err).Msg("SessionReaper: Failed to scan session row")
			return
		}
		if _, err := sr.tokens.Verify(token, auth.RefreshToken); err != nil {
			if !errors.Is(err, auth.ErrExpiredToken) {
				log.Warn().Str("user_id", userID).Msg("SessionReaper: Stored refresh token failed verification")
			}
			stale = append(stale, staleSession{userID: userID})
		}
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("SessionReaper: Failed to iterate sessions")
		return
	}

	for _, s := range stale {
		if _, err := sr.db.ExecContext(ctx,
			"UPDATE users SET refresh_token = NULL WHERE id = ?", s.userID); err != nil {
			log.Error().Err(err).Str("user_id", s.userID).Msg("SessionReaper: Failed to clear session")
			continue
		}
		userID := s.userID
		if err := sr.eventSvc.CreateEvent(ctx, "session.reaped", "info", "expired session cleared", &userID); err != nil {
			log.Warn().Err(err).Msg("SessionReaper: Failed to record event")
		}
	}

	if len(stale) > 0 {
		log.Info().Int("cleared", len(stale)).Msg("SessionReaper: Cleared expired sessions")
	}
}
