package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/adityakr/videotube-be/internal/apperrors"
	"github.com/adityakr/videotube-be/internal/models"
)

// SubscriptionServiceProvider defines the interface for subscription edges.
type SubscriptionServiceProvider interface {
	ToggleSubscription(ctx context.Context, subscriberID, channelUsername string) (bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.OwnerProfile, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.OwnerProfile, error)
}

// SubscriptionService manages subscriber/channel edges between users.
type SubscriptionService struct {
	db *sql.DB
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(db *sql.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// ToggleSubscription subscribes subscriberID to the named channel, or
// unsubscribes if the edge already exists. Returns the resulting state
// (true = subscribed).
func (s *SubscriptionService) ToggleSubscription(ctx context.Context, subscriberID, channelUsername string) (bool, error) {
	channelUsername = strings.ToLower(strings.TrimSpace(channelUsername))
	if channelUsername == "" {
		return false, apperrors.Validation("username is missing")
	}

	var channelID string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE username = ?", channelUsername).Scan(&channelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperrors.NotFound("channel does not exist")
		}
		return false, apperrors.Internal("failed to look up channel", err)
	}

	if channelID == subscriberID {
		return false, apperrors.Validation("cannot subscribe to your own channel")
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE subscriber_id = ? AND channel_id = ?", subscriberID, channelID)
	if err != nil {
		return false, apperrors.Internal("failed to toggle subscription", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO subscriptions (id, subscriber_id, channel_id) VALUES (?, ?, ?)",
		uuid.New().String(), subscriberID, channelID); err != nil {
		return false, apperrors.Internal("failed to create subscription", err)
	}
	return true, nil
}

// ListSubscribers returns the minimal profiles of the users subscribed
// to the given channel.
func (s *SubscriptionService) ListSubscribers(ctx context.Context, channelID string) ([]models.OwnerProfile, error) {
	return s.listEdgeProfiles(ctx, `
		SELECT u.username, u.fullname, u.avatar_url
		FROM subscriptions sub
		JOIN users u ON u.id = sub.subscriber_id
		WHERE sub.channel_id = ?
		ORDER BY sub.created_at ASC
	`, channelID)
}

// ListSubscribedChannels returns the minimal profiles of the channels
// the given user subscribes to.
func (s *SubscriptionService) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.OwnerProfile, error) {
	return s.listEdgeProfiles(ctx, `
		SELECT u.username, u.fullname, u.avatar_url
		FROM subscriptions sub
		JOIN users u ON u.id = sub.channel_id
		WHERE sub.subscriber_id = ?
		ORDER BY sub.created_at ASC
	`, subscriberID)
}

func (s *SubscriptionService) listEdgeProfiles(ctx context.Context, query, id string) ([]models.OwnerProfile, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, apperrors.Internal("failed to list subscriptions", err)
	}
	defer rows.Close()

	profiles := []models.OwnerProfile{}
	for rows.Next() {
		var p models.OwnerProfile
		if err := rows.Scan(&p.Username, &p.Fullname, &p.AvatarURL); err != nil {
			return nil, apperrors.Internal("failed to scan subscription", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to iterate subscriptions", err)
	}
	return profiles, nil
}
