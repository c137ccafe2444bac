package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/adityakr/videotube-be/internal/apperrors"
	"github.com/adityakr/videotube-be/internal/models"
)

// ChannelServiceProvider defines the interface for the derived channel views.
type ChannelServiceProvider interface {
	GetChannelProfile(ctx context.Context, viewerID, username string) (models.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID string) ([]models.Video, error)
}

// ChannelService builds read-only aggregated views over users,
// subscriptions, and videos.
type ChannelService struct {
	db *sql.DB
}

// NewChannelService creates a new ChannelService.
func NewChannelService(db *sql.DB) *ChannelService {
	return &ChannelService{db: db}
}

// GetChannelProfile returns the channel view for username: subscriber
// and subscribed-to counts plus whether viewerID is among the channel's
// subscribers. viewerID may be empty for anonymous viewers.
func (s *ChannelService) GetChannelProfile(ctx context.Context, viewerID, username string) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, apperrors.Validation("username is missing")
	}

	var p models.ChannelProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT u.username, u.fullname, u.email, u.avatar_url, u.cover_image_url,
			(SELECT COUNT(*) FROM subscriptions sub WHERE sub.channel_id = u.id),
			(SELECT COUNT(*) FROM subscriptions sub WHERE sub.subscriber_id = u.id),
			EXISTS (SELECT 1 FROM subscriptions sub WHERE sub.channel_id = u.id AND sub.subscriber_id = ?)
		FROM users u
		WHERE u.username = ?
	`, viewerID, username).Scan(
		&p.Username, &p.Fullname, &p.Email, &p.AvatarURL, &p.CoverImageURL,
		&p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ChannelProfile{}, apperrors.NotFound("channel does not exist")
		}
		return models.ChannelProfile{}, apperrors.Internal("failed to load channel profile", err)
	}
	return p, nil
}

// GetWatchHistory resolves the user's ordered watch history into full
// video records, each carrying its owner's minimal projection. The
// result preserves watch order and may be empty.
func (s *ChannelService) GetWatchHistory(ctx context.Context, userID string) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
			v.duration_seconds, v.views, v.created_at,
			o.username, o.fullname, o.avatar_url
		FROM watch_history wh
		JOIN videos v ON v.id = wh.video_id
		JOIN users o ON o.id = v.owner_id
		WHERE wh.user_id = ?
		ORDER BY wh.position ASC
	`, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to load watch history", err)
	}
	defer rows.Close()

	history := []models.Video{}
	for rows.Next() {
		var v models.Video
		var owner models.OwnerProfile
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
			&v.Duration, &v.Views, &v.CreatedAt,
			&owner.Username, &owner.Fullname, &owner.AvatarURL); err != nil {
			return nil, apperrors.Internal("failed to scan watch history", err)
		}
		v.Owner = &owner
		history = append(history, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to iterate watch history", err)
	}
	return history, nil
}
