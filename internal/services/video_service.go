package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/adityakr/videotube-be/internal/apperrors"
	"github.com/adityakr/videotube-be/internal/media"
	"github.com/adityakr/videotube-be/internal/models"
)

// PublishVideoInput carries video metadata plus the staged local paths
// of the uploaded media. ThumbnailPath may be empty.
type PublishVideoInput struct {
	OwnerID       string
	Title         string
	Description   string
	Duration      int64
	VideoPath     string
	ThumbnailPath string
}

// VideoServiceProvider defines the interface for video services.
type VideoServiceProvider interface {
	PublishVideo(ctx context.Context, in PublishVideoInput) (models.Video, error)
	GetVideo(ctx context.Context, viewerID, videoID string) (models.Video, error)
	ListChannelVideos(ctx context.Context, channelUsername string) ([]models.Video, error)
}

// VideoService manages published videos and the watch records they feed.
type VideoService struct {
	db       *sql.DB
	uploader media.Uploader
}

// NewVideoService creates a new VideoService.
func NewVideoService(db *sql.DB, uploader media.Uploader) *VideoService {
	return &VideoService{db: db, uploader: uploader}
}

// PublishVideo uploads the media file (required) and thumbnail
// (optional) and creates the video record.
func (s *VideoService) PublishVideo(ctx context.Context, in PublishVideoInput) (models.Video, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Video{}, apperrors.Validation("title is required")
	}
	if in.VideoPath == "" {
		return models.Video{}, apperrors.Validation("video file is required")
	}

	videoURL, err := s.uploader.Upload(ctx, in.VideoPath)
	if err != nil || videoURL == "" {
		return models.Video{}, apperrors.Upload("Video upload failed")
	}

	var thumbnailURL string
	if in.ThumbnailPath != "" {
		url, err := s.uploader.Upload(ctx, in.ThumbnailPath)
		if err != nil || url == "" {
			return models.Video{}, apperrors.Upload("Thumbnail upload failed")
		}
		thumbnailURL = url
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, in.OwnerID, in.Title, in.Description, videoURL, thumbnailURL, in.Duration)
	if err != nil {
		return models.Video{}, apperrors.Internal("failed to create video", err)
	}

	return s.getByID(ctx, id)
}

// GetVideo returns a video with its owner projection. When viewerID is
// set, the view counter is incremented and the video is appended to the
// viewer's watch history.
func (s *VideoService) GetVideo(ctx context.Context, viewerID, videoID string) (models.Video, error) {
	video, err := s.getByID(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}

	if viewerID != "" {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE videos SET views = views + 1 WHERE id = ?", videoID); err != nil {
			return models.Video{}, apperrors.Internal("failed to count view", err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO watch_history (user_id, position, video_id)
			SELECT ?, COALESCE(MAX(position), 0) + 1, ? FROM watch_history WHERE user_id = ?
		`, viewerID, videoID, viewerID); err != nil {
			return models.Video{}, apperrors.Internal("failed to record watch", err)
		}
		video.Views++
	}

	return video, nil
}

// ListChannelVideos returns the channel's videos, newest first.
func (s *VideoService) ListChannelVideos(ctx context.Context, channelUsername string) ([]models.Video, error) {
	channelUsername = strings.ToLower(strings.TrimSpace(channelUsername))
	if channelUsername == "" {
		return nil, apperrors.Validation("username is missing")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
			v.duration_seconds, v.views, v.created_at,
			o.username, o.fullname, o.avatar_url
		FROM videos v
		JOIN users o ON o.id = v.owner_id
		WHERE o.username = ?
		ORDER BY v.created_at DESC
	`, channelUsername)
	if err != nil {
		return nil, apperrors.Internal("failed to list videos", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		var v models.Video
		var owner models.OwnerProfile
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
			&v.Duration, &v.Views, &v.CreatedAt,
			&owner.Username, &owner.Fullname, &owner.AvatarURL); err != nil {
			return nil, apperrors.Internal("failed to scan video", err)
		}
		v.Owner = &owner
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("failed to iterate videos", err)
	}
	return videos, nil
}

func (s *VideoService) getByID(ctx context.Context, id string) (models.Video, error) {
	var v models.Video
	var owner models.OwnerProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
			v.duration_seconds, v.views, v.created_at,
			o.username, o.fullname, o.avatar_url
		FROM videos v
		JOIN users o ON o.id = v.owner_id
		WHERE v.id = ?
	`, id).Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
		&v.Duration, &v.Views, &v.CreatedAt,
		&owner.Username, &owner.Fullname, &owner.AvatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Video{}, apperrors.NotFound("video does not exist")
		}
		return models.Video{}, apperrors.Internal("failed to load video", err)
	}
	v.Owner = &owner
	return v, nil
}
