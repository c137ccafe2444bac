package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakr/videotube-be/internal/apperrors"
)

func TestPublishVideo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.mustRegister(t, "owner")

	_, err := env.videos.PublishVideo(ctx, PublishVideoInput{OwnerID: owner.ID, VideoPath: "v.mp4"})
	require.ErrorIs(t, err, apperrors.Validation(""), "title is required")

	_, err = env.videos.PublishVideo(ctx, PublishVideoInput{OwnerID: owner.ID, Title: "No file"})
	require.ErrorIs(t, err, apperrors.Validation(""), "video file is required")

	env.uploader.failFor["broken.mp4"] = true
	_, err = env.videos.PublishVideo(ctx, PublishVideoInput{
		OwnerID: owner.ID, Title: "Broken", VideoPath: "broken.mp4",
	})
	require.ErrorIs(t, err, apperrors.Upload(""))

	video, err := env.videos.PublishVideo(ctx, PublishVideoInput{
		OwnerID:       owner.ID,
		Title:         "My first video",
		Description:   "hello",
		Duration:      90,
		VideoPath:     "v.mp4",
		ThumbnailPath: "t.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/v.mp4", video.VideoURL)
	assert.Equal(t, "https://cdn.example.com/t.jpg", video.ThumbnailURL)
	assert.Equal(t, int64(90), video.Duration)
	require.NotNil(t, video.Owner)
	assert.Equal(t, "owner", video.Owner.Username)
}

func TestGetVideoRecordsWatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.mustRegister(t, "owner")
	viewer := env.mustRegister(t, "viewer")

	published, err := env.videos.PublishVideo(ctx, PublishVideoInput{
		OwnerID: owner.ID, Title: "Watched", VideoPath: "v.mp4",
	})
	require.NoError(t, err)

	_, err = env.videos.GetVideo(ctx, viewer.ID, "missing")
	require.ErrorIs(t, err, apperrors.NotFound(""))

	got, err := env.videos.GetVideo(ctx, viewer.ID, published.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	got, err = env.videos.GetVideo(ctx, viewer.ID, published.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	history, err := env.channels.GetWatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2, "every watch appends to the history")
}

func TestListChannelVideos(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.mustRegister(t, "owner")
	env.mustRegister(t, "other")

	_, err := env.videos.ListChannelVideos(ctx, " ")
	require.ErrorIs(t, err, apperrors.Validation(""))

	for _, title := range []string{"one", "two"} {
		_, err := env.videos.PublishVideo(ctx, PublishVideoInput{
			OwnerID: owner.ID, Title: title, VideoPath: title + ".mp4",
		})
		require.NoError(t, err)
	}

	videos, err := env.videos.ListChannelVideos(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, videos, 2)

	videos, err = env.videos.ListChannelVideos(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, videos)
}
