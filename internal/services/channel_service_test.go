package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakr/videotube-be/internal/apperrors"
)

func TestGetChannelProfileCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	channel := env.mustRegister(t, "channel")
	subA := env.mustRegister(t, "suba")
	subB := env.mustRegister(t, "subb")
	subC := env.mustRegister(t, "subc")
	followedX := env.mustRegister(t, "followedx")
	followedY := env.mustRegister(t, "followedy")

	// Three subscribers of the channel.
	for _, sub := range []string{subA.ID, subB.ID, subC.ID} {
		_, err := env.subscriptions.ToggleSubscription(ctx, sub, "channel")
		require.NoError(t, err)
	}
	// The channel itself subscribes to two others.
	for _, name := range []string{followedX.Username, followedY.Username} {
		_, err := env.subscriptions.ToggleSubscription(ctx, channel.ID, name)
		require.NoError(t, err)
	}

	profile, err := env.channels.GetChannelProfile(ctx, subA.ID, "channel")
	require.NoError(t, err)
	assert.Equal(t, 3, profile.SubscribersCount)
	assert.Equal(t, 2, profile.ChannelsSubscribedToCount)
	assert.True(t, profile.IsSubscribed, "viewer subA is among the subscribers")
	assert.Equal(t, "channel", profile.Username)

	// A viewer outside the edges is not subscribed.
	profile, err = env.channels.GetChannelProfile(ctx, followedX.ID, "channel")
	require.NoError(t, err)
	assert.False(t, profile.IsSubscribed)

	// Anonymous viewers get the flag false, not an error.
	profile, err = env.channels.GetChannelProfile(ctx, "", "channel")
	require.NoError(t, err)
	assert.False(t, profile.IsSubscribed)
}

func TestGetChannelProfileErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.channels.GetChannelProfile(ctx, "", "   ")
	require.ErrorIs(t, err, apperrors.Validation(""))

	_, err = env.channels.GetChannelProfile(ctx, "", "ghost")
	require.ErrorIs(t, err, apperrors.NotFound(""))
}

func TestGetWatchHistoryPreservesOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.mustRegister(t, "owner")
	viewer := env.mustRegister(t, "viewer")

	var videoIDs []string
	for _, title := range []string{"first", "second", "third"} {
		v, err := env.videos.PublishVideo(ctx, PublishVideoInput{
			OwnerID:   owner.ID,
			Title:     title,
			VideoPath: title + ".mp4",
		})
		require.NoError(t, err)
		videoIDs = append(videoIDs, v.ID)
	}

	// Watch third, then first, then second.
	for _, id := range []string{videoIDs[2], videoIDs[0], videoIDs[1]} {
		_, err := env.videos.GetVideo(ctx, viewer.ID, id)
		require.NoError(t, err)
	}

	history, err := env.channels.GetWatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, "third", history[0].Title)
	assert.Equal(t, "first", history[1].Title)
	assert.Equal(t, "second", history[2].Title)

	for _, v := range history {
		require.NotNil(t, v.Owner)
		assert.Equal(t, "owner", v.Owner.Username)
		assert.Equal(t, "User owner", v.Owner.Fullname)
		assert.NotEmpty(t, v.Owner.AvatarURL)
	}
}

func TestGetWatchHistoryEmpty(t *testing.T) {
	env := newTestEnv(t)

	viewer := env.mustRegister(t, "viewer")
	history, err := env.channels.GetWatchHistory(context.Background(), viewer.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
