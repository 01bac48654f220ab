package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/channel-feed/internal/event"
	"github.com/d60-Lab/channel-feed/internal/model"
)

func TestFollow_Lifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	u := h.seed.User("u")
	ch := h.seed.Channel("c")

	require.NoError(t, h.followSvc.Follow(ctx, u.ID, ch.ID))
	require.ErrorIs(t, h.followSvc.Follow(ctx, u.ID, ch.ID), ErrAlreadyFollowing)

	p1, err := h.postSvc.Create(ctx, author.ID, CreatePostInput{ChannelID: ch.ID, Message: "one"})
	require.NoError(t, err)
	h.runFanout(t)

	require.NoError(t, h.followSvc.SetFollow(ctx, u.ID, ch.ID, false))
	require.ErrorIs(t, h.followSvc.Unfollow(ctx, u.ID, ch.ID), ErrAlreadyUnfollowed)

	var entry model.FeedEntry
	require.NoError(t, h.db.Where("user_id = ? AND post_id = ?", u.ID, p1.ID).First(&entry).Error)
	assert.Equal(t, model.FeedEntryHidden, entry.Status)

	page, err := h.feedSvc.GetFeed(ctx, u.ID, "org", time.Now(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	// 取关期间的新帖不会补进 feed
	p2, err := h.postSvc.Create(ctx, author.ID, CreatePostInput{ChannelID: ch.ID, Message: "two"})
	require.NoError(t, err)
	h.runFanout(t)

	require.NoError(t, h.followSvc.SetFollow(ctx, u.ID, ch.ID, true))
	f, err := h.follows.Get(ctx, u.ID, ch.ID)
	require.NoError(t, err)
	assert.True(t, f.Active())
	require.NotNil(t, f.LastPostCreatedAt)
	assert.WithinDuration(t, p2.CreatedAt, *f.LastPostCreatedAt, time.Millisecond)

	page, err = h.feedSvc.GetFeed(ctx, u.ID, "org", time.Now(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{p1.ID}, postIDs(page.Items))

	assert.Equal(t, []event.Name{
		event.ChannelFollowed, event.PostAdded, event.ChannelUnfollowed, event.PostAdded, event.ChannelFollowed,
	}, h.events.names())

	h.drain(t)
	got, err := h.channels.Get(ctx, ch.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.TotalFollowers)
}

func TestFollow_Preconditions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.seed.User("u")
	ch := h.seed.Channel("c")

	assert.ErrorIs(t, h.followSvc.Follow(ctx, "ghost", ch.ID), ErrUserNotFound)
	assert.ErrorIs(t, h.followSvc.Follow(ctx, u.ID, "ghost"), ErrChannelNotFound)
	assert.ErrorIs(t, h.followSvc.Unfollow(ctx, u.ID, ch.ID), ErrAlreadyUnfollowed)
}

func TestListFollowing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.seed.User("u")
	a, b := h.seed.Channel("a"), h.seed.Channel("b")
	require.NoError(t, h.followSvc.Follow(ctx, u.ID, a.ID))
	require.NoError(t, h.followSvc.Follow(ctx, u.ID, b.ID))
	require.NoError(t, h.followSvc.Unfollow(ctx, u.ID, a.ID))

	ids, err := h.followSvc.ListFollowing(ctx, u.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids)
}
