package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
)

func countEntries(t *testing.T, h *harness, postID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&model.FeedEntry{}).Where("post_id = ?", postID).Count(&n).Error)
	return n
}

func TestFanout_CompleteAndIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.Admin("admin")
	ch := h.seed.Channel("news")
	var followers []*model.User
	for _, name := range []string{"f1", "f2", "f3", "f4", "f5"} {
		u := h.seed.User(name)
		h.seed.Follow(u.ID, ch.ID)
		followers = append(followers, u)
	}
	h.seed.Unfollowed(h.seed.User("gone").ID, ch.ID)

	post, err := h.postSvc.Create(ctx, author.ID, CreatePostInput{ChannelID: ch.ID, Message: "hello"})
	require.NoError(t, err)
	h.runFanout(t)

	assert.EqualValues(t, len(followers), countEntries(t, h, post.ID))
	ob, err := h.outbox.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxDone, ob.Status)
	assert.EqualValues(t, len(followers), ob.FanoutCount)

	f, err := h.follows.Get(ctx, followers[0].ID, ch.ID)
	require.NoError(t, err)
	assert.True(t, f.HasNewPost)
	require.NotNil(t, f.LastPostCreatedAt)

	// 重复扇出不产生重复项
	written, err := h.feeds.FanOut(ctx, post, 2)
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.EqualValues(t, len(followers), countEntries(t, h, post.ID))
}

func TestFanout_PartialRunHeals(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	ch := h.seed.Channel("news")
	a, b := h.seed.User("a"), h.seed.User("b")
	h.seed.Follow(a.ID, ch.ID)
	h.seed.Follow(b.ID, ch.ID)

	post, err := h.postSvc.Create(ctx, author.ID, CreatePostInput{ChannelID: ch.ID, Message: "x"})
	require.NoError(t, err)
	// 模拟中途崩溃：只有 a 落地
	h.seed.FeedEntry(a.ID, post.ID, ch.ID)

	h.runFanout(t)
	assert.EqualValues(t, 2, countEntries(t, h, post.ID))
	ob, err := h.outbox.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ob.FanoutCount)
}

func TestFanout_SkipsDefaultChannel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.seed.Admin("admin")
	ch := h.seed.DefaultChannel("announcements", "org")
	h.seed.Follow(h.seed.User("u").ID, ch.ID)

	post, err := h.postSvc.Create(ctx, admin.ID, CreatePostInput{ChannelID: ch.ID, Message: "all hands"})
	require.NoError(t, err)
	h.runFanout(t)

	assert.Zero(t, countEntries(t, h, post.ID))
	ob, err := h.outbox.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxDone, ob.Status)
}

func TestFanout_BacklogAfterUndefault(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.seed.Admin("admin")
	u := h.seed.User("u")
	ch := h.seed.DefaultChannel("announcements", "org")
	h.seed.Follow(u.ID, ch.ID)

	post, err := h.postSvc.Create(ctx, admin.ID, CreatePostInput{ChannelID: ch.ID, Message: "all hands"})
	require.NoError(t, err)
	h.runFanout(t)
	require.Zero(t, countEntries(t, h, post.ID))

	got, err := h.channelSvc.SetDefault(ctx, admin.ID, ch.ID, false)
	require.NoError(t, err)
	assert.False(t, got.DefaultChannel)
	ob, err := h.outbox.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxPending, ob.Status)

	h.runFanout(t)
	assert.EqualValues(t, 1, countEntries(t, h, post.ID))
	ob, err = h.outbox.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxDone, ob.Status)
	assert.EqualValues(t, 1, ob.FanoutCount)

	// 本就不是默认频道时不重复入队
	_, err = h.channelSvc.SetDefault(ctx, admin.ID, ch.ID, false)
	require.NoError(t, err)
	ob, err = h.outbox.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxDone, ob.Status)
}

func TestFanout_AuthorFollowingOwnChannel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	ch := h.seed.Channel("news")
	h.seed.Follow(author.ID, ch.ID)

	post, err := h.postSvc.Create(ctx, author.ID, CreatePostInput{ChannelID: ch.ID, Message: "hi"})
	require.NoError(t, err)
	h.runFanout(t)

	assert.Zero(t, countEntries(t, h, post.ID))
	ob, err := h.outbox.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxDone, ob.Status)
	assert.Zero(t, ob.FanoutCount)
}

type brokenFeeds struct {
	repository.FeedRepository
}

func (brokenFeeds) FanOut(context.Context, *model.Post, int) (int64, error) {
	return 0, errors.New("storage unavailable")
}

func TestFanout_RetriesThenFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	ch := h.seed.Channel("news")
	h.seed.Follow(h.seed.User("u").ID, ch.ID)

	alerter := &recordingAlerter{}
	worker := NewFanoutWorker(h.outbox, h.posts, h.channels, brokenFeeds{h.feeds}, alerter, FanoutOptions{
		MaxAttempts: 2,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  time.Millisecond,
	})

	post, err := h.postSvc.Create(ctx, author.ID, CreatePostInput{ChannelID: ch.ID, Message: "x"})
	require.NoError(t, err)

	n, err := worker.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	ob, err := h.outbox.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxPending, ob.Status)
	assert.Equal(t, 1, ob.Attempts)
	assert.Contains(t, ob.LastError, "storage unavailable")

	require.Eventually(t, func() bool {
		if _, err := worker.ProcessOnce(ctx); err != nil {
			return false
		}
		got, err := h.outbox.Get(ctx, post.ID)
		if err != nil {
			return false
		}
		ob = got
		return ob.Status == model.OutboxFailed
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 2, ob.Attempts)
	require.Len(t, alerter.errs, 1)
	assert.Equal(t, "fanout", alerter.tags[0]["job"])
}

func TestFanoutWorker_StartStop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	ch := h.seed.Channel("news")
	u := h.seed.User("u")
	h.seed.Follow(u.ID, ch.ID)

	worker := NewFanoutWorker(h.outbox, h.posts, h.channels, h.feeds, nil, FanoutOptions{Workers: 2, PollInterval: 5 * time.Millisecond})
	stop := worker.Start()

	post, err := h.postSvc.Create(ctx, author.ID, CreatePostInput{ChannelID: ch.ID, Message: "x"})
	require.NoError(t, err)

	select {
	case <-worker.Metrics():
	case <-time.After(5 * time.Second):
		t.Fatal("fanout did not land")
	}
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, stop(stopCtx))
	assert.EqualValues(t, 1, countEntries(t, h, post.ID))
}
