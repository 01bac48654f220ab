package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/channel-feed/internal/model"
)

func TestFeed_RenderDateScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.seed.Admin("admin")
	u := h.seed.User("u")
	ch := h.seed.Channel("c")
	require.NoError(t, h.followSvc.Follow(ctx, u.ID, ch.ID))

	today := time.Now().UTC()
	tomorrow := today.Add(24 * time.Hour)
	p1, err := h.postSvc.Create(ctx, admin.ID, CreatePostInput{ChannelID: ch.ID, Message: "later", RenderDate: &tomorrow})
	require.NoError(t, err)
	h.runFanout(t)

	page, err := h.feedSvc.GetFeed(ctx, u.ID, "org", today, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = h.feedSvc.GetFeed(ctx, u.ID, "org", tomorrow, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, p1.ID, page.Items[0].Post.ID)

	// 未到 render date 不可互动
	require.ErrorIs(t, h.engagementSvc.ToggleLike(ctx, u.ID, TargetPost, p1.ID, true), ErrPostNotFound)

	// 到了次日
	require.NoError(t, h.seed.DB().Model(&model.Post{}).Where("id = ?", p1.ID).
		Update("post_render_date", model.Day(today)).Error)

	require.NoError(t, h.engagementSvc.ToggleLike(ctx, u.ID, TargetPost, p1.ID, true))
	require.ErrorIs(t, h.engagementSvc.ToggleLike(ctx, u.ID, TargetPost, p1.ID, true), ErrInvalidTransition)
	h.drain(t)
	assert.EqualValues(t, 1, h.reloadPost(t, p1.ID).TotalLikes)

	page, err = h.feedSvc.GetFeed(ctx, u.ID, "org", tomorrow, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].IsLiked)
}

func TestFeed_DisabledPostsHiddenButDirectLookupWorks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	admin := h.seed.Admin("admin")
	u := h.seed.User("u")
	ch := h.seed.Channel("c")
	h.seed.Follow(u.ID, ch.ID)

	byUser := h.seed.Post(ch.ID, author.ID, func(p *model.Post) { p.IsPostDisabledByUser = true })
	byAdmin := h.seed.Post(ch.ID, author.ID, func(p *model.Post) { p.IsPostDisabledByAdmin = true })
	live := h.seed.Post(ch.ID, author.ID)
	for _, p := range []*model.Post{byUser, byAdmin, live} {
		h.seed.FeedEntry(u.ID, p.ID, ch.ID)
	}

	page, err := h.feedSvc.GetFeed(ctx, u.ID, "org", time.Now(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{live.ID}, postIDs(page.Items))

	cpage, err := h.feedSvc.GetChannelFeed(ctx, ch.ID, u.ID, time.Now(), 1, 10, ChannelFeedFilters{})
	require.NoError(t, err)
	assert.Equal(t, []string{live.ID}, postIDs(cpage.Items))

	_, err = h.postSvc.Get(ctx, u.ID, byAdmin.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	item, err := h.postSvc.Get(ctx, author.ID, byAdmin.ID)
	require.NoError(t, err)
	assert.Equal(t, byAdmin.ID, item.Post.ID)
	_, err = h.postSvc.Get(ctx, admin.ID, byUser.ID)
	assert.NoError(t, err)
}

func TestFeed_BlockExclusion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.seed.User("a")
	b := h.seed.User("b")
	other := h.seed.User("other")
	ch := h.seed.Channel("c")
	dc := h.seed.DefaultChannel("announcements", "org")
	h.seed.Follow(a.ID, ch.ID)

	fromB := h.seed.Post(ch.ID, b.ID)
	fromOther := h.seed.Post(ch.ID, other.ID)
	h.seed.FeedEntry(a.ID, fromB.ID, ch.ID)
	h.seed.FeedEntry(a.ID, fromOther.ID, ch.ID)
	defaultFromB := h.seed.Post(dc.ID, b.ID)
	defaultFromOther := h.seed.Post(dc.ID, other.ID)

	require.NoError(t, h.blockSvc.Block(ctx, a.ID, b.ID))

	page, err := h.feedSvc.GetFeed(ctx, a.ID, "org", time.Now(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{defaultFromOther.ID, fromOther.ID}, postIDs(page.Items))
	assert.NotContains(t, postIDs(page.Items), defaultFromB.ID)

	// 单向：b 仍能看到 a 拉黑前后的一切
	page, err = h.feedSvc.GetFeed(ctx, b.ID, "org", time.Now(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	require.NoError(t, h.blockSvc.Unblock(ctx, a.ID, b.ID))
	page, err = h.feedSvc.GetFeed(ctx, a.ID, "org", time.Now(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)
}

func TestFeed_MergesDefaultChannelWithPagination(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	u := h.seed.User("u")
	ch := h.seed.Channel("c")
	dc := h.seed.DefaultChannel("announcements", "org")
	h.seed.Follow(u.ID, ch.ID)

	// 交错创建：personal 3 条，default 1 条
	p1 := h.seed.Post(ch.ID, author.ID)
	d1 := h.seed.Post(dc.ID, author.ID)
	p2 := h.seed.Post(ch.ID, author.ID)
	p3 := h.seed.Post(ch.ID, author.ID)
	for _, p := range []*model.Post{p1, p2, p3} {
		h.seed.FeedEntry(u.ID, p.ID, ch.ID)
	}

	page, err := h.feedSvc.GetFeed(ctx, u.ID, "org", time.Now(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{p3.ID, p2.ID, d1.ID}, postIDs(page.Items))
	assert.True(t, page.HasMore)
	assert.True(t, page.Items[2].FromDefaultChannel)
	assert.False(t, page.Items[0].FromDefaultChannel)

	page, err = h.feedSvc.GetFeed(ctx, u.ID, "org", time.Now(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{p1.ID}, postIDs(page.Items))
	assert.False(t, page.HasMore)

	// 其它 org 看不到该默认频道
	page, err = h.feedSvc.GetFeed(ctx, u.ID, "other-org", time.Now(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
}

func TestFeed_DeduplicatesDefaultChannelEntries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	u := h.seed.User("u")
	dc := h.seed.DefaultChannel("announcements", "org")
	p := h.seed.Post(dc.ID, author.ID)
	// 频道在成为默认频道之前已扇出过
	h.seed.FeedEntry(u.ID, p.ID, dc.ID)

	page, err := h.feedSvc.GetFeed(ctx, u.ID, "org", time.Now(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, postIDs(page.Items))
	assert.True(t, page.Items[0].FromDefaultChannel)
}

func TestFeed_InvalidPaging(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.seed.User("u")

	_, err := h.feedSvc.GetFeed(ctx, u.ID, "org", time.Now(), 0, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = h.feedSvc.GetFeed(ctx, u.ID, "org", time.Now(), 1, 51)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = h.feedSvc.GetFeed(ctx, "nobody", "org", time.Now(), 1, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChannelFeed_FiltersAndNewPostFlag(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	u := h.seed.User("u")
	ch := h.seed.Channel("c")
	require.NoError(t, h.followSvc.Follow(ctx, u.ID, ch.ID))

	mine, err := h.postSvc.Create(ctx, u.ID, CreatePostInput{ChannelID: ch.ID, Message: "mine"})
	require.NoError(t, err)
	theirs, err := h.postSvc.Create(ctx, author.ID, CreatePostInput{ChannelID: ch.ID, Message: "theirs"})
	require.NoError(t, err)
	h.runFanout(t)
	require.NoError(t, h.engagementSvc.ToggleFavorite(ctx, u.ID, TargetPost, theirs.ID, true))

	f, err := h.follows.Get(ctx, u.ID, ch.ID)
	require.NoError(t, err)
	require.True(t, f.HasNewPost)

	page, err := h.feedSvc.GetChannelFeed(ctx, ch.ID, u.ID, time.Now(), 1, 10, ChannelFeedFilters{})
	require.NoError(t, err)
	assert.Equal(t, []string{theirs.ID, mine.ID}, postIDs(page.Items))
	assert.True(t, page.Items[0].IsFavorited)

	f, err = h.follows.Get(ctx, u.ID, ch.ID)
	require.NoError(t, err)
	assert.False(t, f.HasNewPost)

	page, err = h.feedSvc.GetChannelFeed(ctx, ch.ID, u.ID, time.Now(), 1, 10, ChannelFeedFilters{ShowOwnPosts: true})
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID}, postIDs(page.Items))

	page, err = h.feedSvc.GetChannelFeed(ctx, ch.ID, u.ID, time.Now(), 1, 10, ChannelFeedFilters{ShowFavouritePosts: true})
	require.NoError(t, err)
	assert.Equal(t, []string{theirs.ID}, postIDs(page.Items))
}

func TestChannelFeed_PrivateChannel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.seed.User("owner")
	stranger := h.seed.User("stranger")
	ch, err := h.channelSvc.Create(ctx, owner.ID, CreateChannelInput{OrgID: "org", Title: "secret", IsPrivate: true})
	require.NoError(t, err)

	_, err = h.feedSvc.GetChannelFeed(ctx, ch.ID, stranger.ID, time.Now(), 1, 10, ChannelFeedFilters{})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = h.feedSvc.GetChannelFeed(ctx, ch.ID, owner.ID, time.Now(), 1, 10, ChannelFeedFilters{})
	assert.NoError(t, err)

	require.NoError(t, h.followSvc.Follow(ctx, stranger.ID, ch.ID))
	_, err = h.feedSvc.GetChannelFeed(ctx, ch.ID, stranger.ID, time.Now(), 1, 10, ChannelFeedFilters{})
	assert.NoError(t, err)
}

func TestFeed_PollEnrichment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	u := h.seed.User("u")
	v := h.seed.User("v")
	ch := h.seed.Channel("c")
	h.seed.Follow(u.ID, ch.ID)

	post, err := h.postSvc.Create(ctx, author.ID, CreatePostInput{ChannelID: ch.ID, Message: "lunch?", PollOptions: []string{"pizza", "sushi"}})
	require.NoError(t, err)
	require.True(t, post.HasPoll)
	h.runFanout(t)

	item, err := h.postSvc.Get(ctx, u.ID, post.ID)
	require.NoError(t, err)
	require.Len(t, item.PollOptions, 2)
	pizza, sushi := item.PollOptions[0], item.PollOptions[1]
	assert.Equal(t, "pizza", pizza.Title)

	_, err = h.pollSvc.CastVote(ctx, u.ID, post.ID, pizza.ID, true)
	require.NoError(t, err)
	_, err = h.pollSvc.CastVote(ctx, v.ID, post.ID, pizza.ID, true)
	require.NoError(t, err)
	// 改票
	_, err = h.pollSvc.CastVote(ctx, u.ID, post.ID, sushi.ID, true)
	require.NoError(t, err)

	page, err := h.feedSvc.GetFeed(ctx, u.ID, "org", time.Now(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	got := page.Items[0]
	assert.Equal(t, sushi.ID, got.SelectedOptionID)
	assert.EqualValues(t, 1, got.PollOptions[0].Votes)
	assert.EqualValues(t, 1, got.PollOptions[1].Votes)
}

func TestFeed_MarkViewed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.seed.User("u")
	ch := h.seed.Channel("c")
	p := h.seed.Post(ch.ID, h.seed.User("a").ID)
	h.seed.FeedEntry(u.ID, p.ID, ch.ID)

	require.NoError(t, h.feedSvc.MarkViewed(ctx, u.ID, p.ID))
	var e model.FeedEntry
	require.NoError(t, h.db.Where("user_id = ? AND post_id = ?", u.ID, p.ID).First(&e).Error)
	assert.True(t, e.Viewed)

	assert.ErrorIs(t, h.feedSvc.MarkViewed(ctx, u.ID, "missing"), ErrPostNotFound)
}
