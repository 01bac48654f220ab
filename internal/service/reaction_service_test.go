package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactions_CountersFollowAddAndDisable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	u := h.seed.User("u")
	admin := h.seed.Admin("admin")
	p := h.seed.Post(h.seed.Channel("c").ID, author.ID)

	r1, err := h.reactionSvc.AddReaction(ctx, u.ID, p.ID, "great")
	require.NoError(t, err)
	r2, err := h.reactionSvc.AddReaction(ctx, author.ID, p.ID, "thanks")
	require.NoError(t, err)

	c1, err := h.reactionSvc.AddConversation(ctx, author.ID, r1.ID, "reply")
	require.NoError(t, err)
	_, err = h.reactionSvc.AddConversation(ctx, u.ID, r1.ID, "reply 2")
	require.NoError(t, err)

	require.ErrorIs(t, h.reactionSvc.DisableReaction(ctx, u.ID, r2.ID), ErrForbidden)
	require.NoError(t, h.reactionSvc.DisableReaction(ctx, admin.ID, r2.ID))
	require.ErrorIs(t, h.reactionSvc.DisableReaction(ctx, admin.ID, r2.ID), ErrAlreadyDisabled)
	require.NoError(t, h.reactionSvc.DisableConversation(ctx, author.ID, c1.ID))

	_, err = h.reactionSvc.AddConversation(ctx, u.ID, r2.ID, "late")
	assert.ErrorIs(t, err, ErrReactionNotFound)
	_, err = h.reactionSvc.AddReaction(ctx, u.ID, p.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	h.drain(t)
	assert.EqualValues(t, 1, h.reloadPost(t, p.ID).TotalReactions)
	got, err := h.reactions.GetReaction(ctx, r1.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.TotalConversations)
}

func TestBlock_Transitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a, b := h.seed.User("a"), h.seed.User("b")

	assert.ErrorIs(t, h.blockSvc.Block(ctx, a.ID, a.ID), ErrInvalidArgument)
	assert.ErrorIs(t, h.blockSvc.Unblock(ctx, a.ID, b.ID), ErrNotBlocked)
	require.NoError(t, h.blockSvc.Block(ctx, a.ID, b.ID))
	assert.ErrorIs(t, h.blockSvc.Block(ctx, a.ID, b.ID), ErrAlreadyBlocked)
	require.NoError(t, h.blockSvc.Block(ctx, b.ID, a.ID))
	require.NoError(t, h.blockSvc.Unblock(ctx, a.ID, b.ID))
	assert.ErrorIs(t, h.blockSvc.Block(ctx, a.ID, "ghost"), ErrUserNotFound)
}

func TestPoll_CastVoteValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	author := h.seed.User("author")
	u := h.seed.User("u")
	ch := h.seed.Channel("c")
	plain := h.seed.Post(ch.ID, author.ID)
	poll, err := h.postSvc.Create(ctx, author.ID, CreatePostInput{ChannelID: ch.ID, Message: "?", PollOptions: []string{"a", "b"}})
	require.NoError(t, err)
	other, err := h.postSvc.Create(ctx, author.ID, CreatePostInput{ChannelID: ch.ID, Message: "?", PollOptions: []string{"x", "y"}})
	require.NoError(t, err)
	opts, err := h.polls.OptionsFor(ctx, []string{poll.ID, other.ID})
	require.NoError(t, err)

	_, err = h.pollSvc.CastVote(ctx, u.ID, plain.ID, opts[poll.ID][0].ID, true)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = h.pollSvc.CastVote(ctx, u.ID, poll.ID, opts[other.ID][0].ID, true)
	assert.ErrorIs(t, err, ErrPollOptionNotFound)
	_, err = h.pollSvc.CastVote(ctx, u.ID, poll.ID, "missing", true)
	assert.ErrorIs(t, err, ErrPollOptionNotFound)

	vote, err := h.pollSvc.CastVote(ctx, u.ID, poll.ID, opts[poll.ID][1].ID, true)
	require.NoError(t, err)
	assert.True(t, vote.IsSelected)
	vote, err = h.pollSvc.CastVote(ctx, u.ID, poll.ID, opts[poll.ID][1].ID, false)
	require.NoError(t, err)
	assert.False(t, vote.IsSelected)

	tally, err := h.polls.Tally(ctx, []string{poll.ID})
	require.NoError(t, err)
	assert.Empty(t, tally)
}

func TestChannel_DefaultLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.seed.Admin("admin")
	u := h.seed.User("u")

	_, err := h.channelSvc.Create(ctx, u.ID, CreateChannelInput{OrgID: "org", Title: "x", Default: true})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = h.channelSvc.Create(ctx, u.ID, CreateChannelInput{OrgID: "org", Title: " "})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	first, err := h.channelSvc.Create(ctx, admin.ID, CreateChannelInput{OrgID: "org", Title: "first", Default: true})
	require.NoError(t, err)
	second, err := h.channelSvc.Create(ctx, admin.ID, CreateChannelInput{OrgID: "org", Title: "second"})
	require.NoError(t, err)

	dc, err := h.defaults.Get(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, first.ID, dc.ID)

	_, err = h.channelSvc.SetDefault(ctx, u.ID, second.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)
	got, err := h.channelSvc.SetDefault(ctx, admin.ID, second.ID, true)
	require.NoError(t, err)
	assert.True(t, got.DefaultChannel)

	dc, err = h.defaults.Get(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, second.ID, dc.ID, "most recently updated default wins")

	assert.ErrorIs(t, h.channelSvc.Delete(ctx, u.ID, second.ID), ErrForbidden)
	require.NoError(t, h.channelSvc.Delete(ctx, admin.ID, second.ID))
	_, err = h.channelSvc.Get(ctx, second.ID)
	assert.ErrorIs(t, err, ErrChannelNotFound)

	dc, err = h.defaults.Get(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, first.ID, dc.ID)
}
