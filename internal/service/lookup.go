package service

import (
	"context"
	"time"

	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
)

// lookup 统一的前置校验：实体存在且未被软删除/禁用
type lookup struct {
	users     repository.UserRepository
	channels  repository.ChannelRepository
	posts     repository.PostRepository
	reactions repository.ReactionRepository
}

func (l lookup) user(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrUserNotFound
	}
	u, err := l.users.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound, "get user")
	}
	if u.IsDeleted {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (l lookup) channel(ctx context.Context, id string) (*model.Channel, error) {
	if id == "" {
		return nil, ErrChannelNotFound
	}
	c, err := l.channels.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrChannelNotFound, "get channel")
	}
	if c.IsDeleted {
		return nil, ErrChannelNotFound
	}
	return c, nil
}

// livePost 未禁用、已到 render date 且所在频道未删除的 post
func (l lookup) livePost(ctx context.Context, id string) (*model.Post, error) {
	if id == "" {
		return nil, ErrPostNotFound
	}
	p, err := l.posts.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrPostNotFound, "get post")
	}
	if p.Disabled() || !p.RenderableOn(time.Now()) {
		return nil, ErrPostNotFound
	}
	if _, err := l.channel(ctx, p.ChannelID); err != nil {
		return nil, err
	}
	return p, nil
}

func (l lookup) liveReaction(ctx context.Context, id string) (*model.Reaction, error) {
	if id == "" {
		return nil, ErrReactionNotFound
	}
	r, err := l.reactions.GetReaction(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrReactionNotFound, "get reaction")
	}
	if r.Disabled() {
		return nil, ErrReactionNotFound
	}
	if _, err := l.livePost(ctx, r.PostID); err != nil {
		return nil, err
	}
	return r, nil
}

func (l lookup) liveConversation(ctx context.Context, id string) (*model.Conversation, error) {
	if id == "" {
		return nil, ErrConversationNotFound
	}
	c, err := l.reactions.GetConversation(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrConversationNotFound, "get conversation")
	}
	if c.Disabled() {
		return nil, ErrConversationNotFound
	}
	if _, err := l.liveReaction(ctx, c.ReactionID); err != nil {
		return nil, err
	}
	return c, nil
}
