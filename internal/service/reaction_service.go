package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/channel-feed/internal/event"
	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
)

// ReactionService 回应与回复；增删都会触发父级计数重算
type ReactionService interface {
	AddReaction(ctx context.Context, actorID, postID, message string) (*model.Reaction, error)
	DisableReaction(ctx context.Context, actorID, reactionID string) error
	AddConversation(ctx context.Context, actorID, reactionID, message string) (*model.Conversation, error)
	DisableConversation(ctx context.Context, actorID, conversationID string) error
}

type reactionService struct {
	lookup
	publisher event.Publisher
}

func NewReactionService(
	users repository.UserRepository,
	channels repository.ChannelRepository,
	posts repository.PostRepository,
	reactions repository.ReactionRepository,
	publisher event.Publisher,
) ReactionService {
	return &reactionService{
		lookup:    lookup{users: users, channels: channels, posts: posts, reactions: reactions},
		publisher: publisher,
	}
}

func (s *reactionService) AddReaction(ctx context.Context, actorID, postID, message string) (*model.Reaction, error) {
	if strings.TrimSpace(message) == "" {
		return nil, invalidArg("empty reaction")
	}
	if _, err := s.user(ctx, actorID); err != nil {
		return nil, err
	}
	post, err := s.livePost(ctx, postID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &model.Reaction{ID: uuid.NewString(), PostID: post.ID, UserID: actorID, Message: message, CreatedAt: now, UpdatedAt: now}
	if err := s.reactions.CreateReaction(ctx, r); err != nil {
		return nil, err
	}

	ev := event.New(event.ReactionAdded, r.ID)
	ev.ActorID = actorID
	ev.PostID = post.ID
	ev.ReactionID = r.ID
	ev.CreatorID = post.AuthorID
	s.publisher.Publish(ctx, ev)
	return r, nil
}

// DisableReaction 作者禁用或管理员禁用，取决于调用者身份
func (s *reactionService) DisableReaction(ctx context.Context, actorID, reactionID string) error {
	actor, err := s.user(ctx, actorID)
	if err != nil {
		return err
	}
	r, err := s.reactions.GetReaction(ctx, reactionID)
	if err != nil {
		return mapNotFound(err, ErrReactionNotFound, "get reaction")
	}
	byAdmin := r.UserID != actor.ID
	if byAdmin && !actor.IsAdmin {
		return ErrForbidden
	}
	changed, err := s.reactions.DisableReaction(ctx, r.ID, byAdmin)
	if err != nil {
		return err
	}
	if !changed {
		return ErrAlreadyDisabled
	}

	ev := event.New(event.ReactionDisabled, r.ID)
	ev.ActorID = actor.ID
	ev.PostID = r.PostID
	ev.ReactionID = r.ID
	ev.CreatorID = r.UserID
	s.publisher.Publish(ctx, ev)
	return nil
}

func (s *reactionService) AddConversation(ctx context.Context, actorID, reactionID, message string) (*model.Conversation, error) {
	if strings.TrimSpace(message) == "" {
		return nil, invalidArg("empty conversation")
	}
	if _, err := s.user(ctx, actorID); err != nil {
		return nil, err
	}
	r, err := s.liveReaction(ctx, reactionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &model.Conversation{ID: uuid.NewString(), ReactionID: r.ID, PostID: r.PostID, UserID: actorID, Message: message, CreatedAt: now, UpdatedAt: now}
	if err := s.reactions.CreateConversation(ctx, c); err != nil {
		return nil, err
	}

	ev := event.New(event.ConversationAdded, c.ID)
	ev.ActorID = actorID
	ev.PostID = r.PostID
	ev.ReactionID = r.ID
	ev.CreatorID = r.UserID
	s.publisher.Publish(ctx, ev)
	return c, nil
}

func (s *reactionService) DisableConversation(ctx context.Context, actorID, conversationID string) error {
	actor, err := s.user(ctx, actorID)
	if err != nil {
		return err
	}
	c, err := s.reactions.GetConversation(ctx, conversationID)
	if err != nil {
		return mapNotFound(err, ErrConversationNotFound, "get conversation")
	}
	byAdmin := c.UserID != actor.ID
	if byAdmin && !actor.IsAdmin {
		return ErrForbidden
	}
	changed, err := s.reactions.DisableConversation(ctx, c.ID, byAdmin)
	if err != nil {
		return err
	}
	if !changed {
		return ErrAlreadyDisabled
	}

	ev := event.New(event.ConversationDisabled, c.ID)
	ev.ActorID = actor.ID
	ev.PostID = c.PostID
	ev.ReactionID = c.ReactionID
	ev.CreatorID = c.UserID
	s.publisher.Publish(ctx, ev)
	return nil
}
