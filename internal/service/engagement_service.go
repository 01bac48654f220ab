package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/channel-feed/internal/event"
	"github.com/d60-Lab/channel-feed/internal/repository"
	"github.com/d60-Lab/channel-feed/pkg/logger"
)

// TargetKind 点赞/收藏的对象类型
type TargetKind string

const (
	TargetPost         TargetKind = "post"
	TargetReaction     TargetKind = "reaction"
	TargetConversation TargetKind = "conversation"
)

func (k TargetKind) Valid() bool {
	switch k {
	case TargetPost, TargetReaction, TargetConversation:
		return true
	}
	return false
}

// toggleSpec 一种 (对象类型, 点赞/收藏) 组合的事实表、事件与拒绝错误
type toggleSpec struct {
	fact       repository.Fact
	added      event.Name
	removed    event.Name
	errPresent error
	errAbsent  error
}

var likeSpecs = map[TargetKind]toggleSpec{
	TargetPost:         {fact: repository.PostLikes, added: event.PostLiked, removed: event.PostUnliked, errPresent: ErrAlreadyLiked, errAbsent: ErrAlreadyUnliked},
	TargetReaction:     {fact: repository.ReactionLikes, added: event.ReactionLiked, removed: event.ReactionUnliked, errPresent: ErrAlreadyLiked, errAbsent: ErrAlreadyUnliked},
	TargetConversation: {fact: repository.ConversationLikes, added: event.ConversationLiked, removed: event.ConversationUnliked, errPresent: ErrAlreadyLiked, errAbsent: ErrAlreadyUnliked},
}

var favoriteSpecs = map[TargetKind]toggleSpec{
	TargetPost:         {fact: repository.PostFavorites, added: event.PostFavorited, removed: event.PostUnfavorited, errPresent: ErrAlreadyFavorited, errAbsent: ErrAlreadyUnfavorited},
	TargetReaction:     {fact: repository.ReactionFavorites, added: event.ReactionFavorited, removed: event.ReactionUnfavorited, errPresent: ErrAlreadyFavorited, errAbsent: ErrAlreadyUnfavorited},
	TargetConversation: {fact: repository.ConversationFavorites, added: event.ConversationFavorited, removed: event.ConversationUnfavorited, errPresent: ErrAlreadyFavorited, errAbsent: ErrAlreadyUnfavorited},
}

// EngagementService 点赞/收藏状态机：{absent, present} × desired
type EngagementService interface {
	ToggleLike(ctx context.Context, actorID string, kind TargetKind, targetID string, desired bool) error
	ToggleFavorite(ctx context.Context, actorID string, kind TargetKind, targetID string, desired bool) error
	ToggleReactionLike(ctx context.Context, actorID, reactionID string, desired bool) error
}

type engagementService struct {
	lookup
	facts     repository.FactRepository
	publisher event.Publisher
}

func NewEngagementService(
	users repository.UserRepository,
	channels repository.ChannelRepository,
	posts repository.PostRepository,
	reactions repository.ReactionRepository,
	facts repository.FactRepository,
	publisher event.Publisher,
) EngagementService {
	return &engagementService{
		lookup:    lookup{users: users, channels: channels, posts: posts, reactions: reactions},
		facts:     facts,
		publisher: publisher,
	}
}

func (s *engagementService) ToggleLike(ctx context.Context, actorID string, kind TargetKind, targetID string, desired bool) error {
	spec, ok := likeSpecs[kind]
	if !ok {
		return invalidArg("unknown target kind %q", kind)
	}
	return s.toggle(ctx, spec, actorID, kind, targetID, desired)
}

func (s *engagementService) ToggleFavorite(ctx context.Context, actorID string, kind TargetKind, targetID string, desired bool) error {
	spec, ok := favoriteSpecs[kind]
	if !ok {
		return invalidArg("unknown target kind %q", kind)
	}
	return s.toggle(ctx, spec, actorID, kind, targetID, desired)
}

func (s *engagementService) ToggleReactionLike(ctx context.Context, actorID, reactionID string, desired bool) error {
	return s.ToggleLike(ctx, actorID, TargetReaction, reactionID, desired)
}

// resolve 校验前置条件并补齐事实行的 post_id / creator_id
func (s *engagementService) resolve(ctx context.Context, kind TargetKind, targetID string) (repository.FactRow, error) {
	switch kind {
	case TargetPost:
		p, err := s.livePost(ctx, targetID)
		if err != nil {
			return repository.FactRow{}, err
		}
		return repository.FactRow{TargetID: p.ID, PostID: p.ID, CreatorID: p.AuthorID}, nil
	case TargetReaction:
		r, err := s.liveReaction(ctx, targetID)
		if err != nil {
			return repository.FactRow{}, err
		}
		return repository.FactRow{TargetID: r.ID, PostID: r.PostID, CreatorID: r.UserID}, nil
	default:
		c, err := s.liveConversation(ctx, targetID)
		if err != nil {
			return repository.FactRow{}, err
		}
		return repository.FactRow{TargetID: c.ID, PostID: c.PostID, CreatorID: c.UserID}, nil
	}
}

func (s *engagementService) toggle(ctx context.Context, spec toggleSpec, actorID string, kind TargetKind, targetID string, desired bool) error {
	if _, err := s.user(ctx, actorID); err != nil {
		return err
	}
	row, err := s.resolve(ctx, kind, targetID)
	if err != nil {
		return err
	}
	row.UserID = actorID

	present, err := s.facts.Exists(ctx, spec.fact, actorID, row.TargetID)
	if err != nil {
		return err
	}

	var name event.Name
	switch {
	case desired && present:
		return s.reject(spec, spec.errPresent, actorID, row.TargetID)
	case !desired && !present:
		return s.reject(spec, spec.errAbsent, actorID, row.TargetID)
	case desired:
		// 并发插入由唯一键裁决，落败方视为“已处于该状态”
		inserted, err := s.facts.Insert(ctx, spec.fact, row)
		if err != nil {
			return err
		}
		if !inserted {
			return s.reject(spec, spec.errPresent, actorID, row.TargetID)
		}
		name = spec.added
	default:
		deleted, err := s.facts.Delete(ctx, spec.fact, actorID, row.TargetID)
		if err != nil {
			return err
		}
		if !deleted {
			return s.reject(spec, spec.errAbsent, actorID, row.TargetID)
		}
		name = spec.removed
	}

	ev := event.New(name, row.TargetID)
	ev.ActorID = actorID
	ev.PostID = row.PostID
	ev.CreatorID = row.CreatorID
	if kind == TargetReaction {
		ev.ReactionID = row.TargetID
	}
	s.publisher.Publish(ctx, ev)
	return nil
}

func (s *engagementService) reject(spec toggleSpec, err error, actorID, targetID string) error {
	logger.Debug("engagement toggle rejected",
		zap.String("fact", spec.fact.Name()),
		zap.String("actor", actorID),
		zap.String("target", targetID),
		zap.Error(err))
	return err
}
