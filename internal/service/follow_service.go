package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/channel-feed/internal/event"
	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
)

// FollowService 频道关注关系
type FollowService interface {
	Follow(ctx context.Context, userID, channelID string) error
	Unfollow(ctx context.Context, userID, channelID string) error
	// SetFollow onFollowChanged 入口
	SetFollow(ctx context.Context, userID, channelID string, followed bool) error
	ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error)
}

type followService struct {
	lookup
	follows   repository.FollowRepository
	publisher event.Publisher
}

func NewFollowService(
	users repository.UserRepository,
	channels repository.ChannelRepository,
	posts repository.PostRepository,
	follows repository.FollowRepository,
	publisher event.Publisher,
) FollowService {
	return &followService{
		lookup:    lookup{users: users, channels: channels, posts: posts},
		follows:   follows,
		publisher: publisher,
	}
}

func (s *followService) SetFollow(ctx context.Context, userID, channelID string, followed bool) error {
	if followed {
		return s.Follow(ctx, userID, channelID)
	}
	return s.Unfollow(ctx, userID, channelID)
}

// Follow 首次关注建行；重新关注恢复隐藏的 feed 项并记录频道最新 post 时间，不补历史
func (s *followService) Follow(ctx context.Context, userID, channelID string) error {
	if _, err := s.user(ctx, userID); err != nil {
		return err
	}
	if _, err := s.channel(ctx, channelID); err != nil {
		return err
	}
	latest, err := s.posts.LatestCreatedAt(ctx, channelID)
	if err != nil {
		return err
	}

	existing, err := s.follows.Get(ctx, userID, channelID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		created, err := s.follows.Create(ctx, userID, channelID, latest)
		if err != nil {
			return err
		}
		if !created {
			return ErrAlreadyFollowing
		}
	case err != nil:
		return err
	case existing.Active():
		return ErrAlreadyFollowing
	default:
		changed, err := s.follows.Transition(ctx, userID, channelID, model.FollowUnfollowed, model.FollowActive, latest)
		if err != nil {
			return err
		}
		if !changed {
			return ErrAlreadyFollowing
		}
	}

	s.publish(ctx, event.ChannelFollowed, userID, channelID)
	return nil
}

// Unfollow 只改状态并隐藏该频道的 feed 项
func (s *followService) Unfollow(ctx context.Context, userID, channelID string) error {
	if _, err := s.user(ctx, userID); err != nil {
		return err
	}
	if _, err := s.channel(ctx, channelID); err != nil {
		return err
	}
	changed, err := s.follows.Transition(ctx, userID, channelID, model.FollowActive, model.FollowUnfollowed, nil)
	if err != nil {
		return err
	}
	if !changed {
		return ErrAlreadyUnfollowed
	}
	s.publish(ctx, event.ChannelUnfollowed, userID, channelID)
	return nil
}

func (s *followService) publish(ctx context.Context, name event.Name, userID, channelID string) {
	ev := event.New(name, channelID)
	ev.ActorID = userID
	ev.ChannelID = channelID
	s.publisher.Publish(ctx, ev)
}

func (s *followService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize
	items, err := s.follows.ListFollowings(ctx, userID, offset, pageSize)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.ChannelID
	}
	return res, nil
}
