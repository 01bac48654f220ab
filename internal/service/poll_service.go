package service

import (
	"context"

	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
)

type PollService interface {
	// CastVote 每个用户每个投票帖最多一张有效票，重复调用即改票
	CastVote(ctx context.Context, userID, postID, optionID string, isSelected bool) (*model.UserPollVote, error)
}

type pollService struct {
	lookup
	polls repository.PollRepository
}

func NewPollService(
	users repository.UserRepository,
	channels repository.ChannelRepository,
	posts repository.PostRepository,
	polls repository.PollRepository,
) PollService {
	return &pollService{lookup: lookup{users: users, channels: channels, posts: posts}, polls: polls}
}

func (s *pollService) CastVote(ctx context.Context, userID, postID, optionID string, isSelected bool) (*model.UserPollVote, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	post, err := s.livePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.HasPoll {
		return nil, invalidArg("post %s has no poll", post.ID)
	}
	opt, err := s.polls.GetOption(ctx, optionID)
	if err != nil {
		return nil, mapNotFound(err, ErrPollOptionNotFound, "get poll option")
	}
	if opt.PostID != post.ID {
		return nil, ErrPollOptionNotFound
	}
	return s.polls.Upsert(ctx, userID, post.ID, opt.ID, isSelected)
}
