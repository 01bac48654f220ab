package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/channel-feed/internal/cache"
	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
)

// DefaultChannelResolver 按 org 解析默认频道；nil 表示没有
type DefaultChannelResolver interface {
	Get(ctx context.Context, orgID string) (*cache.DefaultChannelSnapshot, error)
}

// FeedPage 合并后的分页结果
type FeedPage struct {
	Items   []*FeedItem `json:"items"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	HasMore bool        `json:"has_more"`
}

// ChannelFeedFilters show_own_posts / show_favourite_posts
type ChannelFeedFilters struct {
	ShowOwnPosts       bool
	ShowFavouritePosts bool
}

type FeedService interface {
	// GetFeed 个人 feed 与默认频道 post 合并，按创建时间倒序
	GetFeed(ctx context.Context, userID, orgID string, date time.Time, page, limit int) (*FeedPage, error)
	GetChannelFeed(ctx context.Context, channelID, userID string, date time.Time, page, limit int, f ChannelFeedFilters) (*FeedPage, error)
	MarkViewed(ctx context.Context, userID, postID string) error
}

type feedService struct {
	lookup
	enricher
	feeds    repository.FeedRepository
	follows  repository.FollowRepository
	defaults DefaultChannelResolver
	maxLimit int
}

func NewFeedService(
	users repository.UserRepository,
	channels repository.ChannelRepository,
	posts repository.PostRepository,
	feeds repository.FeedRepository,
	follows repository.FollowRepository,
	facts repository.FactRepository,
	polls repository.PollRepository,
	defaults DefaultChannelResolver,
	maxLimit int,
) FeedService {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &feedService{
		lookup:   lookup{users: users, channels: channels, posts: posts},
		enricher: enricher{facts: facts, polls: polls},
		feeds:    feeds,
		follows:  follows,
		defaults: defaults,
		maxLimit: maxLimit,
	}
}

func (s *feedService) query(viewerID string, date time.Time, page, limit int) (repository.FeedQuery, error) {
	if page < 1 {
		return repository.FeedQuery{}, invalidArg("page must be >= 1")
	}
	if limit < 1 || limit > s.maxLimit {
		return repository.FeedQuery{}, invalidArg("limit must be in [1, %d]", s.maxLimit)
	}
	if date.IsZero() {
		date = time.Now()
	}
	return repository.FeedQuery{ViewerID: viewerID, Day: model.Day(date), Offset: (page - 1) * limit, Limit: limit}, nil
}

func (s *feedService) GetFeed(ctx context.Context, userID, orgID string, date time.Time, page, limit int) (*FeedPage, error) {
	q, err := s.query(userID, date, page, limit)
	if err != nil {
		return nil, err
	}
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}

	personal, personalTotal, err := s.feeds.PersonalFeed(ctx, userID, q)
	if err != nil {
		return nil, err
	}

	var (
		defaults      []*model.Post
		defaultsTotal int64
	)
	dc, err := s.defaults.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if dc != nil {
		if defaults, defaultsTotal, err = s.feeds.ChannelPosts(ctx, dc.ID, q, repository.ChannelFeedFilter{}); err != nil {
			return nil, err
		}
	}

	merged := make([]*model.Post, 0, len(personal)+len(defaults))
	fromDefault := make(map[string]bool, len(defaults))
	seen := make(map[string]bool, len(personal)+len(defaults))
	for _, p := range personal {
		seen[p.ID] = true
		merged = append(merged, p)
	}
	for _, p := range defaults {
		fromDefault[p.ID] = true
		if !seen[p.ID] {
			seen[p.ID] = true
			merged = append(merged, p)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	items, err := s.enrich(ctx, userID, merged)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		it.FromDefaultChannel = fromDefault[it.Post.ID]
	}

	end := int64(page * limit)
	return &FeedPage{
		Items:   items,
		Page:    page,
		Limit:   limit,
		HasMore: end < personalTotal || end < defaultsTotal,
	}, nil
}

func (s *feedService) GetChannelFeed(ctx context.Context, channelID, userID string, date time.Time, page, limit int, f ChannelFeedFilters) (*FeedPage, error) {
	q, err := s.query(userID, date, page, limit)
	if err != nil {
		return nil, err
	}
	viewer, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	channel, err := s.channel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	follow, err := s.follows.Get(ctx, userID, channelID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	following := err == nil && follow.Active()
	if channel.IsPrivate && !following && !viewer.IsAdmin && channel.CreatedBy != viewer.ID {
		return nil, ErrForbidden
	}

	posts, total, err := s.feeds.ChannelPosts(ctx, channelID, q, repository.ChannelFeedFilter{
		OwnPostsOnly:       f.ShowOwnPosts,
		FavouritePostsOnly: f.ShowFavouritePosts,
	})
	if err != nil {
		return nil, err
	}
	items, err := s.enrich(ctx, userID, posts)
	if err != nil {
		return nil, err
	}
	if channel.DefaultChannel {
		for _, it := range items {
			it.FromDefaultChannel = true
		}
	}

	if following && follow.HasNewPost {
		if err := s.follows.ClearNewPost(ctx, userID, channelID); err != nil {
			return nil, err
		}
	}

	return &FeedPage{
		Items:   items,
		Page:    page,
		Limit:   limit,
		HasMore: int64(page*limit) < total,
	}, nil
}

func (s *feedService) MarkViewed(ctx context.Context, userID, postID string) error {
	if _, err := s.user(ctx, userID); err != nil {
		return err
	}
	ok, err := s.feeds.MarkViewed(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPostNotFound
	}
	return nil
}
