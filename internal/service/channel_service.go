package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
	"github.com/d60-Lab/channel-feed/pkg/logger"
)

// DefaultChannelInvalidator 默认频道变化时清理缓存
type DefaultChannelInvalidator interface {
	Invalidate(ctx context.Context, orgID string)
}

type CreateChannelInput struct {
	OrgID     string
	Title     string
	IsPrivate bool
	Default   bool
}

type ChannelService interface {
	Create(ctx context.Context, actorID string, in CreateChannelInput) (*model.Channel, error)
	// SetDefault 同一 org 下以最近更新的默认频道为准；取消默认时补扇出历史 post
	SetDefault(ctx context.Context, actorID, channelID string, isDefault bool) (*model.Channel, error)
	Delete(ctx context.Context, actorID, channelID string) error
	Get(ctx context.Context, channelID string) (*model.Channel, error)
}

type channelService struct {
	lookup
	outbox      repository.OutboxRepository
	invalidator DefaultChannelInvalidator
}

func NewChannelService(users repository.UserRepository, channels repository.ChannelRepository, outbox repository.OutboxRepository, invalidator DefaultChannelInvalidator) ChannelService {
	return &channelService{lookup: lookup{users: users, channels: channels}, outbox: outbox, invalidator: invalidator}
}

func (s *channelService) Create(ctx context.Context, actorID string, in CreateChannelInput) (*model.Channel, error) {
	actor, err := s.user(ctx, actorID)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalidArg("empty channel title")
	}
	if in.Default && !actor.IsAdmin {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	c := &model.Channel{
		ID:             uuid.NewString(),
		OrgID:          in.OrgID,
		Title:          title,
		CreatedBy:      actor.ID,
		IsPrivate:      in.IsPrivate,
		DefaultChannel: in.Default,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.channels.Create(ctx, c); err != nil {
		return nil, err
	}
	if c.DefaultChannel {
		s.invalidator.Invalidate(ctx, c.OrgID)
	}
	return c, nil
}

func (s *channelService) SetDefault(ctx context.Context, actorID, channelID string, isDefault bool) (*model.Channel, error) {
	actor, err := s.user(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	c, err := s.channel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.channels.SetDefault(ctx, c.ID, isDefault); err != nil {
		return nil, err
	}
	s.invalidator.Invalidate(ctx, c.OrgID)
	// 默认期间的 post 没有 feed 项，交给 FanoutWorker 按关注者补齐
	if c.DefaultChannel && !isDefault {
		n, err := s.outbox.RequeueChannel(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("requeue fanout: %w", err)
		}
		logger.Info("channel undefaulted, backlog requeued", zap.String("channel", c.ID), zap.Int64("posts", n))
	}
	return s.channel(ctx, c.ID)
}

func (s *channelService) Delete(ctx context.Context, actorID, channelID string) error {
	actor, err := s.user(ctx, actorID)
	if err != nil {
		return err
	}
	c, err := s.channel(ctx, channelID)
	if err != nil {
		return err
	}
	if c.CreatedBy != actor.ID && !actor.IsAdmin {
		return ErrForbidden
	}
	if err := s.channels.SoftDelete(ctx, c.ID); err != nil {
		return err
	}
	if c.DefaultChannel {
		s.invalidator.Invalidate(ctx, c.OrgID)
	}
	return nil
}

func (s *channelService) Get(ctx context.Context, channelID string) (*model.Channel, error) {
	return s.channel(ctx, channelID)
}
