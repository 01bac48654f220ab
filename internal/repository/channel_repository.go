package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/channel-feed/internal/model"
)

type ChannelRepository interface {
	Create(ctx context.Context, c *model.Channel) error
	Get(ctx context.Context, id string) (*model.Channel, error)
	SetDefault(ctx context.Context, id string, isDefault bool) error
	SoftDelete(ctx context.Context, id string) error
	// FindDefault 同一 org 下最近更新的默认频道
	FindDefault(ctx context.Context, orgID string) (*model.Channel, error)
}

type channelRepository struct{ db *gorm.DB }

func NewChannelRepository(db *gorm.DB) ChannelRepository { return &channelRepository{db: db} }

func (r *channelRepository) Create(ctx context.Context, c *model.Channel) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *channelRepository) Get(ctx context.Context, id string) (*model.Channel, error) {
	var c model.Channel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *channelRepository) SetDefault(ctx context.Context, id string, isDefault bool) error {
	return r.db.WithContext(ctx).
		Model(&model.Channel{}).
		Where("id = ?", id).
		Updates(map[string]any{"default_channel": isDefault, "updated_at": time.Now().UTC()}).Error
}

func (r *channelRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Channel{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_deleted": true, "default_channel": false}).Error
}

func (r *channelRepository) FindDefault(ctx context.Context, orgID string) (*model.Channel, error) {
	var c model.Channel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND default_channel = ? AND is_deleted = ?", orgID, true, false).
		Order("updated_at DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
}

type userRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
