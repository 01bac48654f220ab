package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/channel-feed/internal/model"
)

type FollowRepository interface {
	Get(ctx context.Context, userID, channelID string) (*model.Follow, error)
	// Create 首次关注；已存在时返回 false
	Create(ctx context.Context, userID, channelID string, lastPostAt *time.Time) (bool, error)
	// Transition 以 from 为前提切换状态，并同步隐藏/恢复该频道下的 feed 项
	Transition(ctx context.Context, userID, channelID string, from, to model.FollowStatus, lastPostAt *time.Time) (bool, error)
	ClearNewPost(ctx context.Context, userID, channelID string) error
	ListFollowings(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) Get(ctx context.Context, userID, channelID string) (*model.Follow, error) {
	var f model.Follow
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *followRepository) Create(ctx context.Context, userID, channelID string, lastPostAt *time.Time) (bool, error) {
	f := &model.Follow{
		ID:                uuid.NewString(),
		UserID:            userID,
		ChannelID:         channelID,
		Status:            model.FollowActive,
		LastPostCreatedAt: lastPostAt,
	}
	// 并发重复关注由唯一键兜底
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Transition(ctx context.Context, userID, channelID string, from, to model.FollowStatus, lastPostAt *time.Time) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
		if to == model.FollowActive {
			updates["last_post_created_at"] = lastPostAt
			updates["has_new_post"] = false
		}
		res := tx.Model(&model.Follow{}).
			Where("user_id = ? AND channel_id = ? AND status = ?", userID, channelID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true

		entryFrom, entryTo := model.FeedEntryVisible, model.FeedEntryHidden
		if to == model.FollowActive {
			entryFrom, entryTo = model.FeedEntryHidden, model.FeedEntryVisible
		}
		return tx.Model(&model.FeedEntry{}).
			Where("user_id = ? AND channel_id = ? AND status = ?", userID, channelID, entryFrom).
			Updates(map[string]any{"status": entryTo, "updated_at": time.Now().UTC()}).Error
	})
	return changed, err
}

func (r *followRepository) ClearNewPost(ctx context.Context, userID, channelID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("user_id = ? AND channel_id = ? AND has_new_post = ?", userID, channelID, true).
		UpdateColumn("has_new_post", false).Error
}

func (r *followRepository) ListFollowings(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.FollowActive).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
