package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/channel-feed/internal/model"
)

type PostRepository interface {
	// CreateWithOutbox 同一事务内写入 post、投票选项与 outbox 事件
	CreateWithOutbox(ctx context.Context, post *model.Post, options []*model.PollOption) error
	Get(ctx context.Context, id string) (*model.Post, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	// LatestCreatedAt 频道内最新一条可见 post 的创建时间，无则 nil
	LatestCreatedAt(ctx context.Context, channelID string) (*time.Time, error)
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) CreateWithOutbox(ctx context.Context, post *model.Post, options []*model.PollOption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return err
			}
		}
		out := &model.Outbox{
			ID:            uuid.NewString(),
			PostID:        post.ID,
			ChannelID:     post.ChannelID,
			AuthorID:      post.AuthorID,
			Status:        model.OutboxPending,
			NextAttemptAt: post.CreatedAt,
			CreatedAt:     post.CreatedAt,
		}
		return tx.Create(out).Error
	})
}

func (r *postRepository) Get(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Updates(fields).Error
}

func (r *postRepository) LatestCreatedAt(ctx context.Context, channelID string) (*time.Time, error) {
	var p model.Post
	err := r.db.WithContext(ctx).
		Select("created_at").
		Where("channel_id = ? AND is_post_disabled_by_user = ? AND is_post_disabled_by_admin = ?", channelID, false, false).
		Order("created_at DESC").
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.CreatedAt.IsZero() {
		return nil, nil
	}
	return &p.CreatedAt, nil
}
