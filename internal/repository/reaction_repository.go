package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/channel-feed/internal/model"
)

type ReactionRepository interface {
	CreateReaction(ctx context.Context, r *model.Reaction) error
	GetReaction(ctx context.Context, id string) (*model.Reaction, error)
	// DisableReaction 仅在当前未被该方禁用时生效
	DisableReaction(ctx context.Context, id string, byAdmin bool) (bool, error)

	CreateConversation(ctx context.Context, c *model.Conversation) error
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	DisableConversation(ctx context.Context, id string, byAdmin bool) (bool, error)
}

type reactionRepository struct{ db *gorm.DB }

func NewReactionRepository(db *gorm.DB) ReactionRepository { return &reactionRepository{db: db} }

func (r *reactionRepository) CreateReaction(ctx context.Context, m *model.Reaction) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *reactionRepository) GetReaction(ctx context.Context, id string) (*model.Reaction, error) {
	var m model.Reaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *reactionRepository) DisableReaction(ctx context.Context, id string, byAdmin bool) (bool, error) {
	col := "is_reaction_disabled_by_user"
	if byAdmin {
		col = "is_reaction_disabled_by_admin"
	}
	res := r.db.WithContext(ctx).
		Model(&model.Reaction{}).
		Where("id = ? AND "+col+" = ?", id, false).
		Update(col, true)
	return res.RowsAffected > 0, res.Error
}

func (r *reactionRepository) CreateConversation(ctx context.Context, m *model.Conversation) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *reactionRepository) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var m model.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *reactionRepository) DisableConversation(ctx context.Context, id string, byAdmin bool) (bool, error) {
	col := "is_conversation_disabled_by_user"
	if byAdmin {
		col = "is_conversation_disabled_by_admin"
	}
	res := r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ? AND "+col+" = ?", id, false).
		Update(col, true)
	return res.RowsAffected > 0, res.Error
}
