package model

import "time"

// 点赞/收藏：行存在即状态，(user, target) 复合唯一键兜底并发

type PostLike struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);not null;uniqueIndex:ux_post_like"`
	PostID    string `gorm:"type:varchar(36);not null;uniqueIndex:ux_post_like;index"`
	CreatedAt time.Time
}

func (PostLike) TableName() string { return "post_likes" }

type ReactionLike struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	UserID     string `gorm:"type:varchar(36);not null;uniqueIndex:ux_reaction_like"`
	ReactionID string `gorm:"type:varchar(36);not null;uniqueIndex:ux_reaction_like;index"`
	PostID     string `gorm:"type:varchar(36);not null"`
	CreatedAt  time.Time
}

func (ReactionLike) TableName() string { return "reaction_likes" }

type ConversationLike struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	UserID         string `gorm:"type:varchar(36);not null;uniqueIndex:ux_conversation_like"`
	ConversationID string `gorm:"type:varchar(36);not null;uniqueIndex:ux_conversation_like;index"`
	PostID         string `gorm:"type:varchar(36);not null"`
	CreatedAt      time.Time
}

func (ConversationLike) TableName() string { return "conversation_likes" }

// 收藏额外记录目标作者，供奖励/通知下游使用

type PostFavorite struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);not null;uniqueIndex:ux_post_favorite"`
	PostID    string `gorm:"type:varchar(36);not null;uniqueIndex:ux_post_favorite"`
	CreatorID string `gorm:"type:varchar(36);not null"`
	CreatedAt time.Time
}

func (PostFavorite) TableName() string { return "post_favorites" }

type ReactionFavorite struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	UserID     string `gorm:"type:varchar(36);not null;uniqueIndex:ux_reaction_favorite"`
	ReactionID string `gorm:"type:varchar(36);not null;uniqueIndex:ux_reaction_favorite"`
	PostID     string `gorm:"type:varchar(36);not null"`
	CreatorID  string `gorm:"type:varchar(36);not null"`
	CreatedAt  time.Time
}

func (ReactionFavorite) TableName() string { return "reaction_favorites" }

type ConversationFavorite struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	UserID         string `gorm:"type:varchar(36);not null;uniqueIndex:ux_conversation_favorite"`
	ConversationID string `gorm:"type:varchar(36);not null;uniqueIndex:ux_conversation_favorite"`
	PostID         string `gorm:"type:varchar(36);not null"`
	CreatorID      string `gorm:"type:varchar(36);not null"`
	CreatedAt      time.Time
}

func (ConversationFavorite) TableName() string { return "conversation_favorites" }

// Block 拉黑关系（blocker 不再看到 blocked 的内容），有方向
type Block struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	BlockerID string `gorm:"type:varchar(36);not null;uniqueIndex:ux_block_pair"`
	BlockedID string `gorm:"type:varchar(36);not null;uniqueIndex:ux_block_pair"`
	CreatedAt time.Time
}

func (Block) TableName() string { return "blocks" }
