package model

import "time"

// Reaction 帖子下的回应
type Reaction struct {
	ID                        string `gorm:"primaryKey;type:varchar(36)"`
	PostID                    string `gorm:"type:varchar(36);not null;index"`
	UserID                    string `gorm:"type:varchar(36);not null;index"`
	Message                   string `gorm:"type:text"`
	IsReactionDisabledByUser  bool   `gorm:"not null;default:false"`
	IsReactionDisabledByAdmin bool   `gorm:"not null;default:false"`
	TotalLikes                int64  `gorm:"not null;default:0"`
	TotalConversations        int64  `gorm:"not null;default:0"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

func (Reaction) TableName() string { return "reactions" }

func (r *Reaction) Disabled() bool { return r.IsReactionDisabledByUser || r.IsReactionDisabledByAdmin }

// Conversation 对 reaction 的回复
type Conversation struct {
	ID                            string `gorm:"primaryKey;type:varchar(36)"`
	ReactionID                    string `gorm:"type:varchar(36);not null;index"`
	PostID                        string `gorm:"type:varchar(36);not null;index"`
	UserID                        string `gorm:"type:varchar(36);not null"`
	Message                       string `gorm:"type:text"`
	IsConversationDisabledByUser  bool   `gorm:"not null;default:false"`
	IsConversationDisabledByAdmin bool   `gorm:"not null;default:false"`
	TotalLikes                    int64  `gorm:"not null;default:0"`
	CreatedAt                     time.Time
	UpdatedAt                     time.Time
}

func (Conversation) TableName() string { return "conversations" }

func (c *Conversation) Disabled() bool {
	return c.IsConversationDisabledByUser || c.IsConversationDisabledByAdmin
}
