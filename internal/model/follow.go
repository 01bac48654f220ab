package model

import (
	"time"
)

type FollowStatus string

const (
	FollowActive     FollowStatus = "active"
	FollowUnfollowed FollowStatus = "unfollowed"
)

// Follow 用户关注频道；取消关注只改状态，不删行
type Follow struct {
	ID        string       `gorm:"primaryKey;type:varchar(36)"`
	UserID    string       `gorm:"type:varchar(36);not null;uniqueIndex:ux_follow_user_channel"`
	ChannelID string       `gorm:"type:varchar(36);not null;uniqueIndex:ux_follow_user_channel;index:idx_follow_channel_status"`
	Status    FollowStatus `gorm:"type:varchar(16);not null;default:active;index:idx_follow_channel_status"`
	// ux_follow_user_channel = (user_id, channel_id)
	HasNewPost        bool `gorm:"not null;default:false"`
	LastPostCreatedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Follow) TableName() string { return "follows" }

func (f *Follow) Active() bool { return f.Status == FollowActive }
