package model

import "time"

type FeedEntryStatus string

const (
	FeedEntryVisible FeedEntryStatus = "visible"
	FeedEntryHidden  FeedEntryStatus = "hidden"
)

// FeedEntry 个人时间线项，由 fan-out 写入，永不物理删除
type FeedEntry struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)"`
	UserID    string          `gorm:"type:varchar(36);not null;uniqueIndex:ux_feed_user_post_channel;index:idx_feed_user_status"`
	PostID    string          `gorm:"type:varchar(36);not null;uniqueIndex:ux_feed_user_post_channel;index:idx_feed_post"`
	ChannelID string          `gorm:"type:varchar(36);not null;uniqueIndex:ux_feed_user_post_channel"`
	Status    FeedEntryStatus `gorm:"type:varchar(16);not null;default:visible;index:idx_feed_user_status"`
	Viewed    bool            `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FeedEntry) TableName() string { return "feed_entries" }
