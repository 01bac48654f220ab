package model

import "time"

// Post 频道内容；total_* 由计数重算任务独占写入
type Post struct {
	ID                    string `gorm:"primaryKey;type:varchar(36)"`
	ChannelID             string `gorm:"type:varchar(36);not null;index:idx_post_channel_created"`
	AuthorID              string `gorm:"type:varchar(36);not null;index:idx_post_author"`
	Message               string `gorm:"type:text"`
	MediaURL              string `gorm:"type:varchar(1024)"`
	HasPoll               bool   `gorm:"not null;default:false"`
	IsPostDisabledByUser  bool   `gorm:"not null;default:false"`
	IsPostDisabledByAdmin bool   `gorm:"not null;default:false"`
	// nil: 作者发布，立即可见；非 nil: 管理员定时发布，当天起可见
	PostRenderDate *time.Time `gorm:"index"`
	TotalLikes     int64      `gorm:"not null;default:0"`
	TotalReactions int64      `gorm:"not null;default:0"`
	CreatedAt      time.Time  `gorm:"index:idx_post_channel_created"`
	UpdatedAt      time.Time
}

func (Post) TableName() string { return "posts" }

func (p *Post) Disabled() bool { return p.IsPostDisabledByUser || p.IsPostDisabledByAdmin }

// RenderableOn 判断在给定日期是否已到可见时间
func (p *Post) RenderableOn(day time.Time) bool {
	return p.PostRenderDate == nil || !p.PostRenderDate.After(Day(day))
}

// Day 截断到 UTC 零点，render date 的比较粒度
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
