package model

import "time"

type PollOption struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	PostID    string `gorm:"type:varchar(36);not null;index"`
	Title     string `gorm:"type:varchar(255);not null"`
	Position  int    `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (PollOption) TableName() string { return "poll_options" }

// UserPollVote 每个用户每个投票帖仅一行，改票走 upsert
type UserPollVote struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	UserID       string `gorm:"type:varchar(36);not null;uniqueIndex:ux_poll_vote_user_post"`
	PollPostID   string `gorm:"type:varchar(36);not null;uniqueIndex:ux_poll_vote_user_post;index"`
	PollOptionID string `gorm:"type:varchar(36);not null;index"`
	IsSelected   bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserPollVote) TableName() string { return "user_poll_votes" }
