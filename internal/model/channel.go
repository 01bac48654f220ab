package model

import "time"

// Channel 频道；同一 org 下 default_channel 以最近更新者为准
type Channel struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	OrgID          string `gorm:"type:varchar(36);index:idx_channel_org_default"`
	Title          string `gorm:"type:varchar(255);not null"`
	CreatedBy      string `gorm:"type:varchar(36)"`
	IsPrivate      bool   `gorm:"not null;default:false"`
	DefaultChannel bool   `gorm:"not null;default:false;index:idx_channel_org_default"`
	IsDeleted      bool   `gorm:"not null;default:false"`
	TotalFollowers int64  `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time `gorm:"index"`
}

func (Channel) TableName() string { return "channels" }
