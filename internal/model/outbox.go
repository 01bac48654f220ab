package model

import "time"

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxDone       OutboxStatus = "done"
	OutboxFailed     OutboxStatus = "failed"
)

// Outbox post 创建事件，与 Post 同事务落地，由 FanoutWorker 消费
type Outbox struct {
	ID            string       `gorm:"primaryKey;type:varchar(36)"`
	PostID        string       `gorm:"type:varchar(36);uniqueIndex"`
	ChannelID     string       `gorm:"type:varchar(36);index"`
	AuthorID      string       `gorm:"type:varchar(36)"`
	Status        OutboxStatus `gorm:"type:varchar(16);index:idx_outbox_status_next"`
	NextAttemptAt time.Time    `gorm:"index:idx_outbox_status_next"`
	Attempts      int          `gorm:"not null;default:0"`
	LastError     string       `gorm:"type:text"`
	FanoutCount   int64
	ProcessedAt   *time.Time
	CreatedAt     time.Time `gorm:"index"`
}

func (Outbox) TableName() string { return "outbox" }
