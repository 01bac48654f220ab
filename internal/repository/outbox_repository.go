package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/channel-feed/internal/model"
)

type OutboxRepository interface {
	// Claim 认领到期的 pending 事件（以及租约过期的 processing 事件）
	Claim(ctx context.Context, limit int, lease time.Duration) ([]model.Outbox, error)
	MarkDone(ctx context.Context, id string, fanoutCount int64) error
	MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error
	Get(ctx context.Context, postID string) (*model.Outbox, error)
	// RequeueChannel 频道已结束的 outbox 事件重新置为 pending，返回影响行数
	RequeueChannel(ctx context.Context, channelID string) (int64, error)
}

type outboxRepository struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) OutboxRepository { return &outboxRepository{db: db} }

func (r *outboxRepository) Claim(ctx context.Context, limit int, lease time.Duration) ([]model.Outbox, error) {
	now := time.Now().UTC()
	var batch []model.Outbox
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		statuses := []model.OutboxStatus{model.OutboxPending, model.OutboxProcessing}
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Raw(`
				SELECT * FROM outbox
				WHERE status IN ? AND next_attempt_at <= ?
				ORDER BY created_at
				LIMIT ?
				FOR UPDATE SKIP LOCKED
			`, statuses, now, limit).Scan(&batch).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("status IN ? AND next_attempt_at <= ?", statuses, now).
				Order("created_at").
				Limit(limit).
				Find(&batch).Error; err != nil {
				return err
			}
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, b := range batch {
			ids[i] = b.ID
		}
		return tx.Model(&model.Outbox{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"status": model.OutboxProcessing, "next_attempt_at": now.Add(lease)}).Error
	})
	return batch, err
}

func (r *outboxRepository) MarkDone(ctx context.Context, id string, fanoutCount int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.Outbox{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxDone, "processed_at": now, "fanout_count": fanoutCount, "last_error": ""}).Error
}

func (r *outboxRepository) MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	return r.db.WithContext(ctx).Model(&model.Outbox{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxPending, "attempts": attempts, "next_attempt_at": next, "last_error": lastErr}).Error
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error {
	return r.db.WithContext(ctx).Model(&model.Outbox{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "attempts": attempts, "last_error": lastErr}).Error
}

func (r *outboxRepository) RequeueChannel(ctx context.Context, channelID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Outbox{}).
		Where("channel_id = ? AND status IN ?", channelID, []model.OutboxStatus{model.OutboxDone, model.OutboxFailed}).
		Updates(map[string]any{
			"status":          model.OutboxPending,
			"attempts":        0,
			"next_attempt_at": time.Now().UTC(),
			"last_error":      "",
			"processed_at":    nil,
		})
	return res.RowsAffected, res.Error
}

func (r *outboxRepository) Get(ctx context.Context, postID string) (*model.Outbox, error) {
	var o model.Outbox
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}
