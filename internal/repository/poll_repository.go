package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/channel-feed/internal/model"
)

type PollRepository interface {
	GetOption(ctx context.Context, id string) (*model.PollOption, error)
	OptionsFor(ctx context.Context, postIDs []string) (map[string][]*model.PollOption, error)
	// Upsert 以 (user_id, poll_post_id) 为冲突键写入或改票
	Upsert(ctx context.Context, userID, postID, optionID string, isSelected bool) (*model.UserPollVote, error)
	// Tally 按选项统计 is_selected 的票数
	Tally(ctx context.Context, postIDs []string) (map[string]int64, error)
	// Selections 用户在各投票帖当前选中的选项
	Selections(ctx context.Context, userID string, postIDs []string) (map[string]string, error)
}

type pollRepository struct{ db *gorm.DB }

func NewPollRepository(db *gorm.DB) PollRepository { return &pollRepository{db: db} }

func (r *pollRepository) GetOption(ctx context.Context, id string) (*model.PollOption, error) {
	var o model.PollOption
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *pollRepository) OptionsFor(ctx context.Context, postIDs []string) (map[string][]*model.PollOption, error) {
	out := make(map[string][]*model.PollOption)
	if len(postIDs) == 0 {
		return out, nil
	}
	var opts []*model.PollOption
	if err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("post_id, position").
		Find(&opts).Error; err != nil {
		return nil, err
	}
	for _, o := range opts {
		out[o.PostID] = append(out[o.PostID], o)
	}
	return out, nil
}

func (r *pollRepository) Upsert(ctx context.Context, userID, postID, optionID string, isSelected bool) (*model.UserPollVote, error) {
	now := time.Now().UTC()
	vote := &model.UserPollVote{
		ID:           uuid.NewString(),
		UserID:       userID,
		PollPostID:   postID,
		PollOptionID: optionID,
		IsSelected:   isSelected,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "poll_post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"poll_option_id", "is_selected", "updated_at"}),
	}).Create(vote).Error
	if err != nil {
		return nil, err
	}

	var stored model.UserPollVote
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND poll_post_id = ?", userID, postID).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *pollRepository) Tally(ctx context.Context, postIDs []string) (map[string]int64, error) {
	out := make(map[string]int64)
	if len(postIDs) == 0 {
		return out, nil
	}
	type row struct {
		PollOptionID string
		Votes        int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&model.UserPollVote{}).
		Select("poll_option_id, COUNT(*) AS votes").
		Where("poll_post_id IN ? AND is_selected = ?", postIDs, true).
		Group("poll_option_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, t := range rows {
		out[t.PollOptionID] = t.Votes
	}
	return out, nil
}

func (r *pollRepository) Selections(ctx context.Context, userID string, postIDs []string) (map[string]string, error) {
	out := make(map[string]string)
	if userID == "" || len(postIDs) == 0 {
		return out, nil
	}
	var votes []*model.UserPollVote
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND poll_post_id IN ? AND is_selected = ?", userID, postIDs, true).
		Find(&votes).Error; err != nil {
		return nil, err
	}
	for _, v := range votes {
		out[v.PollPostID] = v.PollOptionID
	}
	return out, nil
}

type BlockRepository interface {
	Create(ctx context.Context, blockerID, blockedID string) (bool, error)
	Delete(ctx context.Context, blockerID, blockedID string) (bool, error)
}

type blockRepository struct{ db *gorm.DB }

func NewBlockRepository(db *gorm.DB) BlockRepository { return &blockRepository{db: db} }

func (r *blockRepository) Create(ctx context.Context, blockerID, blockedID string) (bool, error) {
	b := &model.Block{ID: uuid.NewString(), BlockerID: blockerID, BlockedID: blockedID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(b)
	return res.RowsAffected > 0, res.Error
}

func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&model.Block{})
	return res.RowsAffected > 0, res.Error
}
