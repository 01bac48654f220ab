package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/channel-feed/internal/model"
)

// Fact 描述一张“行存在即状态”的事实表
type Fact struct {
	name      string
	table     string
	targetCol string
	newRow    func(row FactRow) any
}

func (f Fact) Name() string { return f.name }

// FactRow 写入事实表所需的全部字段；不适用的字段忽略
type FactRow struct {
	UserID    string
	TargetID  string
	PostID    string
	CreatorID string
}

var (
	PostLikes = Fact{name: "post_like", table: "post_likes", targetCol: "post_id", newRow: func(r FactRow) any {
		return &model.PostLike{ID: uuid.NewString(), UserID: r.UserID, PostID: r.TargetID, CreatedAt: time.Now().UTC()}
	}}
	ReactionLikes = Fact{name: "reaction_like", table: "reaction_likes", targetCol: "reaction_id", newRow: func(r FactRow) any {
		return &model.ReactionLike{ID: uuid.NewString(), UserID: r.UserID, ReactionID: r.TargetID, PostID: r.PostID, CreatedAt: time.Now().UTC()}
	}}
	ConversationLikes = Fact{name: "conversation_like", table: "conversation_likes", targetCol: "conversation_id", newRow: func(r FactRow) any {
		return &model.ConversationLike{ID: uuid.NewString(), UserID: r.UserID, ConversationID: r.TargetID, PostID: r.PostID, CreatedAt: time.Now().UTC()}
	}}
	PostFavorites = Fact{name: "post_favorite", table: "post_favorites", targetCol: "post_id", newRow: func(r FactRow) any {
		return &model.PostFavorite{ID: uuid.NewString(), UserID: r.UserID, PostID: r.TargetID, CreatorID: r.CreatorID, CreatedAt: time.Now().UTC()}
	}}
	ReactionFavorites = Fact{name: "reaction_favorite", table: "reaction_favorites", targetCol: "reaction_id", newRow: func(r FactRow) any {
		return &model.ReactionFavorite{ID: uuid.NewString(), UserID: r.UserID, ReactionID: r.TargetID, PostID: r.PostID, CreatorID: r.CreatorID, CreatedAt: time.Now().UTC()}
	}}
	ConversationFavorites = Fact{name: "conversation_favorite", table: "conversation_favorites", targetCol: "conversation_id", newRow: func(r FactRow) any {
		return &model.ConversationFavorite{ID: uuid.NewString(), UserID: r.UserID, ConversationID: r.TargetID, PostID: r.PostID, CreatorID: r.CreatorID, CreatedAt: time.Now().UTC()}
	}}
)

type FactRepository interface {
	Exists(ctx context.Context, f Fact, userID, targetID string) (bool, error)
	// Insert 唯一键冲突时返回 false，不报错
	Insert(ctx context.Context, f Fact, row FactRow) (bool, error)
	// Delete 无行可删时返回 false
	Delete(ctx context.Context, f Fact, userID, targetID string) (bool, error)
	// Present 返回 targetIDs 中 user 已有事实行的集合
	Present(ctx context.Context, f Fact, userID string, targetIDs []string) (map[string]bool, error)
}

type factRepository struct{ db *gorm.DB }

func NewFactRepository(db *gorm.DB) FactRepository { return &factRepository{db: db} }

func (r *factRepository) Exists(ctx context.Context, f Fact, userID, targetID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Table(f.table).
		Where("user_id = ? AND "+f.targetCol+" = ?", userID, targetID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *factRepository) Insert(ctx context.Context, f Fact, row FactRow) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f.newRow(row))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *factRepository) Delete(ctx context.Context, f Fact, userID, targetID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Exec("DELETE FROM "+f.table+" WHERE user_id = ? AND "+f.targetCol+" = ?", userID, targetID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *factRepository) Present(ctx context.Context, f Fact, userID string, targetIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(targetIDs))
	if userID == "" || len(targetIDs) == 0 {
		return out, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).
		Table(f.table).
		Where("user_id = ? AND "+f.targetCol+" IN ?", userID, targetIDs).
		Pluck(f.targetCol, &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
