package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/channel-feed/internal/model"
)

// CountedKind 选择被重算的反范式计数列
type CountedKind string

const (
	CountPostLikes             CountedKind = "post_likes"
	CountPostReactions         CountedKind = "post_reactions"
	CountReactionLikes         CountedKind = "reaction_likes"
	CountReactionConversations CountedKind = "reaction_conversations"
	CountConversationLikes     CountedKind = "conversation_likes"
	CountChannelFollowers      CountedKind = "channel_followers"
)

type counterSpec struct {
	parent    func() any
	column    string
	factTable string
	parentCol string
	predicate string
	args      []any
}

var counterSpecs = map[CountedKind]counterSpec{
	CountPostLikes: {parent: func() any { return &model.Post{} }, column: "total_likes", factTable: "post_likes", parentCol: "post_id"},
	CountPostReactions: {parent: func() any { return &model.Post{} }, column: "total_reactions", factTable: "reactions", parentCol: "post_id",
		predicate: "is_reaction_disabled_by_user = ? AND is_reaction_disabled_by_admin = ?", args: []any{false, false}},
	CountReactionLikes: {parent: func() any { return &model.Reaction{} }, column: "total_likes", factTable: "reaction_likes", parentCol: "reaction_id"},
	CountReactionConversations: {parent: func() any { return &model.Reaction{} }, column: "total_conversations", factTable: "conversations", parentCol: "reaction_id",
		predicate: "is_conversation_disabled_by_user = ? AND is_conversation_disabled_by_admin = ?", args: []any{false, false}},
	CountConversationLikes: {parent: func() any { return &model.Conversation{} }, column: "total_likes", factTable: "conversation_likes", parentCol: "conversation_id"},
	CountChannelFollowers: {parent: func() any { return &model.Channel{} }, column: "total_followers", factTable: "follows", parentCol: "channel_id",
		predicate: "status = ?", args: []any{model.FollowActive}},
}

// Valid 判断 kind 是否受支持
func (k CountedKind) Valid() bool {
	_, ok := counterSpecs[k]
	return ok
}

type CounterRepository interface {
	// Recompute 以事实表当前状态重算计数并写回；目标不存在时 found=false
	Recompute(ctx context.Context, kind CountedKind, targetID string) (count int64, found bool, err error)
}

type counterRepository struct{ db *gorm.DB }

func NewCounterRepository(db *gorm.DB) CounterRepository { return &counterRepository{db: db} }

func (r *counterRepository) Recompute(ctx context.Context, kind CountedKind, targetID string) (int64, bool, error) {
	spec, ok := counterSpecs[kind]
	if !ok {
		return 0, false, fmt.Errorf("unknown counted kind %q", kind)
	}

	// 单条 UPDATE ... SET col = (SELECT COUNT(*) ...)，计数与写回在同一语句内完成
	sub := r.db.Table(spec.factTable).Select("COUNT(*)").Where(spec.parentCol+" = ?", targetID)
	if spec.predicate != "" {
		sub = sub.Where(spec.predicate, spec.args...)
	}
	res := r.db.WithContext(ctx).
		Model(spec.parent()).
		Where("id = ?", targetID).
		UpdateColumn(spec.column, sub)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(spec.parent()).
		Select(spec.column).
		Where("id = ?", targetID).
		Row().Scan(&count); err != nil {
		return 0, true, err
	}
	return count, true, nil
}
