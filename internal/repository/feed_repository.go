package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/channel-feed/internal/model"
)

// FeedQuery 分页读取参数；Day 为 render date 比较基准
type FeedQuery struct {
	ViewerID string
	Day      time.Time
	Offset   int
	Limit    int
}

// ChannelFeedFilter 频道 feed 的附加过滤
type ChannelFeedFilter struct {
	OwnPostsOnly       bool
	FavouritePostsOnly bool
}

type FeedRepository interface {
	// ResolveFollowers 频道活跃关注者中尚无该 post feed 项的用户，不含作者本人
	ResolveFollowers(ctx context.Context, post *model.Post) ([]string, error)
	// InsertEntries 批量写入 feed 项，已存在的跳过
	InsertEntries(ctx context.Context, userIDs []string, postID, channelID string, batchSize int) (int64, error)
	// FanOut 在一个事务内完成 resolve + insert，并标记关注者 has_new_post
	FanOut(ctx context.Context, post *model.Post, batchSize int) (int64, error)
	MarkViewed(ctx context.Context, userID, postID string) (bool, error)

	PersonalFeed(ctx context.Context, userID string, q FeedQuery) ([]*model.Post, int64, error)
	ChannelPosts(ctx context.Context, channelID string, q FeedQuery, f ChannelFeedFilter) ([]*model.Post, int64, error)
}

type feedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) FeedRepository { return &feedRepository{db: db} }

func (r *feedRepository) ResolveFollowers(ctx context.Context, post *model.Post) ([]string, error) {
	return resolveFollowers(r.db.WithContext(ctx), post)
}

func resolveFollowers(db *gorm.DB, post *model.Post) ([]string, error) {
	var ids []string
	err := db.Table("follows").
		Where("follows.channel_id = ? AND follows.status = ?", post.ChannelID, model.FollowActive).
		Where("follows.user_id <> ?", post.AuthorID).
		Where("NOT EXISTS (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Table("feed_entries").
				Select("1").
				Where("feed_entries.user_id = follows.user_id AND feed_entries.post_id = ? AND feed_entries.channel_id = ?", post.ID, post.ChannelID),
		).
		Order("follows.user_id").
		Pluck("follows.user_id", &ids).Error
	return ids, err
}

func (r *feedRepository) InsertEntries(ctx context.Context, userIDs []string, postID, channelID string, batchSize int) (int64, error) {
	return insertEntries(r.db.WithContext(ctx), userIDs, postID, channelID, batchSize)
}

func insertEntries(db *gorm.DB, userIDs []string, postID, channelID string, batchSize int) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	now := time.Now().UTC()
	records := make([]model.FeedEntry, 0, len(userIDs))
	for _, uid := range userIDs {
		records = append(records, model.FeedEntry{
			ID:        uuid.NewString(),
			UserID:    uid,
			PostID:    postID,
			ChannelID: channelID,
			Status:    model.FeedEntryVisible,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&records, batchSize)
	return res.RowsAffected, res.Error
}

func (r *feedRepository) FanOut(ctx context.Context, post *model.Post, batchSize int) (int64, error) {
	var written int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := resolveFollowers(tx, post)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if written, err = insertEntries(tx, ids, post.ID, post.ChannelID, batchSize); err != nil {
			return err
		}
		return tx.Model(&model.Follow{}).
			Where("channel_id = ? AND status = ?", post.ChannelID, model.FollowActive).
			Where("user_id IN (?)", tx.Session(&gorm.Session{NewDB: true}).
				Model(&model.FeedEntry{}).Select("user_id").Where("post_id = ?", post.ID)).
			UpdateColumns(map[string]any{
				"has_new_post": true,
				// 补扇出的旧 post 不回退 last_post_created_at
				"last_post_created_at": gorm.Expr(
					"CASE WHEN last_post_created_at IS NULL OR last_post_created_at < ? THEN ? ELSE last_post_created_at END",
					post.CreatedAt, post.CreatedAt),
			}).Error
	})
	return written, err
}

func (r *feedRepository) MarkViewed(ctx context.Context, userID, postID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.FeedEntry{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Updates(map[string]any{"viewed": true})
	return res.RowsAffected > 0, res.Error
}

// eligible 对所有读路径生效的过滤：未禁用、已到 render date、作者未被 viewer 拉黑、频道未删除
func (r *feedRepository) eligible(viewerID string, day time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Joins("JOIN channels ON channels.id = posts.channel_id").
			Where("channels.is_deleted = ?", false).
			Where("posts.is_post_disabled_by_user = ? AND posts.is_post_disabled_by_admin = ?", false, false).
			Where("(posts.post_render_date IS NULL OR posts.post_render_date <= ?)", model.Day(day))
		if viewerID != "" {
			db = db.Where("posts.author_id NOT IN (?)",
				db.Session(&gorm.Session{NewDB: true}).Model(&model.Block{}).Select("blocked_id").Where("blocker_id = ?", viewerID))
		}
		return db
	}
}

func (r *feedRepository) PersonalFeed(ctx context.Context, userID string, q FeedQuery) ([]*model.Post, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&model.Post{}).
			Joins("JOIN feed_entries ON feed_entries.post_id = posts.id AND feed_entries.channel_id = posts.channel_id").
			Where("feed_entries.user_id = ? AND feed_entries.status = ?", userID, model.FeedEntryVisible).
			Scopes(r.eligible(q.ViewerID, q.Day))
	}
	return page(base, q)
}

func (r *feedRepository) ChannelPosts(ctx context.Context, channelID string, q FeedQuery, f ChannelFeedFilter) ([]*model.Post, int64, error) {
	base := func() *gorm.DB {
		db := r.db.WithContext(ctx).
			Model(&model.Post{}).
			Where("posts.channel_id = ?", channelID).
			Scopes(r.eligible(q.ViewerID, q.Day))
		if f.OwnPostsOnly {
			db = db.Where("posts.author_id = ?", q.ViewerID)
		}
		if f.FavouritePostsOnly {
			db = db.Where("posts.id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).Model(&model.PostFavorite{}).Select("post_id").Where("user_id = ?", q.ViewerID))
		}
		return db
	}
	return page(base, q)
}

func page(base func() *gorm.DB, q FeedQuery) ([]*model.Post, int64, error) {
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []*model.Post
	if total == 0 || int64(q.Offset) >= total {
		return posts, total, nil
	}
	err := base().
		Select("posts.*").
		Order("posts.created_at DESC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&posts).Error
	return posts, total, err
}
