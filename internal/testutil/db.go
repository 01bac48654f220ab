// Package testutil 提供测试用的 sqlite 内存库与种子数据
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/channel-feed/internal/model"
)

// NewDB 打开独立的共享缓存内存库。单连接：并发 goroutine 在连接池上串行，
// 事务内必须只使用 tx。
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(model.All()...); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Seeder 快速构造实体
type Seeder struct {
	tb testing.TB
	db *gorm.DB
	// 每次创建 post 递增，保证 created_at 严格有序
	clock time.Time
}

func NewSeeder(tb testing.TB, db *gorm.DB) *Seeder {
	return &Seeder{tb: tb, db: db, clock: time.Now().UTC().Add(-time.Hour).Truncate(time.Second)}
}

func (s *Seeder) DB() *gorm.DB { return s.db }

func (s *Seeder) must(err error) {
	s.tb.Helper()
	if err != nil {
		s.tb.Fatalf("seed: %v", err)
	}
}

func (s *Seeder) User(name string) *model.User {
	u := &model.User{ID: uuid.NewString(), Username: name}
	s.must(s.db.Create(u).Error)
	return u
}

func (s *Seeder) Admin(name string) *model.User {
	u := &model.User{ID: uuid.NewString(), Username: name, IsAdmin: true}
	s.must(s.db.Create(u).Error)
	return u
}

func (s *Seeder) Channel(title string) *model.Channel {
	c := &model.Channel{ID: uuid.NewString(), Title: title}
	s.must(s.db.Create(c).Error)
	return c
}

func (s *Seeder) DefaultChannel(title, orgID string) *model.Channel {
	c := &model.Channel{ID: uuid.NewString(), Title: title, OrgID: orgID, DefaultChannel: true}
	s.must(s.db.Create(c).Error)
	return c
}

func (s *Seeder) Follow(userID, channelID string) *model.Follow {
	f := &model.Follow{ID: uuid.NewString(), UserID: userID, ChannelID: channelID, Status: model.FollowActive}
	s.must(s.db.Create(f).Error)
	return f
}

func (s *Seeder) Unfollowed(userID, channelID string) *model.Follow {
	f := &model.Follow{ID: uuid.NewString(), UserID: userID, ChannelID: channelID, Status: model.FollowUnfollowed}
	s.must(s.db.Create(f).Error)
	return f
}

// Post 直接写 post（不经过 outbox），created_at 单调递增
func (s *Seeder) Post(channelID, authorID string, mutate ...func(*model.Post)) *model.Post {
	s.clock = s.clock.Add(time.Second)
	p := &model.Post{ID: uuid.NewString(), ChannelID: channelID, AuthorID: authorID, Message: "hello", CreatedAt: s.clock, UpdatedAt: s.clock}
	for _, m := range mutate {
		m(p)
	}
	s.must(s.db.Create(p).Error)
	return p
}

func (s *Seeder) Reaction(postID, userID string) *model.Reaction {
	r := &model.Reaction{ID: uuid.NewString(), PostID: postID, UserID: userID, Message: "nice"}
	s.must(s.db.Create(r).Error)
	return r
}

func (s *Seeder) Conversation(reactionID, postID, userID string) *model.Conversation {
	c := &model.Conversation{ID: uuid.NewString(), ReactionID: reactionID, PostID: postID, UserID: userID, Message: "reply"}
	s.must(s.db.Create(c).Error)
	return c
}

func (s *Seeder) FeedEntry(userID, postID, channelID string) *model.FeedEntry {
	e := &model.FeedEntry{ID: uuid.NewString(), UserID: userID, PostID: postID, ChannelID: channelID, Status: model.FeedEntryVisible}
	s.must(s.db.Create(e).Error)
	return e
}

func (s *Seeder) Block(blockerID, blockedID string) {
	s.must(s.db.Create(&model.Block{ID: uuid.NewString(), BlockerID: blockerID, BlockedID: blockedID}).Error)
}

func (s *Seeder) PollOption(postID, title string, pos int) *model.PollOption {
	o := &model.PollOption{ID: uuid.NewString(), PostID: postID, Title: title, Position: pos}
	s.must(s.db.Create(o).Error)
	return o
}
