// Package cache Redis 读穿缓存
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
	"github.com/d60-Lab/channel-feed/pkg/logger"
)

// missMarker 记录“该 org 没有默认频道”，避免反复穿透
const missMarker = "-"

// DefaultChannelSnapshot 读 feed 只需要的默认频道字段
type DefaultChannelSnapshot struct {
	ID    string `json:"id"`
	OrgID string `json:"org_id"`
	Title string `json:"title"`
}

// DefaultChannelCache 按 org 缓存默认频道。Redis 不可用时退化为直查库。
type DefaultChannelCache struct {
	repo  repository.ChannelRepository
	redis *redis.Client
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewDefaultChannelCache(repo repository.ChannelRepository, client *redis.Client, ttl time.Duration) *DefaultChannelCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DefaultChannelCache{repo: repo, redis: client, ttl: ttl}
}

func key(orgID string) string {
	return fmt.Sprintf("feed:default_channel:%s", orgID)
}

// Get 返回 org 的默认频道；没有时返回 nil, nil
func (c *DefaultChannelCache) Get(ctx context.Context, orgID string) (*DefaultChannelSnapshot, error) {
	if c.redis != nil {
		data, err := c.redis.Get(ctx, key(orgID)).Bytes()
		switch {
		case err == nil:
			c.hits.Add(1)
			if string(data) == missMarker {
				return nil, nil
			}
			var snap DefaultChannelSnapshot
			if uErr := json.Unmarshal(data, &snap); uErr == nil {
				return &snap, nil
			}
		case !errors.Is(err, redis.Nil):
			logger.Warn("default channel cache read failed", zap.String("org", orgID), zap.Error(err))
		}
	}
	c.misses.Add(1)

	ch, err := c.repo.FindDefault(ctx, orgID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var snap *DefaultChannelSnapshot
	payload := []byte(missMarker)
	if ch != nil {
		snap = snapshotOf(ch)
		if b, mErr := json.Marshal(snap); mErr == nil {
			payload = b
		}
	}
	if c.redis != nil {
		if sErr := c.redis.Set(ctx, key(orgID), payload, c.ttl).Err(); sErr != nil {
			logger.Warn("default channel cache write failed", zap.String("org", orgID), zap.Error(sErr))
		}
	}
	return snap, nil
}

// Invalidate 频道默认标记或删除状态变化后调用
func (c *DefaultChannelCache) Invalidate(ctx context.Context, orgID string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, key(orgID)).Err(); err != nil {
		logger.Warn("default channel cache invalidate failed", zap.String("org", orgID), zap.Error(err))
	}
}

// Stats 命中/未命中计数（采样值）
func (c *DefaultChannelCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func snapshotOf(ch *model.Channel) *DefaultChannelSnapshot {
	return &DefaultChannelSnapshot{ID: ch.ID, OrgID: ch.OrgID, Title: ch.Title}
}

// NewRedisClient 按配置创建客户端并 ping 一次
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}
