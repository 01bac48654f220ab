// cachebench 对比默认频道解析：直查数据库 vs redis 缓存（含负缓存）
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/channel-feed/config"
	"github.com/d60-Lab/channel-feed/internal/cache"
	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
	"github.com/d60-Lab/channel-feed/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

type scenario struct {
	name  string
	cache *cache.DefaultChannelCache
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	check(database.Migrate(db))

	orgs := envInt("ORGS", 200)
	requests := envInt("REQUESTS", 20000)
	// 每 NO_DEFAULT 个 org 中有一个没有默认频道，走负缓存
	noDefault := envInt("NO_DEFAULT", 4)

	now := time.Now().UTC()
	admin := model.User{ID: uuid.NewString(), Username: "admin-" + uuid.NewString()[:8], IsAdmin: true, CreatedAt: now, UpdatedAt: now}
	check(db.Create(&admin).Error)

	orgIDs := make([]string, orgs)
	channels := make([]model.Channel, 0, orgs*3)
	for i := range orgIDs {
		orgIDs[i] = uuid.NewString()
		for j := 0; j < 3; j++ {
			channels = append(channels, model.Channel{
				ID:             uuid.NewString(),
				OrgID:          orgIDs[i],
				Title:          fmt.Sprintf("org%d-ch%d", i, j),
				CreatedBy:      admin.ID,
				DefaultChannel: i%noDefault != 0 && j == 0,
				CreatedAt:      now,
				UpdatedAt:      now.Add(time.Duration(j) * time.Second),
			})
		}
	}
	check(db.CreateInBatches(&channels, 500).Error)

	repo := repository.NewChannelRepository(db)
	rdb := must(cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))
	defer rdb.Close()
	cached := cache.NewDefaultChannelCache(repo, rdb, cfg.Redis.DefaultTTL)
	for _, org := range orgIDs {
		cached.Invalidate(ctx, org)
	}

	// 热点分布：20% 的 org 承担 80% 的请求
	rng := rand.New(rand.NewSource(42))
	hot := orgs / 5
	if hot == 0 {
		hot = 1
	}
	pick := func() string {
		if rng.Float64() < 0.8 {
			return orgIDs[rng.Intn(hot)]
		}
		return orgIDs[rng.Intn(orgs)]
	}
	seq := make([]string, requests)
	for i := range seq {
		seq[i] = pick()
	}

	for _, sc := range []scenario{
		{name: "db-only", cache: cache.NewDefaultChannelCache(repo, nil, 0)},
		{name: "redis", cache: cached},
	} {
		lat := make([]time.Duration, 0, requests)
		found := 0
		start := time.Now()
		for _, org := range seq {
			st := time.Now()
			snap, err := sc.cache.Get(ctx, org)
			check(err)
			lat = append(lat, time.Since(st))
			if snap != nil {
				found++
			}
		}
		total := time.Since(start)
		hits, misses := sc.cache.Stats()
		fmt.Printf("[%s] requests=%d found=%d total=%v qps=%.0f p50=%v p95=%v p99=%v hits=%d misses=%d\n",
			sc.name, requests, found, total, float64(requests)/total.Seconds(),
			pct(lat, 0.50), pct(lat, 0.95), pct(lat, 0.99), hits, misses)
	}
}
