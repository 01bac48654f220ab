// feedbench 压测发布 -> outbox -> 扇出 -> feed 读取的整条链路
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/channel-feed/config"
	"github.com/d60-Lab/channel-feed/internal/cache"
	"github.com/d60-Lab/channel-feed/internal/event"
	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
	"github.com/d60-Lab/channel-feed/internal/service"
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

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	check(database.Migrate(db))
	ctx := context.Background()

	n := envInt("N", 20000)
	posts := envInt("POSTS", 100)
	workers := envInt("WORKERS", cfg.Jobs.FanoutWorkers)
	batch := envInt("BATCH", cfg.Jobs.FanoutBatchSize)
	claim := envInt("CLAIM", cfg.Jobs.FanoutClaimLimit)
	page := envInt("PAGE", 50)

	// 本地压测可复现
	if cfg.Database.Driver == "postgres" {
		_ = db.Exec("TRUNCATE TABLE feed_entries, outbox, poll_options, posts, follows, channels, users CASCADE").Error
	}

	userRepo := repository.NewUserRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	postRepo := repository.NewPostRepository(db)
	followRepo := repository.NewFollowRepository(db)
	feedRepo := repository.NewFeedRepository(db)
	factRepo := repository.NewFactRepository(db)
	pollRepo := repository.NewPollRepository(db)

	now := time.Now().UTC()
	author := model.User{ID: uuid.NewString(), Username: "author-" + uuid.NewString()[:8], CreatedAt: now, UpdatedAt: now}
	check(db.Create(&author).Error)
	channel := model.Channel{ID: uuid.NewString(), OrgID: "bench", Title: "bench", CreatedBy: author.ID, CreatedAt: now, UpdatedAt: now}
	check(db.Create(&channel).Error)

	readers := make([]model.User, n)
	for i := range readers {
		id := uuid.NewString()
		readers[i] = model.User{ID: id, Username: "r" + id[:12], CreatedAt: now, UpdatedAt: now}
	}
	check(db.CreateInBatches(&readers, 1000).Error)
	follows := make([]model.Follow, n)
	for i := range follows {
		follows[i] = model.Follow{ID: uuid.NewString(), UserID: readers[i].ID, ChannelID: channel.ID, Status: model.FollowActive, CreatedAt: now, UpdatedAt: now}
	}
	check(db.CreateInBatches(&follows, 1000).Error)

	bus := event.NewBus(cfg.Jobs.EventQueueSize)
	defer bus.Close()
	postSvc := service.NewPostService(userRepo, channelRepo, postRepo, repository.NewReactionRepository(db), factRepo, pollRepo, bus)
	feedSvc := service.NewFeedService(userRepo, channelRepo, postRepo, feedRepo, followRepo, factRepo, pollRepo,
		cache.NewDefaultChannelCache(channelRepo, nil, 0), cfg.Server.MaxPageSize)

	worker := service.NewFanoutWorker(repository.NewOutboxRepository(db), postRepo, channelRepo, feedRepo, nil, service.FanoutOptions{
		Workers:      workers,
		BatchSize:    batch,
		ClaimLimit:   claim,
		PollInterval: 20 * time.Millisecond,
	})
	stop := worker.Start()
	defer func() { _ = stop(context.Background()) }()

	publish := make([]time.Duration, 0, posts)
	for i := 0; i < posts; i++ {
		st := time.Now()
		_, err := postSvc.Create(ctx, author.ID, service.CreatePostInput{ChannelID: channel.ID, Message: fmt.Sprintf("hello %d", i)})
		if err != nil {
			panic(err)
		}
		publish = append(publish, time.Since(st))
	}

	land := make([]time.Duration, 0, posts)
	timeout := time.After(2 * time.Minute)
collect:
	for len(land) < posts {
		select {
		case d := <-worker.Metrics():
			land = append(land, d)
		case <-timeout:
			fmt.Printf("timeout while waiting for fanout: got=%d want=%d\n", len(land), posts)
			break collect
		}
	}

	fmt.Printf("N=%d POSTS=%d WORKERS=%d BATCH=%d CLAIM=%d\n", n, posts, workers, batch, claim)
	fmt.Printf("Publish (post+outbox tx): avg=%v p95=%v p99=%v\n", avg(publish), pct(publish, 0.95), pct(publish, 0.99))
	fmt.Printf("Fanout landing (outbox->done): samples=%d avg=%v p95=%v p99=%v\n", len(land), avg(land), pct(land, 0.95), pct(land, 0.99))

	reads := make([]time.Duration, 0, 20)
	for i := 0; i < 20 && i < n; i++ {
		st := time.Now()
		res, err := feedSvc.GetFeed(ctx, readers[i].ID, "bench", now, 1, page)
		if err != nil {
			panic(err)
		}
		reads = append(reads, time.Since(st))
		if i == 0 {
			fmt.Printf("Feed page(reader0, limit=%d): items=%d has_more=%v\n", page, len(res.Items), res.HasMore)
		}
	}
	fmt.Printf("Feed read: avg=%v p95=%v\n", avg(reads), pct(reads, 0.95))
}
