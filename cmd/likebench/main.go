// likebench 并发点赞/取消点赞，测量写路径延迟与计数重算收敛时间
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/channel-feed/config"
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

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	check(database.Migrate(db))
	ctx := context.Background()

	n := envInt("N", 5000)
	conc := envInt("CONC", 16)
	// 每个用户先点赞，UNLIKE_EVERY 个中有一个再取消
	unlikeEvery := envInt("UNLIKE_EVERY", 3)

	userRepo := repository.NewUserRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	postRepo := repository.NewPostRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	factRepo := repository.NewFactRepository(db)
	counterRepo := repository.NewCounterRepository(db)

	now := time.Now().UTC()
	author := model.User{ID: uuid.NewString(), Username: "author-" + uuid.NewString()[:8], CreatedAt: now, UpdatedAt: now}
	check(db.Create(&author).Error)
	channel := model.Channel{ID: uuid.NewString(), OrgID: "bench", Title: "bench", CreatedBy: author.ID, CreatedAt: now, UpdatedAt: now}
	check(db.Create(&channel).Error)
	post := model.Post{ID: uuid.NewString(), ChannelID: channel.ID, AuthorID: author.ID, Message: "like me", CreatedAt: now, UpdatedAt: now}
	check(db.Create(&post).Error)

	users := make([]model.User, n)
	for i := range users {
		id := uuid.NewString()
		users[i] = model.User{ID: id, Username: "l" + id[:12], CreatedAt: now, UpdatedAt: now}
	}
	check(db.CreateInBatches(&users, 1000).Error)

	bus := event.NewBus(cfg.Jobs.EventQueueSize)
	recomputer := service.NewRecomputer(counterRepo, nil, service.RecomputeOptions{
		Workers:     cfg.Jobs.RecomputeWorkers,
		QueueSize:   cfg.Jobs.RecomputeQueueSize,
		MaxAttempts: cfg.Jobs.RecomputeMaxAttempts,
		BaseBackoff: cfg.Jobs.BaseBackoff,
		MaxBackoff:  cfg.Jobs.MaxBackoff,
	})
	stopRecompute := recomputer.Start()
	bus.Subscribe("recompute", recomputer.Handle, service.RecomputeEvents...)
	engagement := service.NewEngagementService(userRepo, channelRepo, postRepo, reactionRepo, factRepo, bus)

	var (
		recomputes []time.Duration
		recMu      sync.Mutex
		recDone    = make(chan struct{})
	)
	go func() {
		for {
			select {
			case d := <-recomputer.Metrics():
				recMu.Lock()
				recomputes = append(recomputes, d)
				recMu.Unlock()
			case <-recDone:
				return
			}
		}
	}()

	maxQ := 0
	quitSample := make(chan struct{})
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if q := recomputer.QueueLen(); q > maxQ {
					maxQ = q
				}
			case <-quitSample:
				return
			}
		}
	}()

	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	lat := make(chan time.Duration, 2*n)
	var (
		wg         sync.WaitGroup
		rejectedMu sync.Mutex
		rejectedN  int
	)
	t0 := time.Now()
	for w := 0; w < conc; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				st := time.Now()
				if err := engagement.ToggleLike(ctx, users[i].ID, service.TargetPost, post.ID, true); err != nil {
					rejectedMu.Lock()
					rejectedN++
					rejectedMu.Unlock()
				}
				lat <- time.Since(st)
				if i%unlikeEvery == 0 {
					st = time.Now()
					_ = engagement.ToggleLike(ctx, users[i].ID, service.TargetPost, post.ID, false)
					lat <- time.Since(st)
				}
			}
		}()
	}
	wg.Wait()
	writeDur := time.Since(t0)
	close(lat)
	close(quitSample)
	writes := make([]time.Duration, 0, 2*n)
	for d := range lat {
		writes = append(writes, d)
	}

	// 关闭总线后排空重算队列，此时计数应已收敛
	drainStart := time.Now()
	bus.Close()
	check(stopRecompute(context.Background()))
	drainDur := time.Since(drainStart)
	close(recDone)

	var stored model.Post
	check(db.First(&stored, "id = ?", post.ID).Error)
	want := n - (n+unlikeEvery-1)/unlikeEvery

	fmt.Printf("N=%d CONC=%d UNLIKE_EVERY=%d\n", n, conc, unlikeEvery)
	fmt.Printf("Toggle writes: ops=%d total=%v p50=%v p95=%v p99=%v rejected=%d\n",
		len(writes), writeDur, pct(writes, 0.50), pct(writes, 0.95), pct(writes, 0.99), rejectedN)
	recMu.Lock()
	fmt.Printf("Recompute runs: samples=%d p50=%v p95=%v maxQueue=%d drain=%v\n",
		len(recomputes), pct(recomputes, 0.50), pct(recomputes, 0.95), maxQ, drainDur)
	recMu.Unlock()
	fmt.Printf("total_likes stored=%d expected=%d converged=%v\n", stored.TotalLikes, want, stored.TotalLikes == int64(want))
}
