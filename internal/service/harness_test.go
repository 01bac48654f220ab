package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/channel-feed/internal/cache"
	"github.com/d60-Lab/channel-feed/internal/event"
	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
	"github.com/d60-Lab/channel-feed/internal/testutil"
)

// recorder 记录发布的事件，并可选地转发给下游
type recorder struct {
	mu     sync.Mutex
	events []event.Event
	next   event.Publisher
}

func (r *recorder) Publish(ctx context.Context, ev event.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	if r.next != nil {
		r.next.Publish(ctx, ev)
	}
}

func (r *recorder) names() []event.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Name, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Name
	}
	return out
}

func (r *recorder) last() event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type harness struct {
	db   *gorm.DB
	seed *testutil.Seeder

	users     repository.UserRepository
	channels  repository.ChannelRepository
	posts     repository.PostRepository
	reactions repository.ReactionRepository
	follows   repository.FollowRepository
	feeds     repository.FeedRepository
	facts     repository.FactRepository
	polls     repository.PollRepository
	outbox    repository.OutboxRepository

	bus        *event.Bus
	events     *recorder
	recomputer *Recomputer
	stopRecomp func(context.Context) error
	defaults   *cache.DefaultChannelCache
	drained    bool

	postSvc       PostService
	feedSvc       FeedService
	followSvc     FollowService
	engagementSvc EngagementService
	reactionSvc   ReactionService
	pollSvc       PollService
	blockSvc      BlockService
	channelSvc    ChannelService
	fanout        *FanoutWorker
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	h := &harness{
		db:        db,
		seed:      testutil.NewSeeder(t, db),
		users:     repository.NewUserRepository(db),
		channels:  repository.NewChannelRepository(db),
		posts:     repository.NewPostRepository(db),
		reactions: repository.NewReactionRepository(db),
		follows:   repository.NewFollowRepository(db),
		feeds:     repository.NewFeedRepository(db),
		facts:     repository.NewFactRepository(db),
		polls:     repository.NewPollRepository(db),
		outbox:    repository.NewOutboxRepository(db),
	}

	h.bus = event.NewBus(256)
	h.recomputer = NewRecomputer(repository.NewCounterRepository(db), nil, RecomputeOptions{
		Workers:     4,
		QueueSize:   256,
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	})
	h.stopRecomp = h.recomputer.Start()
	h.bus.Subscribe("recompute", h.recomputer.Handle, RecomputeEvents...)
	h.events = &recorder{next: h.bus}
	t.Cleanup(func() { h.drain(t) })

	h.defaults = cache.NewDefaultChannelCache(h.channels, nil, 0)

	h.postSvc = NewPostService(h.users, h.channels, h.posts, h.reactions, h.facts, h.polls, h.events)
	h.feedSvc = NewFeedService(h.users, h.channels, h.posts, h.feeds, h.follows, h.facts, h.polls, h.defaults, 50)
	h.followSvc = NewFollowService(h.users, h.channels, h.posts, h.follows, h.events)
	h.engagementSvc = NewEngagementService(h.users, h.channels, h.posts, h.reactions, h.facts, h.events)
	h.reactionSvc = NewReactionService(h.users, h.channels, h.posts, h.reactions, h.events)
	h.pollSvc = NewPollService(h.users, h.channels, h.posts, h.polls)
	h.blockSvc = NewBlockService(h.users, repository.NewBlockRepository(db))
	h.channelSvc = NewChannelService(h.users, h.channels, h.outbox, h.defaults)
	h.fanout = NewFanoutWorker(h.outbox, h.posts, h.channels, h.feeds, nil, FanoutOptions{
		BatchSize:   2,
		ClaimLimit:  16,
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  time.Millisecond,
	})
	return h
}

// drain 关闭总线并等待所有重算任务完成；之后发布的事件会被丢弃
func (h *harness) drain(t *testing.T) {
	t.Helper()
	if h.drained {
		return
	}
	h.drained = true
	h.bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, h.stopRecomp(ctx))
}

// runFanout 处理 outbox 直到没有到期事件
func (h *harness) runFanout(t *testing.T) {
	t.Helper()
	for i := 0; i < 10; i++ {
		n, err := h.fanout.ProcessOnce(context.Background())
		require.NoError(t, err)
		if n == 0 {
			return
		}
	}
}

func (h *harness) reloadPost(t *testing.T, id string) *model.Post {
	t.Helper()
	p, err := h.posts.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func postIDs(items []*FeedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Post.ID
	}
	return out
}
