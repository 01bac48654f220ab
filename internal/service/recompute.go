package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/channel-feed/internal/event"
	"github.com/d60-Lab/channel-feed/internal/repository"
	"github.com/d60-Lab/channel-feed/pkg/alert"
	"github.com/d60-Lab/channel-feed/pkg/logger"
)

var ErrRecomputerStopped = errors.New("recomputer stopped")

// RecomputeJob 一次计数重算请求
type RecomputeJob struct {
	Kind     repository.CountedKind
	TargetID string
}

// RecomputeOptions 重算执行器参数
type RecomputeOptions struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Recomputer 异步计数重算。同一 (kind, target) 固定落在同一个 shard；
// 排队中的重复请求合并为一次，出队后再来的请求会重新排队。
type Recomputer struct {
	counters repository.CounterRepository
	alerter  alert.Alerter
	opts     RecomputeOptions

	shards []chan RecomputeJob

	pendingMu sync.Mutex
	pending   map[RecomputeJob]struct{}

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	metrics chan time.Duration
}

func NewRecomputer(counters repository.CounterRepository, alerter alert.Alerter, opts RecomputeOptions) *Recomputer {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 10000
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 100 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 5 * time.Second
	}
	if alerter == nil {
		alerter = alert.Nop{}
	}
	shards := make([]chan RecomputeJob, opts.Workers)
	perShard := opts.QueueSize / opts.Workers
	if perShard < 1 {
		perShard = 1
	}
	for i := range shards {
		shards[i] = make(chan RecomputeJob, perShard)
	}
	return &Recomputer{
		counters: counters,
		alerter:  alerter,
		opts:     opts,
		shards:   shards,
		pending:  make(map[RecomputeJob]struct{}),
		metrics:  make(chan time.Duration, 65536),
	}
}

// Start 启动每个 shard 的 worker；返回的停止函数会排空队列后返回
func (r *Recomputer) Start() func(context.Context) error {
	for _, ch := range r.shards {
		r.wg.Add(1)
		go r.loop(ch)
	}
	return r.stop
}

func (r *Recomputer) stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		for _, ch := range r.shards {
			close(ch)
		}
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recomputer) shard(job RecomputeJob) chan RecomputeJob {
	h := fnv.New32a()
	_, _ = h.Write([]byte(job.Kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(job.TargetID))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

// Enqueue 投递重算任务。队列满时阻塞直到有空位或 ctx 结束。
func (r *Recomputer) Enqueue(ctx context.Context, job RecomputeJob) error {
	if !job.Kind.Valid() || job.TargetID == "" {
		return invalidArg("recompute job %q/%q", job.Kind, job.TargetID)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return ErrRecomputerStopped
	}

	r.pendingMu.Lock()
	if _, ok := r.pending[job]; ok {
		r.pendingMu.Unlock()
		return nil
	}
	r.pending[job] = struct{}{}
	r.pendingMu.Unlock()

	select {
	case r.shard(job) <- job:
		return nil
	case <-ctx.Done():
		r.pendingMu.Lock()
		delete(r.pending, job)
		r.pendingMu.Unlock()
		return ctx.Err()
	}
}

func (r *Recomputer) loop(ch <-chan RecomputeJob) {
	defer r.wg.Done()
	for job := range ch {
		// 先出 pending 再执行：执行期间到达的新请求会再排一次
		r.pendingMu.Lock()
		delete(r.pending, job)
		r.pendingMu.Unlock()

		start := time.Now()
		r.run(job)
		select {
		case r.metrics <- time.Since(start):
		default:
		}
	}
}

func (r *Recomputer) run(job RecomputeJob) {
	var err error
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err = r.Recompute(ctx, job.Kind, job.TargetID)
		cancel()
		if err == nil {
			return
		}
		if attempt < r.opts.MaxAttempts {
			logger.Warn("recompute failed, retrying",
				zap.String("kind", string(job.Kind)),
				zap.String("target", job.TargetID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			time.Sleep(backoff(r.opts.BaseBackoff, r.opts.MaxBackoff, attempt))
		}
	}
	logger.Error("recompute exhausted retries",
		zap.String("kind", string(job.Kind)),
		zap.String("target", job.TargetID),
		zap.Int("attempts", r.opts.MaxAttempts),
		zap.Error(err))
	r.alerter.Capture(fmt.Errorf("recompute %s/%s: %w", job.Kind, job.TargetID, err), map[string]string{
		"job":    "recompute",
		"kind":   string(job.Kind),
		"target": job.TargetID,
	})
}

// Recompute 同步重算；目标不存在时是 no-op
func (r *Recomputer) Recompute(ctx context.Context, kind repository.CountedKind, targetID string) (int64, error) {
	if !kind.Valid() {
		return 0, invalidArg("unknown counted kind %q", kind)
	}
	if targetID == "" {
		return 0, invalidArg("empty target id")
	}
	count, found, err := r.counters.Recompute(ctx, kind, targetID)
	if err != nil {
		return 0, err
	}
	if !found {
		logger.Info("recompute target missing", zap.String("kind", string(kind)), zap.String("target", targetID))
		return 0, nil
	}
	return count, nil
}

// JobFor 领域事件到重算任务的映射；收藏没有计数列
func JobFor(ev event.Event) (RecomputeJob, bool) {
	switch ev.Name {
	case event.PostLiked, event.PostUnliked:
		return RecomputeJob{Kind: repository.CountPostLikes, TargetID: ev.TargetID}, true
	case event.ReactionLiked, event.ReactionUnliked:
		return RecomputeJob{Kind: repository.CountReactionLikes, TargetID: ev.TargetID}, true
	case event.ConversationLiked, event.ConversationUnliked:
		return RecomputeJob{Kind: repository.CountConversationLikes, TargetID: ev.TargetID}, true
	case event.ReactionAdded, event.ReactionDisabled:
		return RecomputeJob{Kind: repository.CountPostReactions, TargetID: ev.PostID}, true
	case event.ConversationAdded, event.ConversationDisabled:
		return RecomputeJob{Kind: repository.CountReactionConversations, TargetID: ev.ReactionID}, true
	case event.ChannelFollowed, event.ChannelUnfollowed:
		return RecomputeJob{Kind: repository.CountChannelFollowers, TargetID: ev.TargetID}, true
	}
	return RecomputeJob{}, false
}

// RecomputeEvents 触发重算的事件集合，用于订阅
var RecomputeEvents = []event.Name{
	event.PostLiked, event.PostUnliked,
	event.ReactionLiked, event.ReactionUnliked,
	event.ConversationLiked, event.ConversationUnliked,
	event.ReactionAdded, event.ReactionDisabled,
	event.ConversationAdded, event.ConversationDisabled,
	event.ChannelFollowed, event.ChannelUnfollowed,
}

// Handle 作为事件总线订阅者
func (r *Recomputer) Handle(ctx context.Context, ev event.Event) error {
	job, ok := JobFor(ev)
	if !ok {
		return nil
	}
	return r.Enqueue(ctx, job)
}

// Metrics 每个任务的执行耗时（采样）
func (r *Recomputer) Metrics() <-chan time.Duration { return r.metrics }

// QueueLen 所有 shard 的排队长度（采样值）
func (r *Recomputer) QueueLen() int {
	n := 0
	for _, ch := range r.shards {
		n += len(ch)
	}
	return n
}

func backoff(base, ceiling time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	return d
}
