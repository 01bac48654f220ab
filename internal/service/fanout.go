package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/channel-feed/internal/model"
	"github.com/d60-Lab/channel-feed/internal/repository"
	"github.com/d60-Lab/channel-feed/pkg/alert"
	"github.com/d60-Lab/channel-feed/pkg/logger"
)

// FanoutOptions fan-out worker 参数
type FanoutOptions struct {
	Workers      int
	BatchSize    int
	ClaimLimit   int
	PollInterval time.Duration
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	// Lease 认领后未完成的事件在租约到期后可被重新认领
	Lease time.Duration
}

// FanoutWorker 从 outbox 拉取 post 创建事件并写入关注者的 feed
type FanoutWorker struct {
	outbox   repository.OutboxRepository
	posts    repository.PostRepository
	channels repository.ChannelRepository
	feeds    repository.FeedRepository
	alerter  alert.Alerter
	opts     FanoutOptions

	metricsCh chan time.Duration // outbox->processed latency
}

func NewFanoutWorker(
	outbox repository.OutboxRepository,
	posts repository.PostRepository,
	channels repository.ChannelRepository,
	feeds repository.FeedRepository,
	alerter alert.Alerter,
	opts FanoutOptions,
) *FanoutWorker {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.ClaimLimit <= 0 {
		opts.ClaimLimit = 128
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
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
	if opts.Lease <= 0 {
		opts.Lease = time.Minute
	}
	if alerter == nil {
		alerter = alert.Nop{}
	}
	return &FanoutWorker{
		outbox:    outbox,
		posts:     posts,
		channels:  channels,
		feeds:     feeds,
		alerter:   alerter,
		opts:      opts,
		metricsCh: make(chan time.Duration, 65536),
	}
}

func (w *FanoutWorker) Metrics() <-chan time.Duration { return w.metricsCh }

// Start 启动若干 worker 轮询处理 outbox；返回停止函数，等待进行中的批次结束
func (w *FanoutWorker) Start() func(context.Context) error {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < w.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(stop)
		}()
	}
	return func(ctx context.Context) error {
		close(stop)
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *FanoutWorker) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := w.ProcessOnce(context.Background()); err != nil {
				logger.Warn("fanout claim failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce 认领一批到期事件并逐条扇出，返回处理条数
func (w *FanoutWorker) ProcessOnce(ctx context.Context) (int, error) {
	batch, err := w.outbox.Claim(ctx, w.opts.ClaimLimit, w.opts.Lease)
	if err != nil {
		return 0, err
	}
	for i := range batch {
		w.handle(ctx, &batch[i])
	}
	return len(batch), nil
}

func (w *FanoutWorker) handle(ctx context.Context, ob *model.Outbox) {
	written, err := w.fanOut(ctx, ob)
	if err == nil {
		if mErr := w.outbox.MarkDone(ctx, ob.ID, written); mErr != nil {
			// 租约到期后会被重新认领，重复扇出是幂等的
			logger.Warn("fanout mark done failed", zap.String("post", ob.PostID), zap.Error(mErr))
			return
		}
		select {
		case w.metricsCh <- time.Since(ob.CreatedAt):
		default:
		}
		return
	}

	attempts := ob.Attempts + 1
	if attempts >= w.opts.MaxAttempts {
		logger.Error("fanout exhausted retries",
			zap.String("post", ob.PostID),
			zap.String("channel", ob.ChannelID),
			zap.Int("attempts", attempts),
			zap.Error(err))
		w.alerter.Capture(fmt.Errorf("fanout post %s: %w", ob.PostID, err), map[string]string{
			"job":     "fanout",
			"post":    ob.PostID,
			"channel": ob.ChannelID,
		})
		if mErr := w.outbox.MarkFailed(ctx, ob.ID, attempts, err.Error()); mErr != nil {
			logger.Warn("fanout mark failed failed", zap.String("post", ob.PostID), zap.Error(mErr))
		}
		return
	}

	next := time.Now().UTC().Add(backoff(w.opts.BaseBackoff, w.opts.MaxBackoff, attempts))
	logger.Warn("fanout failed, rescheduled",
		zap.String("post", ob.PostID),
		zap.Int("attempt", attempts),
		zap.Time("next", next),
		zap.Error(err))
	if mErr := w.outbox.MarkRetry(ctx, ob.ID, attempts, next, err.Error()); mErr != nil {
		logger.Warn("fanout mark retry failed", zap.String("post", ob.PostID), zap.Error(mErr))
	}
}

func (w *FanoutWorker) fanOut(ctx context.Context, ob *model.Outbox) (int64, error) {
	post, err := w.posts.Get(ctx, ob.PostID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("fanout post missing", zap.String("post", ob.PostID))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	channel, err := w.channels.Get(ctx, post.ChannelID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("fanout channel missing", zap.String("post", post.ID), zap.String("channel", post.ChannelID))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	// 默认频道对所有人读时可见，不做扇出
	if channel.DefaultChannel || channel.IsDeleted {
		return 0, nil
	}

	written, err := w.feeds.FanOut(ctx, post, w.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	if written == 0 {
		logger.Info("fanout found no eligible followers", zap.String("post", post.ID), zap.String("channel", post.ChannelID))
	}
	return written, nil
}
