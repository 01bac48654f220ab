package event

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/channel-feed/pkg/logger"
)

// Handler 处理一条事件；返回的错误只记录日志
type Handler func(ctx context.Context, ev Event) error

// Publisher 领域服务依赖的发布接口
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

type subscription struct {
	name    string
	names   map[Name]struct{}
	handler Handler
	ch      chan Event
}

func (s *subscription) wants(n Name) bool {
	if len(s.names) == 0 {
		return true
	}
	_, ok := s.names[n]
	return ok
}

// Bus 进程内事件总线：每个订阅者独立的缓冲队列 + 一个消费 goroutine
type Bus struct {
	mu        sync.RWMutex
	subs      []*subscription
	queueSize int
	closed    bool
	wg        sync.WaitGroup
	timeout   time.Duration
}

func NewBus(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Bus{queueSize: queueSize, timeout: 10 * time.Second}
}

// Subscribe 注册订阅者；names 为空表示订阅全部事件
func (b *Bus) Subscribe(name string, handler Handler, names ...Name) {
	sub := &subscription{name: name, handler: handler, ch: make(chan Event, b.queueSize), names: make(map[Name]struct{}, len(names))}
	for _, n := range names {
		sub.names[n] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.subs = append(b.subs, sub)
	b.wg.Add(1)
	go b.consume(sub)
}

func (b *Bus) consume(sub *subscription) {
	defer b.wg.Done()
	for ev := range sub.ch {
		// 与请求生命周期解耦
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		if err := sub.handler(ctx, ev); err != nil {
			logger.Warn("event handler failed",
				zap.String("subscriber", sub.name),
				zap.String("event", string(ev.Name)),
				zap.String("target", ev.TargetID),
				zap.Error(err))
		}
		cancel()
	}
}

// Publish 投递到所有匹配的订阅者。队列满时阻塞（背压），总线关闭后丢弃。
func (b *Bus) Publish(_ context.Context, ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		logger.Warn("event bus closed, drop event", zap.String("event", string(ev.Name)), zap.String("target", ev.TargetID))
		return
	}
	for _, sub := range b.subs {
		if sub.wants(ev.Name) {
			sub.ch <- ev
		}
	}
}

// Close 停止接收新事件，并等待已入队事件处理完毕
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.mu.Unlock()
	b.wg.Wait()
}
