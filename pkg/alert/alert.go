// Package alert 上报需要人工介入的运维告警（任务重试耗尽、5xx 等）
package alert

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/channel-feed/config"
)

type Alerter interface {
	Capture(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// Init 配置了 DSN 时返回 Sentry 实现，否则返回空实现
func Init(cfg config.SentryConfig) (Alerter, error) {
	if cfg.DSN == "" {
		return Nop{}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	}); err != nil {
		return nil, err
	}
	return &Sentry{hub: sentry.CurrentHub()}, nil
}

type Sentry struct {
	hub *sentry.Hub
}

func NewSentry(hub *sentry.Hub) *Sentry { return &Sentry{hub: hub} }

func (s *Sentry) Capture(err error, tags map[string]string) {
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		s.hub.CaptureException(err)
	})
}

func (s *Sentry) Flush(timeout time.Duration) { s.hub.Flush(timeout) }

type Nop struct{}

func (Nop) Capture(error, map[string]string) {}
func (Nop) Flush(time.Duration)              {}
