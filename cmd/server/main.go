package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/channel-feed/config"
	"github.com/d60-Lab/channel-feed/internal/api"
	"github.com/d60-Lab/channel-feed/internal/api/handler"
	"github.com/d60-Lab/channel-feed/internal/api/middleware"
	"github.com/d60-Lab/channel-feed/internal/cache"
	"github.com/d60-Lab/channel-feed/internal/event"
	"github.com/d60-Lab/channel-feed/internal/repository"
	"github.com/d60-Lab/channel-feed/internal/service"
	"github.com/d60-Lab/channel-feed/pkg/alert"
	"github.com/d60-Lab/channel-feed/pkg/database"
	"github.com/d60-Lab/channel-feed/pkg/logger"
	"github.com/d60-Lab/channel-feed/pkg/response"
	"github.com/d60-Lab/channel-feed/pkg/tracing"
)

// @title Channel Feed API
// @version 1.0
// @description 频道 feed 扇出与互动计数服务
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.JWT.Secret == "" {
		logger.L().Fatal("jwt.secret is required")
	}

	alerter, err := alert.Init(cfg.Sentry)
	if err != nil {
		logger.L().Fatal("init sentry", zap.Error(err))
	}
	defer alerter.Flush(2 * time.Second)
	response.SetAlerter(alerter)

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.L().Fatal("init tracing", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.L().Fatal("init database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.L().Fatal("migrate", zap.Error(err))
	}

	// redis 不可用时默认频道缓存退化为直查数据库
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, default channel cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	users := repository.NewUserRepository(db)
	channels := repository.NewChannelRepository(db)
	posts := repository.NewPostRepository(db)
	reactions := repository.NewReactionRepository(db)
	follows := repository.NewFollowRepository(db)
	feeds := repository.NewFeedRepository(db)
	facts := repository.NewFactRepository(db)
	polls := repository.NewPollRepository(db)
	blocks := repository.NewBlockRepository(db)
	outbox := repository.NewOutboxRepository(db)
	counters := repository.NewCounterRepository(db)

	defaults := cache.NewDefaultChannelCache(channels, rdb, cfg.Redis.DefaultTTL)

	bus := event.NewBus(cfg.Jobs.EventQueueSize)
	recomputer := service.NewRecomputer(counters, alerter, service.RecomputeOptions{
		Workers:     cfg.Jobs.RecomputeWorkers,
		QueueSize:   cfg.Jobs.RecomputeQueueSize,
		MaxAttempts: cfg.Jobs.RecomputeMaxAttempts,
		BaseBackoff: cfg.Jobs.BaseBackoff,
		MaxBackoff:  cfg.Jobs.MaxBackoff,
	})
	stopRecompute := recomputer.Start()
	bus.Subscribe("recompute", recomputer.Handle, service.RecomputeEvents...)

	var forwarder *event.KafkaForwarder
	if cfg.Kafka.Enabled {
		forwarder = event.NewKafkaForwarder(event.NewKafkaWriter(cfg.Kafka))
		bus.Subscribe("kafka", forwarder.Handle)
	}

	fanout := service.NewFanoutWorker(outbox, posts, channels, feeds, alerter, service.FanoutOptions{
		Workers:      cfg.Jobs.FanoutWorkers,
		BatchSize:    cfg.Jobs.FanoutBatchSize,
		ClaimLimit:   cfg.Jobs.FanoutClaimLimit,
		PollInterval: cfg.Jobs.FanoutPollInterval,
		MaxAttempts:  cfg.Jobs.FanoutMaxAttempts,
		BaseBackoff:  cfg.Jobs.BaseBackoff,
		MaxBackoff:   cfg.Jobs.MaxBackoff,
	})
	stopFanout := fanout.Start()

	h := handler.New(handler.Services{
		Users:      service.NewUserService(users),
		Channels:   service.NewChannelService(users, channels, outbox, defaults),
		Posts:      service.NewPostService(users, channels, posts, reactions, facts, polls, bus),
		Feed:       service.NewFeedService(users, channels, posts, feeds, follows, facts, polls, defaults, cfg.Server.MaxPageSize),
		Follows:    service.NewFollowService(users, channels, posts, follows, bus),
		Engagement: service.NewEngagementService(users, channels, posts, reactions, facts, bus),
		Reactions:  service.NewReactionService(users, channels, posts, reactions, bus),
		Polls:      service.NewPollService(users, channels, posts, polls),
		Blocks:     service.NewBlockService(users, blocks),
		Recomputer: recomputer,
	})
	router := api.NewRouter(h, api.RouterOptions{
		Mode:        cfg.Server.Mode,
		ServiceName: cfg.Tracing.ServiceName,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Swagger:     cfg.Server.Mode != "release",
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	// 先停止接收事件，再排空重算队列
	bus.Close()
	if err := stopRecompute(shutdownCtx); err != nil {
		logger.Error("recompute shutdown", zap.Error(err))
	}
	if err := stopFanout(shutdownCtx); err != nil {
		logger.Error("fanout shutdown", zap.Error(err))
	}
	if forwarder != nil {
		if err := forwarder.Close(); err != nil {
			logger.Error("kafka writer close", zap.Error(err))
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		logger.Error("database close", zap.Error(err))
	}
}
