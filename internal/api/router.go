// Package api 组装 HTTP 路由
package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/channel-feed/docs"
	"github.com/d60-Lab/channel-feed/internal/api/handler"
	"github.com/d60-Lab/channel-feed/internal/api/middleware"
	"github.com/d60-Lab/channel-feed/pkg/response"
)

// RouterOptions 路由装配参数
type RouterOptions struct {
	Mode        string
	ServiceName string
	JWTSecret   string
	JWTIssuer   string
	RateLimiter *middleware.RateLimiter
	// Swagger 为 true 时挂载 /swagger
	Swagger bool
}

// NewRouter 注册全部路由
func NewRouter(h *handler.Handler, opts RouterOptions) *gin.Engine {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.AccessLog())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 注册不需要登录
	r.POST("/api/v1/users", h.Register)

	auth := middleware.Auth(opts.JWTSecret, opts.JWTIssuer)
	v1 := r.Group("/api/v1", auth)
	if opts.RateLimiter != nil {
		v1.Use(opts.RateLimiter.Middleware())
	}
	{
		v1.GET("/feed", h.Feed)

		v1.POST("/channels", h.CreateChannel)
		v1.PUT("/channels/:id/default", h.SetDefaultChannel)
		v1.DELETE("/channels/:id", h.DeleteChannel)
		v1.POST("/channels/:id/follow", h.Follow)
		v1.DELETE("/channels/:id/follow", h.Unfollow)
		v1.GET("/channels/following", h.ListFollowing)
		v1.GET("/channels/:id/feed", h.ChannelFeed)

		v1.POST("/posts", h.CreatePost)
		v1.GET("/posts/:id", h.GetPost)
		v1.PATCH("/posts/:id", h.UpdatePost)
		v1.POST("/posts/:id/view", h.MarkViewed)
		v1.POST("/posts/:id/reactions", h.AddReaction)
		v1.PUT("/posts/:id/poll-vote", h.CastPollVote)

		v1.DELETE("/reactions/:id", h.DisableReaction)
		v1.POST("/reactions/:id/conversations", h.AddConversation)
		v1.DELETE("/conversations/:id", h.DisableConversation)

		v1.PUT("/likes", h.ToggleLike)
		v1.PUT("/favorites", h.ToggleFavorite)

		v1.POST("/blocks/:user_id", h.Block)
		v1.DELETE("/blocks/:user_id", h.Unblock)
	}

	internal := r.Group("/internal", auth)
	internal.POST("/recompute", h.Recompute)

	return r
}
