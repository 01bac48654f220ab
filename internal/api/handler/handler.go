// Package handler HTTP 适配层，只做绑定与错误映射
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/channel-feed/internal/service"
)

type Handler struct {
	userService       service.UserService
	channelService    service.ChannelService
	postService       service.PostService
	feedService       service.FeedService
	followService     service.FollowService
	engagementService service.EngagementService
	reactionService   service.ReactionService
	pollService       service.PollService
	blockService      service.BlockService
	recomputer        *service.Recomputer
}

// Services 构造 Handler 所需的全部服务
type Services struct {
	Users      service.UserService
	Channels   service.ChannelService
	Posts      service.PostService
	Feed       service.FeedService
	Follows    service.FollowService
	Engagement service.EngagementService
	Reactions  service.ReactionService
	Polls      service.PollService
	Blocks     service.BlockService
	Recomputer *service.Recomputer
}

func New(s Services) *Handler {
	return &Handler{
		userService:       s.Users,
		channelService:    s.Channels,
		postService:       s.Posts,
		feedService:       s.Feed,
		followService:     s.Follows,
		engagementService: s.Engagement,
		reactionService:   s.Reactions,
		pollService:       s.Polls,
		blockService:      s.Blocks,
		recomputer:        s.Recomputer,
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

// dateParam 解析 ?date=YYYY-MM-DD，缺省为当前时间
func dateParam(c *gin.Context) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.DateOnly, raw)
}

func boolQuery(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}
