package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/channel-feed/internal/api/middleware"
	"github.com/d60-Lab/channel-feed/internal/service"
	"github.com/d60-Lab/channel-feed/pkg/response"
)

type createChannelRequest struct {
	OrgID     string `json:"org_id" binding:"required"`
	Title     string `json:"title" binding:"required,max=255"`
	IsPrivate bool   `json:"is_private"`
	Default   bool   `json:"default_channel"`
}

type setDefaultRequest struct {
	Default *bool `json:"default_channel" binding:"required"`
}

// CreateChannel 创建频道
// @Summary 创建频道
// @Tags 频道
// @Accept json
// @Produce json
// @Param request body createChannelRequest true "频道信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/channels [post]
func (h *Handler) CreateChannel(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	ch, err := h.channelService.Create(c.Request.Context(), middleware.ActorID(c), service.CreateChannelInput{
		OrgID:     req.OrgID,
		Title:     req.Title,
		IsPrivate: req.IsPrivate,
		Default:   req.Default,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ch)
}

// SetDefaultChannel 设置/取消默认频道（管理员）
// @Summary 设置默认频道
// @Tags 频道
// @Accept json
// @Produce json
// @Param id path string true "频道ID"
// @Param request body setDefaultRequest true "是否默认"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/channels/{id}/default [put]
func (h *Handler) SetDefaultChannel(c *gin.Context) {
	var req setDefaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	ch, err := h.channelService.SetDefault(c.Request.Context(), middleware.ActorID(c), c.Param("id"), *req.Default)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ch)
}

// DeleteChannel 软删除频道
// @Summary 删除频道
// @Tags 频道
// @Param id path string true "频道ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/channels/{id} [delete]
func (h *Handler) DeleteChannel(c *gin.Context) {
	if err := h.channelService.Delete(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Follow 关注频道
// @Summary 关注频道
// @Tags 频道
// @Param id path string true "频道ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/channels/{id}/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	if err := h.followService.SetFollow(c.Request.Context(), middleware.ActorID(c), c.Param("id"), true); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Unfollow 取消关注频道，已分发的 feed 项被隐藏而非删除
// @Summary 取消关注频道
// @Tags 频道
// @Param id path string true "频道ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/channels/{id}/follow [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	if err := h.followService.SetFollow(c.Request.Context(), middleware.ActorID(c), c.Param("id"), false); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ListFollowing 当前用户关注的频道
// @Summary 关注的频道列表
// @Tags 频道
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/channels/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.followService.ListFollowing(c.Request.Context(), middleware.ActorID(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ChannelFeed 频道内 post 列表
// @Summary 频道 feed
// @Tags Feed
// @Param id path string true "频道ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Param date query string false "基准日期 YYYY-MM-DD"
// @Param show_own_posts query bool false "只看自己的"
// @Param show_favourite_posts query bool false "只看收藏的"
// @Success 200 {object} response.Response{data=service.FeedPage}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/channels/{id}/feed [get]
func (h *Handler) ChannelFeed(c *gin.Context) {
	date, err := dateParam(c)
	if err != nil {
		response.BadRequest(c, "date must be YYYY-MM-DD")
		return
	}
	page, limit := pageParams(c)
	res, err := h.feedService.GetChannelFeed(c.Request.Context(), c.Param("id"), middleware.ActorID(c), date, page, limit, service.ChannelFeedFilters{
		ShowOwnPosts:       boolQuery(c, "show_own_posts"),
		ShowFavouritePosts: boolQuery(c, "show_favourite_posts"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
