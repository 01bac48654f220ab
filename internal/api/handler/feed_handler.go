package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/channel-feed/internal/api/middleware"
	"github.com/d60-Lab/channel-feed/pkg/response"
)

// Feed 个人 feed 与默认频道合并
// @Summary 个人 feed
// @Tags Feed
// @Param org_id query string true "组织ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Param date query string false "基准日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=service.FeedPage}
// @Failure 400 {object} response.Response
// @Router /api/v1/feed [get]
func (h *Handler) Feed(c *gin.Context) {
	orgID := c.Query("org_id")
	if orgID == "" {
		response.BadRequest(c, "org_id is required")
		return
	}
	date, err := dateParam(c)
	if err != nil {
		response.BadRequest(c, "date must be YYYY-MM-DD")
		return
	}
	page, limit := pageParams(c)
	res, err := h.feedService.GetFeed(c.Request.Context(), middleware.ActorID(c), orgID, date, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// MarkViewed 标记 feed 项已读
// @Summary 标记已读
// @Tags Feed
// @Param id path string true "PostID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id}/view [post]
func (h *Handler) MarkViewed(c *gin.Context) {
	if err := h.feedService.MarkViewed(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
