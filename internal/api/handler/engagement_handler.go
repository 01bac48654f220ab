package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/channel-feed/internal/api/middleware"
	"github.com/d60-Lab/channel-feed/internal/service"
	"github.com/d60-Lab/channel-feed/pkg/response"
)

type toggleRequest struct {
	TargetKind string `json:"target_kind" binding:"required,oneof=post reaction conversation"`
	TargetID   string `json:"target_id" binding:"required"`
	Desired    *bool  `json:"desired" binding:"required"`
}

// ToggleLike 点赞/取消点赞
// @Summary 点赞状态切换
// @Tags 互动
// @Accept json
// @Produce json
// @Param request body toggleRequest true "目标与期望状态"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/likes [put]
func (h *Handler) ToggleLike(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	err := h.engagementService.ToggleLike(c.Request.Context(), middleware.ActorID(c), service.TargetKind(req.TargetKind), req.TargetID, *req.Desired)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"liked": *req.Desired})
}

// ToggleFavorite 收藏/取消收藏
// @Summary 收藏状态切换
// @Tags 互动
// @Accept json
// @Produce json
// @Param request body toggleRequest true "目标与期望状态"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/favorites [put]
func (h *Handler) ToggleFavorite(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	err := h.engagementService.ToggleFavorite(c.Request.Context(), middleware.ActorID(c), service.TargetKind(req.TargetKind), req.TargetID, *req.Desired)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"favorited": *req.Desired})
}
