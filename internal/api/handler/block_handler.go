package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/channel-feed/internal/api/middleware"
	"github.com/d60-Lab/channel-feed/pkg/response"
)

// Block 拉黑用户
// @Summary 拉黑
// @Tags 用户
// @Param user_id path string true "被拉黑用户ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/blocks/{user_id} [post]
func (h *Handler) Block(c *gin.Context) {
	if err := h.blockService.Block(c.Request.Context(), middleware.ActorID(c), c.Param("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Unblock 取消拉黑
// @Summary 取消拉黑
// @Tags 用户
// @Param user_id path string true "被拉黑用户ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/blocks/{user_id} [delete]
func (h *Handler) Unblock(c *gin.Context) {
	if err := h.blockService.Unblock(c.Request.Context(), middleware.ActorID(c), c.Param("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
