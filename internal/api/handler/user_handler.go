package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/channel-feed/pkg/response"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
}

// Register 创建普通用户；管理员只能由运维直接落库
// @Summary 创建用户
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body registerRequest true "用户信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/users [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	u, err := h.userService.Register(c.Request.Context(), req.Username, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, u)
}
