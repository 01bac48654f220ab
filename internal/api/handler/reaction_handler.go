package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/channel-feed/internal/api/middleware"
	"github.com/d60-Lab/channel-feed/pkg/response"
)

type messageRequest struct {
	Message string `json:"message" binding:"required,max=5000"`
}

// AddReaction 回应 post
// @Summary 添加回应
// @Tags 互动
// @Accept json
// @Produce json
// @Param id path string true "PostID"
// @Param request body messageRequest true "内容"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id}/reactions [post]
func (h *Handler) AddReaction(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	r, err := h.reactionService.AddReaction(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, r)
}

// DisableReaction 作者或管理员禁用回应
// @Summary 禁用回应
// @Tags 互动
// @Param id path string true "ReactionID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/reactions/{id} [delete]
func (h *Handler) DisableReaction(c *gin.Context) {
	if err := h.reactionService.DisableReaction(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// AddConversation 回复回应
// @Summary 添加回复
// @Tags 互动
// @Accept json
// @Produce json
// @Param id path string true "ReactionID"
// @Param request body messageRequest true "内容"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/reactions/{id}/conversations [post]
func (h *Handler) AddConversation(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	conv, err := h.reactionService.AddConversation(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, conv)
}

// DisableConversation 作者或管理员禁用回复
// @Summary 禁用回复
// @Tags 互动
// @Param id path string true "ConversationID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/conversations/{id} [delete]
func (h *Handler) DisableConversation(c *gin.Context) {
	if err := h.reactionService.DisableConversation(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
