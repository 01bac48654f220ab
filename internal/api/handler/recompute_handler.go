package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/channel-feed/internal/api/middleware"
	"github.com/d60-Lab/channel-feed/internal/repository"
	"github.com/d60-Lab/channel-feed/internal/service"
	"github.com/d60-Lab/channel-feed/pkg/response"
)

type recomputeRequest struct {
	Kind     string `json:"kind" binding:"required"`
	TargetID string `json:"target_id" binding:"required"`
	Async    bool   `json:"async"`
}

// Recompute 手动触发计数重算，仅管理员
// @Summary 重算计数
// @Tags 运维
// @Accept json
// @Produce json
// @Param request body recomputeRequest true "重算目标"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /internal/recompute [post]
func (h *Handler) Recompute(c *gin.Context) {
	var req recomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	actor, err := h.userService.Get(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !actor.IsAdmin {
		response.Error(c, service.ErrForbidden)
		return
	}
	kind := repository.CountedKind(req.Kind)
	if req.Async {
		if err := h.recomputer.Enqueue(c.Request.Context(), service.RecomputeJob{Kind: kind, TargetID: req.TargetID}); err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, gin.H{"queued": true})
		return
	}
	count, err := h.recomputer.Recompute(c.Request.Context(), kind, req.TargetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"kind": kind, "target_id": req.TargetID, "count": count})
}
