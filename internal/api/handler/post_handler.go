package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/channel-feed/internal/api/middleware"
	"github.com/d60-Lab/channel-feed/internal/service"
	"github.com/d60-Lab/channel-feed/pkg/response"
)

type createPostRequest struct {
	ChannelID   string   `json:"channel_id" binding:"required"`
	Message     string   `json:"message" binding:"max=10000"`
	MediaURL    string   `json:"media_url" binding:"omitempty,url"`
	RenderDate  string   `json:"post_render_date" binding:"omitempty,datetime=2006-01-02"`
	PollOptions []string `json:"poll_options" binding:"omitempty,max=10,dive,required,max=255"`
}

type updatePostRequest struct {
	Message         *string `json:"message" binding:"omitempty,max=10000"`
	MediaURL        *string `json:"media_url" binding:"omitempty,url"`
	DisabledByUser  *bool   `json:"is_post_disabled_by_user"`
	DisabledByAdmin *bool   `json:"is_post_disabled_by_admin"`
	RenderDate      *string `json:"post_render_date" binding:"omitempty,datetime=2006-01-02"`
	ClearRenderDate bool    `json:"clear_post_render_date"`
}

type pollVoteRequest struct {
	OptionID   string `json:"option_id" binding:"required"`
	IsSelected *bool  `json:"is_selected"`
}

// CreatePost 发布 post；扇出异步进行
// @Summary 发布 post
// @Tags Post
// @Accept json
// @Produce json
// @Param request body createPostRequest true "post 内容"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	in := service.CreatePostInput{
		ChannelID:   req.ChannelID,
		Message:     req.Message,
		MediaURL:    req.MediaURL,
		PollOptions: req.PollOptions,
	}
	if req.RenderDate != "" {
		d, _ := time.Parse(time.DateOnly, req.RenderDate)
		in.RenderDate = &d
	}
	post, err := h.postService.Create(c.Request.Context(), middleware.ActorID(c), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// UpdatePost 编辑或禁用 post
// @Summary 更新 post
// @Tags Post
// @Accept json
// @Produce json
// @Param id path string true "PostID"
// @Param request body updatePostRequest true "更新字段"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [patch]
func (h *Handler) UpdatePost(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	in := service.UpdatePostInput{
		Message:         req.Message,
		MediaURL:        req.MediaURL,
		DisabledByUser:  req.DisabledByUser,
		DisabledByAdmin: req.DisabledByAdmin,
		ClearRenderDate: req.ClearRenderDate,
	}
	if req.RenderDate != nil {
		d, _ := time.Parse(time.DateOnly, *req.RenderDate)
		in.RenderDate = &d
	}
	post, err := h.postService.Update(c.Request.Context(), middleware.ActorID(c), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

// GetPost 按 id 查看
// @Summary 查看 post
// @Tags Post
// @Param id path string true "PostID"
// @Success 200 {object} response.Response{data=service.FeedItem}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	item, err := h.postService.Get(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// CastPollVote 投票或改票
// @Summary 投票
// @Tags Post
// @Accept json
// @Produce json
// @Param id path string true "PostID"
// @Param request body pollVoteRequest true "选项"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id}/poll-vote [put]
func (h *Handler) CastPollVote(c *gin.Context) {
	var req pollVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	selected := true
	if req.IsSelected != nil {
		selected = *req.IsSelected
	}
	vote, err := h.pollService.CastVote(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.OptionID, selected)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, vote)
}
