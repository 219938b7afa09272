package handler

import (
	"Agora/internal/api/dto"
	"Agora/internal/pkg/response"
	"Agora/internal/service"
	"time"

	"github.com/gin-gonic/gin"
)

type PostActionHandler struct {
	actionSvc service.PostActionService
}

func NewPostActionHandler(actionSvc service.PostActionService) *PostActionHandler {
	return &PostActionHandler{
		actionSvc: actionSvc,
	}
}

// LikePost 点赞帖子，重复点赞视为成功
func (s *PostActionHandler) LikePost(c *gin.Context) {
	postID, ok := parseIDParam(c, "post_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")

	if err := s.actionSvc.LikePost(c.Request.Context(), userID, postID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// CancelLikePost 取消点赞，未点赞视为成功
func (s *PostActionHandler) CancelLikePost(c *gin.Context) {
	postID, ok := parseIDParam(c, "post_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")

	if err := s.actionSvc.CancelLikePost(c.Request.Context(), userID, postID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// TrackView 上报浏览，匿名访问不计数
func (s *PostActionHandler) TrackView(c *gin.Context) {
	postID, ok := parseIDParam(c, "post_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")

	counted, err := s.actionSvc.TrackPostView(c.Request.Context(), userID, postID, time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ViewResultDTO{Counted: counted})
}

func (s *PostActionHandler) GetPostStats(c *gin.Context) {
	postID, ok := parseIDParam(c, "post_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	stats, err := s.actionSvc.GetPostStats(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// GetPostActionState 计数与当前用户的点赞状态
func (s *PostActionHandler) GetPostActionState(c *gin.Context) {
	postID, ok := parseIDParam(c, "post_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID := c.GetUint64("user_id")

	state, err := s.actionSvc.GetActionState(c.Request.Context(), userID, postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, state)
}

func (s *PostActionHandler) GetLikedPosts(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var page dto.PageReq
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, err)
		return
	}

	ids, err := s.actionSvc.GetLikedPostIDs(c.Request.Context(), userID, page.Page, page.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ids)
}
