package handler

import (
	"Agora/internal/pkg/response"
	"Agora/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	postSvc service.PostService
}

func NewAdminHandler(postSvc service.PostService) *AdminHandler {
	return &AdminHandler{
		postSvc: postSvc,
	}
}

// GetStats 全站互动汇总
func (s *AdminHandler) GetStats(c *gin.Context) {
	totals, err := s.postSvc.GetTotals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, totals)
}
