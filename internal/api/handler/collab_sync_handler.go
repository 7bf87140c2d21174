package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-works/internal/dto"
	"campus-works/internal/service"
	"campus-works/pkg/response"
)

// CollabSyncHandler 协作同步事件 HTTP 处理器
type CollabSyncHandler struct {
	syncSvc service.CollabSyncService
}

// NewCollabSyncHandler 创建 CollabSyncHandler
func NewCollabSyncHandler(syncSvc service.CollabSyncService) *CollabSyncHandler {
	return &CollabSyncHandler{syncSvc: syncSvc}
}

// ListEvents 查看项目的同步事件
// GET /api/v1/projects/:id/sync-events
func (h *CollabSyncHandler) ListEvents(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	events, err := h.syncSvc.ListEvents(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			response.NotFound(c, 20001, "项目不存在")
			return
		}
		respondByCategory(c, err)
		return
	}

	response.List(c, events)
}

// RetryFailed 重新派发失败的同步事件
// POST /api/v1/sync-events/retry
func (h *CollabSyncHandler) RetryFailed(c *gin.Context) {
	var req dto.RetrySyncRequest
	// 请求体可为空
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	result, err := h.syncSvc.RetryFailed(c.Request.Context(), &req)
	if err != nil {
		respondByCategory(c, err)
		return
	}

	response.OK(c, result)
}
