package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-works/internal/dto"
	"campus-works/internal/service"
	"campus-works/pkg/response"
)

// ApplicationHandler 申请模块 HTTP 处理器
type ApplicationHandler struct {
	applicationSvc service.ApplicationService
}

// NewApplicationHandler 创建 ApplicationHandler
func NewApplicationHandler(applicationSvc service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationSvc: applicationSvc}
}

// SubmitApplication 学生投递岗位
// POST /api/v1/applications
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	app, err := h.applicationSvc.Submit(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.Created(c, app)
}

// UpdateApplicationStatus 审核申请
// PUT /api/v1/applications/:id/status
func (h *ApplicationHandler) UpdateApplicationStatus(c *gin.Context) {
	id, ok := mustParam(c, "id", "申请ID")
	if !ok {
		return
	}

	var req dto.UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	app, err := h.applicationSvc.UpdateStatus(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, app)
}

// ListMyApplications 学生查看自己的申请
// GET /api/v1/applications/mine
func (h *ApplicationHandler) ListMyApplications(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	apps, err := h.applicationSvc.ListMine(c.Request.Context(), studentID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.List(c, apps)
}

// ListProjectApplications 查看项目收到的申请
// GET /api/v1/projects/:id/applications
func (h *ApplicationHandler) ListProjectApplications(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	apps, err := h.applicationSvc.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.List(c, apps)
}

// handleApplicationError 统一处理申请模块业务错误
func (h *ApplicationHandler) handleApplicationError(c *gin.Context, err error) {
	var conflict *service.EngagementConflictError

	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		response.NotFound(c, 22001, "申请不存在")
	case errors.Is(err, service.ErrProfileMissing):
		response.BadRequest(c, 22002, "请先完善学生档案")
	case errors.As(err, &conflict):
		response.ConflictWithDetails(c, 22003, "学生已在进行中的项目任职", gin.H{
			"project_id":    conflict.ProjectID,
			"project_title": conflict.ProjectTitle,
		})
	case errors.Is(err, service.ErrEngagementConflict):
		response.Conflict(c, 22003, "学生已在进行中的项目任职")
	case errors.Is(err, service.ErrRoleFilled):
		response.Conflict(c, 22004, "该岗位已录用学生")
	case errors.Is(err, service.ErrDuplicateApplication):
		response.Conflict(c, 22005, "已投递过该岗位")
	case errors.Is(err, service.ErrInvalidApplicationStatus):
		response.BadRequest(c, 22006, "申请状态取值无效")
	case errors.Is(err, service.ErrInvalidApplicationTransition):
		response.Conflict(c, 22007, "申请已审核，不能变更为该状态")
	case errors.Is(err, service.ErrRoleNotFound):
		response.NotFound(c, 21001, "岗位不存在")
	case errors.Is(err, service.ErrProjectNotOpen):
		response.Conflict(c, 20009, "项目未开放招募")
	default:
		respondByCategory(c, err)
	}
}
