package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-works/internal/dto"
	"campus-works/internal/service"
	"campus-works/pkg/response"
)

// ProjectHandler 项目与岗位 HTTP 处理器
type ProjectHandler struct {
	projectSvc service.ProjectService
	roleSvc    service.RoleService
}

// NewProjectHandler 创建 ProjectHandler
func NewProjectHandler(projectSvc service.ProjectService, roleSvc service.RoleService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc, roleSvc: roleSvc}
}

// CreateProject 创建项目
// POST /api/v1/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.Create(c.Request.Context(), &req, callerID, role)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.Created(c, project)
}

// ListProjects 分页查询项目
// GET /api/v1/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	var req dto.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	page, err := h.projectSvc.List(c.Request.Context(), &req, callerID, role)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, page)
}

// GetProject 获取项目详情
// GET /api/v1/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.Get(c.Request.Context(), id, callerID, role)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// ApproveProject 审批通过项目
// PUT /api/v1/projects/:id/approve
func (h *ProjectHandler) ApproveProject(c *gin.Context) {
	id, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.Approve(c.Request.Context(), id, adminID)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// RejectProject 驳回项目
// PUT /api/v1/projects/:id/reject
func (h *ProjectHandler) RejectProject(c *gin.Context) {
	id, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.Reject(c.Request.Context(), id, adminID)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// UpdateProjectStatus 推进项目状态
// PUT /api/v1/projects/:id/status
func (h *ProjectHandler) UpdateProjectStatus(c *gin.Context) {
	id, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	var req dto.UpdateProjectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.UpdateStatus(c.Request.Context(), id, &req, callerID, role)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// DeleteProject 删除项目
// DELETE /api/v1/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.projectSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, nil)
}

// ProvisionRepository 为项目重新发起建仓
// POST /api/v1/projects/:id/repository
func (h *ProjectHandler) ProvisionRepository(c *gin.Context) {
	id, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.projectSvc.ProvisionRepository(c.Request.Context(), id, adminID)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, event)
}

// CreateRole 为项目新增岗位
// POST /api/v1/projects/:id/roles
func (h *ProjectHandler) CreateRole(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	var req dto.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	role, err := h.roleSvc.CreateRole(c.Request.Context(), projectID, &req, callerID)
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.Created(c, role)
}

// ListRoles 列出项目岗位
// GET /api/v1/projects/:id/roles
func (h *ProjectHandler) ListRoles(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	roles, err := h.roleSvc.ListRoles(c.Request.Context(), projectID)
	if err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.List(c, roles)
}

// DeleteRole 删除岗位
// DELETE /api/v1/roles/:id
func (h *ProjectHandler) DeleteRole(c *gin.Context) {
	roleID, ok := mustParam(c, "id", "岗位ID")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.roleSvc.DeleteRole(c.Request.Context(), roleID, callerID); err != nil {
		h.handleRoleError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleProjectError 统一处理项目模块业务错误
func (h *ProjectHandler) handleProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 20001, "项目不存在")
	case errors.Is(err, service.ErrClientNotFound):
		response.NotFound(c, 20002, "客户不存在")
	case errors.Is(err, service.ErrClientRequired):
		response.BadRequest(c, 20003, "管理员创建项目时必须指定客户")
	case errors.Is(err, service.ErrInvalidBudget):
		response.BadRequest(c, 20004, "项目预算不能为负数")
	case errors.Is(err, service.ErrDeadlineRequired):
		response.BadRequest(c, 20005, "项目截止时间不能为空")
	case errors.Is(err, service.ErrNotProjectOwner):
		response.Forbidden(c, 20006, "只有项目所属客户可以执行该操作")
	case errors.Is(err, service.ErrInvalidProjectTransition):
		response.Conflict(c, 20007, "项目当前状态不允许该操作")
	case errors.Is(err, service.ErrProjectHasDependents):
		response.Conflict(c, 20008, "项目存在团队成员或未结算付款，无法删除")
	case errors.Is(err, service.ErrRepositoryExists):
		response.Conflict(c, 20011, "项目已绑定代码仓库")
	default:
		respondByCategory(c, err)
	}
}

// handleRoleError 统一处理岗位模块业务错误
func (h *ProjectHandler) handleRoleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoleNotFound):
		response.NotFound(c, 21001, "岗位不存在")
	case errors.Is(err, service.ErrInvalidSalarySplit):
		response.BadRequest(c, 21002, "分成比例必须在 0-100 之间")
	case errors.Is(err, service.ErrSalarySplitExceeded):
		response.Conflict(c, 21003, "项目各岗位分成比例之和超过 100")
	case errors.Is(err, service.ErrRoleStaffed):
		response.Conflict(c, 21004, "岗位已录用学生，无法删除")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 20001, "项目不存在")
	case errors.Is(err, service.ErrProjectClosed):
		response.Conflict(c, 20010, "项目已结束或已驳回")
	default:
		respondByCategory(c, err)
	}
}
