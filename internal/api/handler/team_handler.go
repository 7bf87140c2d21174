package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-works/internal/dto"
	"campus-works/internal/service"
	"campus-works/pkg/response"
)

// TeamHandler 团队模块 HTTP 处理器
type TeamHandler struct {
	teamSvc service.TeamService
}

// NewTeamHandler 创建 TeamHandler
func NewTeamHandler(teamSvc service.TeamService) *TeamHandler {
	return &TeamHandler{teamSvc: teamSvc}
}

// GetTeam 获取项目团队及成员
// GET /api/v1/projects/:id/team
func (h *TeamHandler) GetTeam(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	team, err := h.teamSvc.GetTeam(c.Request.Context(), projectID)
	if err != nil {
		h.handleTeamError(c, err)
		return
	}

	response.OK(c, team)
}

// EnsureTeam 初始化项目团队（幂等）
// POST /api/v1/projects/:id/team
func (h *TeamHandler) EnsureTeam(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	team, err := h.teamSvc.EnsureTeam(c.Request.Context(), projectID)
	if err != nil {
		h.handleTeamError(c, err)
		return
	}

	response.OK(c, team)
}

// AddMember 管理员手动添加成员
// POST /api/v1/projects/:id/team/members
func (h *TeamHandler) AddMember(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	member, err := h.teamSvc.AddMember(c.Request.Context(), projectID, &req)
	if err != nil {
		h.handleTeamError(c, err)
		return
	}

	response.Created(c, member)
}

// RemoveMember 移除团队成员
// DELETE /api/v1/projects/:id/team/members/:student_id
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}
	studentID, ok := mustParam(c, "student_id", "学生ID")
	if !ok {
		return
	}

	if err := h.teamSvc.RemoveMember(c.Request.Context(), projectID, studentID); err != nil {
		h.handleTeamError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleTeamError 统一处理团队模块业务错误
func (h *TeamHandler) handleTeamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTeamNotFound):
		response.NotFound(c, 23001, "项目团队不存在")
	case errors.Is(err, service.ErrMemberNotFound):
		response.NotFound(c, 23002, "团队成员不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 23003, "学生不存在")
	case errors.Is(err, service.ErrRoleNotInProject):
		response.BadRequest(c, 23004, "岗位不属于该项目")
	case errors.Is(err, service.ErrRoleAlreadyStaffed):
		response.Conflict(c, 23005, "该岗位已由其他学生担任")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 20001, "项目不存在")
	case errors.Is(err, service.ErrRoleNotFound):
		response.NotFound(c, 21001, "岗位不存在")
	default:
		respondByCategory(c, err)
	}
}
