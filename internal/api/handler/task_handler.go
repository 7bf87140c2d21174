package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-works/internal/dto"
	"campus-works/internal/service"
	"campus-works/pkg/response"
)

// TaskHandler 任务模块 HTTP 处理器
type TaskHandler struct {
	taskSvc service.TaskService
}

// NewTaskHandler 创建 TaskHandler
func NewTaskHandler(taskSvc service.TaskService) *TaskHandler {
	return &TaskHandler{taskSvc: taskSvc}
}

// CreateTask 为项目创建任务
// POST /api/v1/projects/:id/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	task, err := h.taskSvc.Create(c.Request.Context(), projectID, &req, callerID)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.Created(c, task)
}

// ListProjectTasks 列出项目任务
// GET /api/v1/projects/:id/tasks
func (h *TaskHandler) ListProjectTasks(c *gin.Context) {
	projectID, ok := mustParam(c, "id", "项目ID")
	if !ok {
		return
	}

	tasks, err := h.taskSvc.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.List(c, tasks)
}

// ListMyTasks 学生查看自己认领的任务
// GET /api/v1/tasks/mine
func (h *TaskHandler) ListMyTasks(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tasks, err := h.taskSvc.ListMine(c.Request.Context(), studentID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.List(c, tasks)
}

// UpdateTaskStatus 认领人更新任务状态
// PUT /api/v1/tasks/:id/status
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	id, ok := mustParam(c, "id", "任务ID")
	if !ok {
		return
	}

	var req dto.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	task, err := h.taskSvc.UpdateStatus(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, task)
}

// SubmitWork 提交任务成果
// POST /api/v1/tasks/:id/submissions
func (h *TaskHandler) SubmitWork(c *gin.Context) {
	id, ok := mustParam(c, "id", "任务ID")
	if !ok {
		return
	}

	var req dto.SubmitWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sub, err := h.taskSvc.SubmitWork(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.Created(c, sub)
}

// ReviewSubmission 审核任务提交
// PUT /api/v1/submissions/:id/review
func (h *TaskHandler) ReviewSubmission(c *gin.Context) {
	id, ok := mustParam(c, "id", "提交ID")
	if !ok {
		return
	}

	var req dto.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sub, err := h.taskSvc.ReviewSubmission(c.Request.Context(), id, &req, adminID)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, sub)
}

// handleTaskError 统一处理任务模块业务错误
func (h *TaskHandler) handleTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		response.NotFound(c, 24001, "任务不存在")
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.NotFound(c, 24002, "任务提交不存在")
	case errors.Is(err, service.ErrNotTaskAssignee):
		response.Forbidden(c, 24003, "只有任务认领人可以执行该操作")
	case errors.Is(err, service.ErrInvalidTaskTransition):
		response.Conflict(c, 24004, "任务当前状态不允许该操作")
	case errors.Is(err, service.ErrSubmissionReviewed):
		response.Conflict(c, 24005, "该提交已审核")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 20001, "项目不存在")
	case errors.Is(err, service.ErrProjectClosed):
		response.Conflict(c, 20010, "项目已结束或已驳回")
	default:
		respondByCategory(c, err)
	}
}
