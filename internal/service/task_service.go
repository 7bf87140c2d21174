package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-works/internal/dto"
	"campus-works/internal/model"
	"campus-works/internal/repository"
	pkgerrors "campus-works/pkg/errors"
)

// ── 任务模块业务错误 ──

var (
	ErrTaskNotFound          = fmt.Errorf("任务不存在: %w", pkgerrors.ErrNotFound)
	ErrSubmissionNotFound    = fmt.Errorf("任务提交不存在: %w", pkgerrors.ErrNotFound)
	ErrNotTaskAssignee       = fmt.Errorf("只有任务认领人可以执行该操作: %w", pkgerrors.ErrUnauthorized)
	ErrInvalidTaskTransition = fmt.Errorf("任务当前状态不允许该操作: %w", pkgerrors.ErrInvalidTransition)
	ErrSubmissionReviewed    = fmt.Errorf("该提交已审核: %w", pkgerrors.ErrInvalidTransition)
)

// TaskService 任务业务接口
type TaskService interface {
	Create(ctx context.Context, projectID string, req *dto.CreateTaskRequest, callerID string) (*dto.TaskResponse, error)
	ListByProject(ctx context.Context, projectID string) ([]dto.TaskResponse, error)
	ListMine(ctx context.Context, studentID string) ([]dto.TaskResponse, error)
	// UpdateStatus 认领人在 TODO 与 IN_PROGRESS 之间切换
	UpdateStatus(ctx context.Context, taskID string, req *dto.UpdateTaskStatusRequest, callerID string) (*dto.TaskResponse, error)
	// SubmitWork 提交成果，任务进入 IN_REVIEW
	SubmitWork(ctx context.Context, taskID string, req *dto.SubmitWorkRequest, callerID string) (*dto.SubmissionResponse, error)
	// ReviewSubmission 审核通过则任务完成，驳回则退回 IN_PROGRESS
	ReviewSubmission(ctx context.Context, submissionID string, req *dto.ReviewSubmissionRequest, adminID string) (*dto.SubmissionResponse, error)
}

type taskService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func newTaskService(repo *repository.Repository, logger *zap.Logger) *taskService {
	return &taskService{repo: repo, logger: logger}
}

// NewTaskService 创建 TaskService 实例
func NewTaskService(repo *repository.Repository, logger *zap.Logger) TaskService {
	return newTaskService(repo, logger)
}

// claimUnassigned 将项目内全部未认领任务指派给 studentID
// 按项目整体扫描，不区分岗位；重复执行时没有可认领任务即为空操作
func (s *taskService) claimUnassigned(ctx context.Context, tx *repository.Repository, projectID, studentID string) (int64, error) {
	n, err := tx.Task.ClaimUnassigned(ctx, projectID, studentID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("已自动认领未分配任务",
			zap.String("project_id", projectID),
			zap.String("student_id", studentID),
			zap.Int64("count", n),
		)
	}
	return n, nil
}

// ────────────────────── Create ──────────────────────

func (s *taskService) Create(ctx context.Context, projectID string, req *dto.CreateTaskRequest, callerID string) (*dto.TaskResponse, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	if project.Status.IsTerminal() || project.Status == model.ProjectRejected {
		return nil, ErrProjectClosed
	}

	task := &model.Task{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TaskTodo,
		DueDate:     req.DueDate,
	}
	task.StampCreated(callerID)

	if err := s.repo.Task.Create(ctx, task); err != nil {
		s.logger.Error("创建任务失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	return toTaskResponse(task), nil
}

// ────────────────────── List ──────────────────────

func (s *taskService) ListByProject(ctx context.Context, projectID string) ([]dto.TaskResponse, error) {
	tasks, err := s.repo.Task.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("列出项目任务失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return toTaskResponses(tasks), nil
}

func (s *taskService) ListMine(ctx context.Context, studentID string) ([]dto.TaskResponse, error) {
	tasks, err := s.repo.Task.ListByAssignee(ctx, studentID)
	if err != nil {
		s.logger.Error("列出我的任务失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return toTaskResponses(tasks), nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *taskService) UpdateStatus(ctx context.Context, taskID string, req *dto.UpdateTaskStatusRequest, callerID string) (*dto.TaskResponse, error) {
	task, err := s.getOwnTask(ctx, taskID, callerID)
	if err != nil {
		return nil, err
	}

	to := model.TaskStatus(req.Status)
	switch {
	case task.Status == to:
		return toTaskResponse(task), nil
	case task.Status == model.TaskTodo && to == model.TaskInProgress,
		task.Status == model.TaskInProgress && to == model.TaskTodo:
	default:
		return nil, ErrInvalidTaskTransition
	}

	task.Status = to
	task.StampUpdated(callerID)
	if err := s.repo.Task.Update(ctx, task); err != nil {
		s.logger.Error("更新任务状态失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	return toTaskResponse(task), nil
}

// ────────────────────── SubmitWork ──────────────────────

func (s *taskService) SubmitWork(ctx context.Context, taskID string, req *dto.SubmitWorkRequest, callerID string) (*dto.SubmissionResponse, error) {
	task, err := s.getOwnTask(ctx, taskID, callerID)
	if err != nil {
		return nil, err
	}
	if task.Status != model.TaskTodo && task.Status != model.TaskInProgress {
		return nil, ErrInvalidTaskTransition
	}

	submission := &model.Submission{
		TaskID:    task.TaskID,
		StudentID: callerID,
		Content:   req.Content,
		Status:    model.SubmissionPending,
	}
	submission.StampCreated(callerID)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Submission.Create(ctx, submission); err != nil {
			return err
		}
		task.Status = model.TaskInReview
		task.StampUpdated(callerID)
		return tx.Task.Update(ctx, task)
	})
	if err != nil {
		s.logger.Error("提交任务成果失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("任务成果已提交", zap.String("task_id", taskID), zap.String("student_id", callerID))
	return toSubmissionResponse(submission), nil
}

// ────────────────────── ReviewSubmission ──────────────────────

func (s *taskService) ReviewSubmission(ctx context.Context, submissionID string, req *dto.ReviewSubmissionRequest, adminID string) (*dto.SubmissionResponse, error) {
	submission, err := s.repo.Submission.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("查询任务提交失败", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, err
	}
	if submission.Status != model.SubmissionPending {
		return nil, ErrSubmissionReviewed
	}

	approved := req.Approved != nil && *req.Approved
	now := time.Now()
	submission.Status = model.SubmissionRejected
	taskStatus := model.TaskInProgress
	if approved {
		submission.Status = model.SubmissionApproved
		taskStatus = model.TaskCompleted
	}
	submission.Feedback = req.Feedback
	submission.ReviewedAt = &now
	submission.StampUpdated(adminID)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Submission.Update(ctx, submission); err != nil {
			return err
		}
		task, err := tx.Task.GetByID(ctx, submission.TaskID)
		if err != nil {
			return err
		}
		task.Status = taskStatus
		task.StampUpdated(adminID)
		return tx.Task.Update(ctx, task)
	})
	if err != nil {
		s.logger.Error("审核任务提交失败", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("任务提交已审核",
		zap.String("submission_id", submissionID),
		zap.Bool("approved", approved),
	)
	return toSubmissionResponse(submission), nil
}

// ────────────────────── 辅助方法 ──────────────────────

func (s *taskService) getOwnTask(ctx context.Context, taskID, callerID string) (*model.Task, error) {
	task, err := s.repo.Task.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("查询任务失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	if task.AssignedTo == nil || *task.AssignedTo != callerID {
		return nil, ErrNotTaskAssignee
	}
	return task, nil
}

func toTaskResponses(tasks []model.Task) []dto.TaskResponse {
	result := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		result = append(result, *toTaskResponse(&tasks[i]))
	}
	return result
}

func toTaskResponse(t *model.Task) *dto.TaskResponse {
	return &dto.TaskResponse{
		ID:          t.TaskID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		AssignedTo:  deref(t.AssignedTo),
		Assignee:    toUserBrief(t.Assignee),
		DueDate:     formatTimePtr(t.DueDate),
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

func toSubmissionResponse(s *model.Submission) *dto.SubmissionResponse {
	return &dto.SubmissionResponse{
		ID:         s.SubmissionID,
		TaskID:     s.TaskID,
		StudentID:  s.StudentID,
		Content:    s.Content,
		Status:     string(s.Status),
		Feedback:   s.Feedback,
		ReviewedAt: formatTimePtr(s.ReviewedAt),
		CreatedAt:  formatTime(s.CreatedAt),
	}
}
