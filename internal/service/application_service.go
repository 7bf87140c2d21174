package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-works/internal/dto"
	"campus-works/internal/metrics"
	"campus-works/internal/model"
	"campus-works/internal/repository"
	pkgerrors "campus-works/pkg/errors"
)

// ── 申请模块业务错误 ──

var (
	ErrApplicationNotFound          = fmt.Errorf("申请不存在: %w", pkgerrors.ErrNotFound)
	ErrProfileMissing               = fmt.Errorf("请先完善学生档案: %w", pkgerrors.ErrValidation)
	ErrEngagementConflict           = fmt.Errorf("学生已在进行中的项目任职: %w", pkgerrors.ErrInvariantViolation)
	ErrRoleFilled                   = fmt.Errorf("该岗位已录用学生: %w", pkgerrors.ErrInvariantViolation)
	ErrDuplicateApplication         = fmt.Errorf("已投递过该岗位: %w", pkgerrors.ErrInvariantViolation)
	ErrInvalidApplicationStatus     = fmt.Errorf("申请状态取值无效: %w", pkgerrors.ErrValidation)
	ErrInvalidApplicationTransition = fmt.Errorf("申请已审核，不能变更为该状态: %w", pkgerrors.ErrInvalidTransition)
)

// EngagementConflictError 学生已被进行中的项目占用，携带占用方项目信息
type EngagementConflictError struct {
	ProjectID    string
	ProjectTitle string
}

func (e *EngagementConflictError) Error() string {
	return fmt.Sprintf("学生已在进行中的项目「%s」(%s) 任职", e.ProjectTitle, e.ProjectID)
}

func (e *EngagementConflictError) Unwrap() error { return ErrEngagementConflict }

// ApplicationService 申请业务接口
type ApplicationService interface {
	// Submit 投递申请，依次校验：学生档案 → 进行中任职 → 岗位已满 → 重复投递
	Submit(ctx context.Context, studentID string, req *dto.SubmitApplicationRequest) (*dto.ApplicationResponse, error)
	// UpdateStatus 审核申请；录用时在同一事务内完成组队与任务认领，协作同步在提交后进行
	UpdateStatus(ctx context.Context, applicationID string, req *dto.UpdateApplicationStatusRequest, callerID string) (*dto.ApplicationResponse, error)
	ListMine(ctx context.Context, studentID string) ([]dto.ApplicationResponse, error)
	ListByProject(ctx context.Context, projectID string) ([]dto.ApplicationResponse, error)
}

type applicationService struct {
	repo   *repository.Repository
	team   *teamService
	task   *taskService
	syncer *collabSyncService
	logger *zap.Logger
}

// NewApplicationService 创建 ApplicationService 实例
func NewApplicationService(
	repo *repository.Repository,
	team *teamService,
	task *taskService,
	syncer *collabSyncService,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{repo: repo, team: team, task: task, syncer: syncer, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Submit：投递申请
// ═══════════════════════════════════════════════════════════
//
// 锁顺序：学生档案 → 岗位。同一学生的并发投递在档案行上串行，
// 同一岗位的投递与录用在岗位行上串行，四项校验与插入读到一致快照。
// 项目招募状态在四项校验之后判断，已有任职的学生总是先收到任职冲突。

func (s *applicationService) Submit(ctx context.Context, studentID string, req *dto.SubmitApplicationRequest) (*dto.ApplicationResponse, error) {
	var app *model.Application

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 1. 学生档案
		if _, err := tx.StudentProfile.LockByUserID(ctx, studentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileMissing
			}
			return err
		}

		role, err := tx.ProjectRole.GetByIDForUpdate(ctx, req.RoleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return err
		}

		// 2. 进行中任职
		if err := s.checkEngagement(ctx, tx, studentID); err != nil {
			return err
		}

		// 3. 岗位已满
		if err := s.checkRoleVacant(ctx, tx, role.RoleID, ""); err != nil {
			return err
		}

		// 4. 重复投递
		if _, err := tx.Application.FindByStudentAndRole(ctx, studentID, role.RoleID); err == nil {
			return ErrDuplicateApplication
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 招募状态不参与上述先后顺序，四项校验全部通过后再判断
		if !recruiting(role.Project) {
			return ErrProjectNotOpen
		}

		app = &model.Application{
			StudentID: studentID,
			RoleID:    role.RoleID,
			Status:    model.ApplicationPending,
			Notes:     req.Notes,
		}
		app.StampCreated(studentID)
		if err := tx.Application.Create(ctx, app); err != nil {
			return onDuplicate(err, ErrDuplicateApplication)
		}
		app.Role = role
		return nil
	})
	metrics.ApplicationsSubmitted.WithLabelValues(submitResult(err)).Inc()
	if err != nil {
		if pkgerrors.Category(err) == nil {
			s.logger.Error("投递申请失败",
				zap.String("student_id", studentID),
				zap.String("role_id", req.RoleID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("申请已投递",
		zap.String("application_id", app.ApplicationID),
		zap.String("student_id", studentID),
		zap.String("role_id", app.RoleID),
	)
	return toApplicationResponse(app), nil
}

// checkEngagement 学生在未结束项目中已有录用则拒绝
func (s *applicationService) checkEngagement(ctx context.Context, tx *repository.Repository, studentID string) error {
	active, err := tx.Application.FindActiveEngagement(ctx, studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	conflict := &EngagementConflictError{}
	if active.Role != nil && active.Role.Project != nil {
		conflict.ProjectID = active.Role.Project.ProjectID
		conflict.ProjectTitle = active.Role.Project.Title
	}
	return conflict
}

// checkRoleVacant 岗位上已有其他录用则拒绝，selfID 为当前申请自身
func (s *applicationService) checkRoleVacant(ctx context.Context, tx *repository.Repository, roleID, selfID string) error {
	accepted, err := tx.Application.FindAcceptedByRole(ctx, roleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if accepted.ApplicationID == selfID {
		return nil
	}
	return ErrRoleFilled
}

// ═══════════════════════════════════════════════════════════
// UpdateStatus：审核申请
// ═══════════════════════════════════════════════════════════
//
// 状态机：PENDING → ACCEPTED | REJECTED，已审核状态不再迁移。
// 对同一状态重复提交视为幂等：重复录用会再次执行组队与认领步骤，但不会产生新的成员行。
//
// 录用事务内依次执行：
//   1. 更新申请状态
//   2. ensureTeam
//   3. ensureMembership
//   4. 写入协作者同步事件（项目已有仓库且学生绑定了协作账号时）
//   5. claimUnassigned
// 事务提交后派发协作同步，失败只记录日志，录用结果不受影响。

func (s *applicationService) UpdateStatus(ctx context.Context, applicationID string, req *dto.UpdateApplicationStatusRequest, callerID string) (*dto.ApplicationResponse, error) {
	to := model.ApplicationStatus(req.Status)
	if to != model.ApplicationAccepted && to != model.ApplicationRejected {
		return nil, ErrInvalidApplicationStatus
	}

	// 锁之前先读一次，拿到学生与岗位 ID 以便按固定顺序加锁
	current, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		s.logger.Error("查询申请失败", zap.String("application_id", applicationID), zap.Error(err))
		return nil, err
	}

	var event *model.CollabSyncEvent
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var profile *model.StudentProfile
		if to == model.ApplicationAccepted {
			var err error
			if profile, err = tx.StudentProfile.LockByUserID(ctx, current.StudentID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProfileMissing
				}
				return err
			}
			if _, err := tx.ProjectRole.GetByIDForUpdate(ctx, current.RoleID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrRoleNotFound
				}
				return err
			}
		}

		app, err := tx.Application.GetByIDForUpdate(ctx, applicationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}

		if app.Status != model.ApplicationPending && app.Status != to {
			return ErrInvalidApplicationTransition
		}
		if app.Role == nil || app.Role.Project == nil {
			return ErrRoleNotFound
		}

		project := app.Role.Project
		firstAcceptance := to == model.ApplicationAccepted && app.Status == model.ApplicationPending
		if firstAcceptance {
			// 投递之后状态可能已变化，录用前重新校验
			if !recruiting(project) {
				return ErrProjectNotOpen
			}
			if err := s.checkRoleVacant(ctx, tx, app.RoleID, app.ApplicationID); err != nil {
				return err
			}
			if err := s.checkEngagement(ctx, tx, app.StudentID); err != nil {
				return err
			}
		}

		if err := tx.Application.UpdateStatus(ctx, app.ApplicationID, to, callerID); err != nil {
			return onDuplicate(err, ErrRoleFilled)
		}
		if to != model.ApplicationAccepted {
			return nil
		}

		team, err := s.team.ensureTeam(ctx, tx, project.ProjectID, project.Title)
		if err != nil {
			return err
		}
		if _, err := s.team.ensureMembership(ctx, tx, team.TeamID, app.StudentID, app.RoleID); err != nil {
			return err
		}

		if project.HasRepository() && profile.CollabHandle() != "" {
			event, err = s.syncer.enqueueAddCollaborator(ctx, tx, project, app.StudentID, profile.CollabHandle(), callerID)
			if err != nil {
				return err
			}
		}

		_, err = s.task.claimUnassigned(ctx, tx, project.ProjectID, app.StudentID)
		return err
	})
	if err != nil {
		if pkgerrors.Category(err) == nil {
			s.logger.Error("审核申请失败",
				zap.String("application_id", applicationID),
				zap.String("status", string(to)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	metrics.ApplicationTransitions.WithLabelValues(string(to)).Inc()
	s.logger.Info("申请状态已更新",
		zap.String("application_id", applicationID),
		zap.String("status", string(to)),
		zap.String("operator", callerID),
	)

	s.syncer.dispatch(ctx, event)

	app, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		s.logger.Warn("重新查询申请失败", zap.String("application_id", applicationID), zap.Error(err))
		current.Status = to
		return toApplicationResponse(current), nil
	}
	return toApplicationResponse(app), nil
}

// ────────────────────── List ──────────────────────

func (s *applicationService) ListMine(ctx context.Context, studentID string) ([]dto.ApplicationResponse, error) {
	apps, err := s.repo.Application.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("列出我的申请失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return toApplicationResponses(apps), nil
}

func (s *applicationService) ListByProject(ctx context.Context, projectID string) ([]dto.ApplicationResponse, error) {
	if _, err := s.repo.Project.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	apps, err := s.repo.Application.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("列出项目申请失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return toApplicationResponses(apps), nil
}

// ────────────────────── 辅助方法 ──────────────────────

// recruiting 只有 OPEN / IN_PROGRESS 的项目接受投递与录用
func recruiting(p *model.Project) bool {
	return p != nil && (p.Status == model.ProjectOpen || p.Status == model.ProjectInProgress)
}

func submitResult(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, ErrProfileMissing):
		return "profile_missing"
	case errors.Is(err, ErrEngagementConflict):
		return "engagement_conflict"
	case errors.Is(err, ErrRoleFilled):
		return "role_filled"
	case errors.Is(err, ErrDuplicateApplication):
		return "duplicate"
	default:
		return "error"
	}
}

func toApplicationResponses(apps []model.Application) []dto.ApplicationResponse {
	result := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		result = append(result, *toApplicationResponse(&apps[i]))
	}
	return result
}

func toApplicationResponse(a *model.Application) *dto.ApplicationResponse {
	resp := &dto.ApplicationResponse{
		ID:        a.ApplicationID,
		StudentID: a.StudentID,
		Student:   toUserBrief(a.Student),
		RoleID:    a.RoleID,
		Status:    string(a.Status),
		Notes:     a.Notes,
		CreatedAt: formatTime(a.CreatedAt),
		UpdatedAt: formatTime(a.UpdatedAt),
	}
	if a.Role != nil {
		resp.RoleName = a.Role.Name
		resp.ProjectID = a.Role.ProjectID
		if a.Role.Project != nil {
			resp.ProjectTitle = a.Role.Project.Title
		}
	}
	return resp
}
