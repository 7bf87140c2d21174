package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-works/internal/dto"
	"campus-works/internal/model"
	"campus-works/internal/repository"
	pkgerrors "campus-works/pkg/errors"
)

// ── 项目模块业务错误 ──

var (
	ErrProjectNotFound          = fmt.Errorf("项目不存在: %w", pkgerrors.ErrNotFound)
	ErrClientNotFound           = fmt.Errorf("客户不存在: %w", pkgerrors.ErrNotFound)
	ErrClientRequired           = fmt.Errorf("管理员创建项目时必须指定客户: %w", pkgerrors.ErrValidation)
	ErrInvalidBudget            = fmt.Errorf("项目预算不能为负数: %w", pkgerrors.ErrValidation)
	ErrDeadlineRequired         = fmt.Errorf("项目截止时间不能为空: %w", pkgerrors.ErrValidation)
	ErrNotProjectOwner          = fmt.Errorf("只有项目所属客户可以执行该操作: %w", pkgerrors.ErrUnauthorized)
	ErrInvalidProjectTransition = fmt.Errorf("项目当前状态不允许该操作: %w", pkgerrors.ErrInvalidTransition)
	ErrProjectHasDependents     = fmt.Errorf("项目存在团队成员或未结算付款，无法删除: %w", pkgerrors.ErrInvariantViolation)
	ErrProjectNotOpen           = fmt.Errorf("项目未开放招募: %w", pkgerrors.ErrInvariantViolation)
	ErrProjectClosed            = fmt.Errorf("项目已结束或已驳回: %w", pkgerrors.ErrInvariantViolation)
	ErrRepositoryExists         = fmt.Errorf("项目已绑定代码仓库: %w", pkgerrors.ErrInvariantViolation)
)

// projectTransitions 审批之外的项目状态迁移
var projectTransitions = map[model.ProjectStatus][]model.ProjectStatus{
	model.ProjectPendingApproval: {model.ProjectCancelled},
	model.ProjectPending:         {model.ProjectCancelled},
	model.ProjectOpen:            {model.ProjectInProgress, model.ProjectCancelled},
	model.ProjectInProgress:      {model.ProjectCompleted, model.ProjectCancelled},
}

// ProjectService 项目业务接口（含审批关口）
type ProjectService interface {
	Create(ctx context.Context, req *dto.CreateProjectRequest, callerID, callerRole string) (*dto.ProjectResponse, error)
	Get(ctx context.Context, id, callerID, callerRole string) (*dto.ProjectResponse, error)
	List(ctx context.Context, req *dto.ProjectListRequest, callerID, callerRole string) (*dto.PageResponse[dto.ProjectResponse], error)
	// Approve 开放项目并尝试建仓，建仓失败不回滚审批
	Approve(ctx context.Context, id, adminID string) (*dto.ProjectResponse, error)
	Reject(ctx context.Context, id, adminID string) (*dto.ProjectResponse, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateProjectStatusRequest, callerID, callerRole string) (*dto.ProjectResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	// ProvisionRepository 为已开放但尚无仓库的项目重新发起建仓
	ProvisionRepository(ctx context.Context, id, adminID string) (*dto.CollabSyncEventResponse, error)
}

type projectService struct {
	repo   *repository.Repository
	syncer *collabSyncService
	logger *zap.Logger
}

// NewProjectService 创建 ProjectService 实例
func NewProjectService(repo *repository.Repository, syncer *collabSyncService, logger *zap.Logger) ProjectService {
	return &projectService{repo: repo, syncer: syncer, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *projectService) Create(ctx context.Context, req *dto.CreateProjectRequest, callerID, callerRole string) (*dto.ProjectResponse, error) {
	if req.Budget.IsNegative() {
		return nil, ErrInvalidBudget
	}
	if req.Deadline.IsZero() {
		return nil, ErrDeadlineRequired
	}

	// 客户提交进入 PENDING_APPROVAL，管理员代建进入 PENDING
	clientID := callerID
	status := model.ProjectPendingApproval
	if callerRole == model.RoleAdmin {
		if req.ClientID == "" {
			return nil, ErrClientRequired
		}
		client, err := s.repo.User.GetByID(ctx, req.ClientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrClientNotFound
			}
			s.logger.Error("查询客户失败", zap.String("client_id", req.ClientID), zap.Error(err))
			return nil, err
		}
		if client.Role != model.RoleClient {
			return nil, ErrClientNotFound
		}
		clientID = client.UserID
		status = model.ProjectPending
	}

	project := &model.Project{
		ClientID:    clientID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Budget:      req.Budget.Round(2),
		Deadline:    req.Deadline,
	}
	project.StampCreated(callerID)

	if err := s.repo.Project.Create(ctx, project); err != nil {
		s.logger.Error("创建项目失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("项目已创建",
		zap.String("project_id", project.ProjectID),
		zap.String("status", string(project.Status)),
	)
	return s.reload(ctx, project)
}

// ────────────────────── Get / List ──────────────────────

func (s *projectService) Get(ctx context.Context, id, callerID, callerRole string) (*dto.ProjectResponse, error) {
	project, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == model.RoleClient && project.ClientID != callerID {
		return nil, ErrNotProjectOwner
	}
	return toProjectResponse(project), nil
}

func (s *projectService) List(ctx context.Context, req *dto.ProjectListRequest, callerID, callerRole string) (*dto.PageResponse[dto.ProjectResponse], error) {
	filters := &repository.ProjectListFilters{
		Status:   req.Status,
		ClientID: req.ClientID,
	}
	// 客户只能看到自己的项目
	if callerRole == model.RoleClient {
		filters.ClientID = callerID
	}

	_, size := req.PageQuery.Normalize()
	projects, total, err := s.repo.Project.List(ctx, filters, req.PageQuery.Offset(), size)
	if err != nil {
		s.logger.Error("列出项目失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		list = append(list, *toProjectResponse(&projects[i]))
	}
	return dto.NewPageResponse(list, total, req.PageQuery), nil
}

// ═══════════════════════════════════════════════════════════
// Approve / Reject：审批关口
// ═══════════════════════════════════════════════════════════
//
// PENDING_APPROVAL / PENDING → OPEN | REJECTED
// 审批在事务内完成；建仓事件随审批一同写入，提交后再调用外部平台。

func (s *projectService) Approve(ctx context.Context, id, adminID string) (*dto.ProjectResponse, error) {
	var (
		project *model.Project
		event   *model.CollabSyncEvent
	)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		project, err = s.decide(ctx, tx, id, adminID, model.ProjectOpen)
		if err != nil {
			return err
		}
		if project.HasRepository() {
			return nil
		}
		event, err = s.syncer.enqueueCreateRepository(ctx, tx, project, adminID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("项目已审批通过", zap.String("project_id", id), zap.String("admin_id", adminID))

	s.syncer.dispatch(ctx, event)

	// 审批已提交，重新查询失败时返回事务内的项目
	return s.reload(ctx, project)
}

func (s *projectService) Reject(ctx context.Context, id, adminID string) (*dto.ProjectResponse, error) {
	var project *model.Project

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		project, err = s.decide(ctx, tx, id, adminID, model.ProjectRejected)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("项目已驳回", zap.String("project_id", id), zap.String("admin_id", adminID))
	return toProjectResponse(project), nil
}

// decide 锁定项目并写入审批结果
func (s *projectService) decide(ctx context.Context, tx *repository.Repository, id, adminID string, to model.ProjectStatus) (*model.Project, error) {
	project, err := tx.Project.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("project_id", id), zap.Error(err))
		return nil, err
	}
	if !project.Status.AwaitingApproval() {
		return nil, ErrInvalidProjectTransition
	}

	project.Status = to
	project.AdminID = &adminID
	project.StampUpdated(adminID)
	if err := tx.Project.Update(ctx, project); err != nil {
		s.logger.Error("更新项目审批状态失败", zap.String("project_id", id), zap.Error(err))
		return nil, err
	}
	return project, nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *projectService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateProjectStatusRequest, callerID, callerRole string) (*dto.ProjectResponse, error) {
	to := model.ProjectStatus(req.Status)
	var project *model.Project

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		project, err = tx.Project.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		if callerRole == model.RoleClient && project.ClientID != callerID {
			return ErrNotProjectOwner
		}
		if !canTransitProject(project.Status, to) {
			return ErrInvalidProjectTransition
		}

		project.Status = to
		project.StampUpdated(callerID)
		return tx.Project.Update(ctx, project)
	})
	if err != nil {
		if pkgerrors.Category(err) == nil {
			s.logger.Error("更新项目状态失败", zap.String("project_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("项目状态已更新",
		zap.String("project_id", id),
		zap.String("status", string(to)),
	)
	return s.reload(ctx, project)
}

func canTransitProject(from, to model.ProjectStatus) bool {
	for _, next := range projectTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ────────────────────── Delete ──────────────────────

func (s *projectService) Delete(ctx context.Context, id, callerID string) error {
	project, err := s.getProject(ctx, id)
	if err != nil {
		return err
	}
	if project.ClientID != callerID {
		return ErrNotProjectOwner
	}

	// 存在团队成员或未结算付款时拒绝删除，不做级联
	members, err := s.repo.TeamMember.CountByProject(ctx, id)
	if err != nil {
		s.logger.Error("统计团队成员失败", zap.String("project_id", id), zap.Error(err))
		return err
	}
	pending, err := s.repo.Payment.CountPendingByProject(ctx, id)
	if err != nil {
		s.logger.Error("统计未结算付款失败", zap.String("project_id", id), zap.Error(err))
		return err
	}
	if members > 0 || pending > 0 {
		return ErrProjectHasDependents
	}

	if err := s.repo.Project.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除项目失败", zap.String("project_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("项目已删除", zap.String("project_id", id), zap.String("deleted_by", callerID))
	return nil
}

// ────────────────────── ProvisionRepository ──────────────────────

func (s *projectService) ProvisionRepository(ctx context.Context, id, adminID string) (*dto.CollabSyncEventResponse, error) {
	var event *model.CollabSyncEvent

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		project, err := tx.Project.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		if project.Status != model.ProjectOpen && project.Status != model.ProjectInProgress {
			return ErrProjectNotOpen
		}
		if project.HasRepository() {
			return ErrRepositoryExists
		}
		event, err = s.syncer.enqueueCreateRepository(ctx, tx, project, adminID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.syncer.dispatch(ctx, event)
	return toSyncEventResponse(event), nil
}

// ────────────────────── 辅助方法 ──────────────────────

func (s *projectService) getProject(ctx context.Context, id string) (*model.Project, error) {
	project, err := s.repo.Project.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("project_id", id), zap.Error(err))
		return nil, err
	}
	return project, nil
}

// reload 重新查询以带出客户信息与数据库默认值
func (s *projectService) reload(ctx context.Context, project *model.Project) (*dto.ProjectResponse, error) {
	fresh, err := s.repo.Project.GetByID(ctx, project.ProjectID)
	if err != nil {
		s.logger.Warn("重新查询项目失败，返回写入值", zap.String("project_id", project.ProjectID), zap.Error(err))
		return toProjectResponse(project), nil
	}
	return toProjectResponse(fresh), nil
}

func toProjectResponse(p *model.Project) *dto.ProjectResponse {
	return &dto.ProjectResponse{
		ID:          p.ProjectID,
		ClientID:    p.ClientID,
		Client:      toUserBrief(p.Client),
		AdminID:     deref(p.AdminID),
		Title:       p.Title,
		Description: p.Description,
		Status:      string(p.Status),
		Budget:      p.Budget.StringFixed(2),
		Deadline:    formatTime(p.Deadline),
		RepoURL:     deref(p.RepoURL),
		RepoName:    deref(p.RepoName),
		RepoOwner:   deref(p.RepoOwner),
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}
