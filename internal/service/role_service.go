package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-works/config"
	"campus-works/internal/dto"
	"campus-works/internal/model"
	"campus-works/internal/repository"
	pkgerrors "campus-works/pkg/errors"
)

// ── 岗位模块业务错误 ──

var (
	ErrRoleNotFound        = fmt.Errorf("岗位不存在: %w", pkgerrors.ErrNotFound)
	ErrInvalidSalarySplit  = fmt.Errorf("分成比例必须在 0-100 之间: %w", pkgerrors.ErrValidation)
	ErrSalarySplitExceeded = fmt.Errorf("项目各岗位分成比例之和超过 100: %w", pkgerrors.ErrInvariantViolation)
	ErrRoleStaffed         = fmt.Errorf("岗位已录用学生，无法删除: %w", pkgerrors.ErrInvariantViolation)
)

var hundred = decimal.NewFromInt(100)

// RoleService 岗位业务接口
type RoleService interface {
	CreateRole(ctx context.Context, projectID string, req *dto.CreateRoleRequest, callerID string) (*dto.RoleResponse, error)
	// ListRoles 列出项目岗位及录用情况
	ListRoles(ctx context.Context, projectID string) ([]dto.RoleResponse, error)
	DeleteRole(ctx context.Context, roleID, callerID string) error
}

type roleService struct {
	repo    *repository.Repository
	feature *config.FeatureConfig
	logger  *zap.Logger
}

// NewRoleService 创建 RoleService 实例
func NewRoleService(repo *repository.Repository, feature *config.FeatureConfig, logger *zap.Logger) RoleService {
	return &roleService{repo: repo, feature: feature, logger: logger}
}

// ────────────────────── CreateRole ──────────────────────

func (s *roleService) CreateRole(ctx context.Context, projectID string, req *dto.CreateRoleRequest, callerID string) (*dto.RoleResponse, error) {
	split := req.SalarySplit
	if split.IsNegative() || split.GreaterThan(hundred) {
		return nil, ErrInvalidSalarySplit
	}

	role := &model.ProjectRole{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		SalarySplit: split.Round(2),
	}
	role.StampCreated(callerID)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 锁定项目行，串行化同一项目的岗位创建，分成比例求和才有意义
		project, err := tx.Project.GetByIDForUpdate(ctx, projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		if project.Status.IsTerminal() || project.Status == model.ProjectRejected {
			return ErrProjectClosed
		}

		if s.feature != nil && s.feature.StrictSalarySplit {
			sum, err := tx.ProjectRole.SumSalarySplit(ctx, projectID)
			if err != nil {
				return err
			}
			if sum.Add(role.SalarySplit).GreaterThan(hundred) {
				return ErrSalarySplitExceeded
			}
		}

		return tx.ProjectRole.Create(ctx, role)
	})
	if err != nil {
		if pkgerrors.Category(err) == nil {
			s.logger.Error("创建岗位失败", zap.String("project_id", projectID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("岗位已创建",
		zap.String("project_id", projectID),
		zap.String("role_id", role.RoleID),
		zap.String("salary_split", role.SalarySplit.String()),
	)
	return toRoleResponse(role, nil), nil
}

// ────────────────────── ListRoles ──────────────────────

func (s *roleService) ListRoles(ctx context.Context, projectID string) ([]dto.RoleResponse, error) {
	if _, err := s.repo.Project.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	roles, err := s.repo.ProjectRole.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("列出岗位失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	// 一次查询项目全部申请，避免逐岗位查询
	apps, err := s.repo.Application.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("列出项目申请失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	accepted := make(map[string]*model.User, len(roles))
	for i := range apps {
		if apps[i].Status == model.ApplicationAccepted {
			accepted[apps[i].RoleID] = apps[i].Student
		}
	}

	result := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		student, filled := accepted[roles[i].RoleID]
		resp := toRoleResponse(&roles[i], student)
		resp.Filled = filled
		result = append(result, *resp)
	}
	return result, nil
}

// ────────────────────── DeleteRole ──────────────────────

func (s *roleService) DeleteRole(ctx context.Context, roleID, callerID string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.ProjectRole.GetByIDForUpdate(ctx, roleID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return err
		}

		count, err := tx.Application.CountAcceptedByRole(ctx, roleID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrRoleStaffed
		}

		// 管理员直接加入的成员没有录用申请，同样占用岗位
		members, err := tx.TeamMember.CountByRole(ctx, roleID)
		if err != nil {
			return err
		}
		if members > 0 {
			return ErrRoleStaffed
		}

		return tx.ProjectRole.Delete(ctx, roleID)
	})
	if err != nil {
		if pkgerrors.Category(err) == nil {
			s.logger.Error("删除岗位失败", zap.String("role_id", roleID), zap.Error(err))
		}
		return err
	}

	s.logger.Info("岗位已删除", zap.String("role_id", roleID), zap.String("deleted_by", callerID))
	return nil
}

func toRoleResponse(r *model.ProjectRole, student *model.User) *dto.RoleResponse {
	return &dto.RoleResponse{
		ID:              r.RoleID,
		ProjectID:       r.ProjectID,
		Name:            r.Name,
		Description:     r.Description,
		SalarySplit:     r.SalarySplit.StringFixed(2),
		Filled:          student != nil,
		AcceptedStudent: toUserBrief(student),
		CreatedAt:       formatTime(r.CreatedAt),
	}
}
