package service

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-works/config"
	"campus-works/internal/collab"
	"campus-works/internal/dto"
	"campus-works/internal/model"
	"campus-works/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Project     ProjectService
	Role        RoleService
	Application ApplicationService
	Team        TeamService
	Task        TaskService
	Salary      SalaryService
	CollabSync  CollabSyncService
}

// NewService 创建 Service 聚合
// 编排链路上的服务共享同一个 collabSyncService，保证同步事件在事务提交后统一派发
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	provider collab.Provider,
	logger *zap.Logger,
) *Service {
	syncer := newCollabSyncService(repo, provider, &cfg.Collab, logger)
	team := newTeamService(repo, logger)
	task := newTaskService(repo, logger)

	return &Service{
		Project:     NewProjectService(repo, syncer, logger),
		Role:        NewRoleService(repo, &cfg.Feature, logger),
		Application: NewApplicationService(repo, team, task, syncer, logger),
		Team:        team,
		Task:        task,
		Salary:      NewSalaryService(repo, logger),
		CollabSync:  syncer,
	}
}

// ── 响应转换 ──

const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{ID: u.UserID, Name: u.Name, Email: u.Email}
}

// onDuplicate 将唯一约束冲突翻译为业务错误，并发写入绕过前置检查时由约束兜底
func onDuplicate(err, sentinel error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return sentinel
	}
	return err
}
