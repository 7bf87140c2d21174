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

// ── 团队模块业务错误 ──

var (
	ErrTeamNotFound       = fmt.Errorf("项目团队不存在: %w", pkgerrors.ErrNotFound)
	ErrMemberNotFound     = fmt.Errorf("团队成员不存在: %w", pkgerrors.ErrNotFound)
	ErrStudentNotFound    = fmt.Errorf("学生不存在: %w", pkgerrors.ErrNotFound)
	ErrRoleNotInProject   = fmt.Errorf("岗位不属于该项目: %w", pkgerrors.ErrValidation)
	ErrRoleAlreadyStaffed = fmt.Errorf("该岗位已由其他学生担任: %w", pkgerrors.ErrInvariantViolation)
)

// TeamService 团队业务接口
// 团队在首次录用时惰性创建，也可由管理员显式初始化
type TeamService interface {
	EnsureTeam(ctx context.Context, projectID string) (*dto.TeamResponse, error)
	GetTeam(ctx context.Context, projectID string) (*dto.TeamResponse, error)
	AddMember(ctx context.Context, projectID string, req *dto.AddMemberRequest) (*dto.TeamMemberResponse, error)
	RemoveMember(ctx context.Context, projectID, studentID string) error
}

type teamService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func newTeamService(repo *repository.Repository, logger *zap.Logger) *teamService {
	return &teamService{repo: repo, logger: logger}
}

// NewTeamService 创建 TeamService 实例
func NewTeamService(repo *repository.Repository, logger *zap.Logger) TeamService {
	return newTeamService(repo, logger)
}

// ────────────────────── 事务内步骤 ──────────────────────

// ensureTeam 返回项目团队，不存在时创建；并发创建依赖 project_id 唯一约束收敛为同一行
func (s *teamService) ensureTeam(ctx context.Context, tx *repository.Repository, projectID, name string) (*model.Team, error) {
	team, err := tx.Team.GetByProject(ctx, projectID)
	if err == nil {
		return team, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := tx.Team.CreateIfAbsent(ctx, &model.Team{ProjectID: projectID, Name: name}); err != nil {
		return nil, err
	}
	return tx.Team.GetByProject(ctx, projectID)
}

// ensureMembership 幂等地建立 (团队, 学生, 岗位) 成员关系
// 岗位已被其他学生占用时返回 ErrRoleAlreadyStaffed
func (s *teamService) ensureMembership(ctx context.Context, tx *repository.Repository, teamID, studentID, roleID string) (*model.TeamMember, error) {
	existing, err := tx.TeamMember.FindByTeamAndRole(ctx, teamID, roleID)
	if err == nil {
		if existing.StudentID == studentID {
			return existing, nil
		}
		return nil, ErrRoleAlreadyStaffed
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member := &model.TeamMember{
		TeamID:    teamID,
		StudentID: studentID,
		RoleID:    roleID,
	}
	if err := tx.TeamMember.Create(ctx, member); err != nil {
		return nil, onDuplicate(err, ErrRoleAlreadyStaffed)
	}
	return member, nil
}

// ────────────────────── EnsureTeam ──────────────────────

func (s *teamService) EnsureTeam(ctx context.Context, projectID string) (*dto.TeamResponse, error) {
	var team *model.Team

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		project, err := tx.Project.GetByID(ctx, projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		team, err = s.ensureTeam(ctx, tx, project.ProjectID, project.Title)
		return err
	})
	if err != nil {
		if pkgerrors.Category(err) == nil {
			s.logger.Error("初始化团队失败", zap.String("project_id", projectID), zap.Error(err))
		}
		return nil, err
	}

	return toTeamResponse(team), nil
}

// ────────────────────── GetTeam ──────────────────────

func (s *teamService) GetTeam(ctx context.Context, projectID string) (*dto.TeamResponse, error) {
	team, err := s.repo.Team.GetByProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		s.logger.Error("查询团队失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return toTeamResponse(team), nil
}

// ────────────────────── AddMember ──────────────────────

func (s *teamService) AddMember(ctx context.Context, projectID string, req *dto.AddMemberRequest) (*dto.TeamMemberResponse, error) {
	student, err := s.repo.User.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if student.Role != model.RoleStudent {
		return nil, ErrStudentNotFound
	}

	var member *model.TeamMember
	var role *model.ProjectRole

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		role, err = tx.ProjectRole.GetByIDForUpdate(ctx, req.RoleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return err
		}
		if role.ProjectID != projectID {
			return ErrRoleNotInProject
		}

		title := ""
		if role.Project != nil {
			title = role.Project.Title
		}
		team, err := s.ensureTeam(ctx, tx, projectID, title)
		if err != nil {
			return err
		}
		member, err = s.ensureMembership(ctx, tx, team.TeamID, student.UserID, role.RoleID)
		return err
	})
	if err != nil {
		if pkgerrors.Category(err) == nil {
			s.logger.Error("添加团队成员失败", zap.String("project_id", projectID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("团队成员已添加",
		zap.String("project_id", projectID),
		zap.String("student_id", student.UserID),
		zap.String("role_id", role.RoleID),
	)

	member.Student = student
	member.Role = role
	resp := toTeamMemberResponse(member)
	return &resp, nil
}

// ────────────────────── RemoveMember ──────────────────────

func (s *teamService) RemoveMember(ctx context.Context, projectID, studentID string) error {
	team, err := s.repo.Team.GetByProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		s.logger.Error("查询团队失败", zap.String("project_id", projectID), zap.Error(err))
		return err
	}

	member, err := s.repo.TeamMember.FindByTeamAndStudent(ctx, team.TeamID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		s.logger.Error("查询团队成员失败", zap.String("team_id", team.TeamID), zap.Error(err))
		return err
	}

	if err := s.repo.TeamMember.Delete(ctx, member.MemberID); err != nil {
		s.logger.Error("移除团队成员失败", zap.String("member_id", member.MemberID), zap.Error(err))
		return err
	}

	s.logger.Info("团队成员已移除",
		zap.String("project_id", projectID),
		zap.String("student_id", studentID),
	)
	return nil
}

func toTeamResponse(t *model.Team) *dto.TeamResponse {
	members := make([]dto.TeamMemberResponse, 0, len(t.Members))
	for i := range t.Members {
		members = append(members, toTeamMemberResponse(&t.Members[i]))
	}
	return &dto.TeamResponse{
		ID:        t.TeamID,
		ProjectID: t.ProjectID,
		Name:      t.Name,
		Members:   members,
		CreatedAt: formatTime(t.CreatedAt),
	}
}

func toTeamMemberResponse(m *model.TeamMember) dto.TeamMemberResponse {
	resp := dto.TeamMemberResponse{
		ID:        m.MemberID,
		StudentID: m.StudentID,
		Student:   toUserBrief(m.Student),
		RoleID:    m.RoleID,
		JoinedAt:  formatTime(m.CreatedAt),
	}
	if m.Role != nil {
		resp.RoleName = m.Role.Name
	}
	return resp
}
