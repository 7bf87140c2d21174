package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-works/internal/model"
)

// TeamRepository 团队数据访问接口
type TeamRepository interface {
	// GetByProject 查询项目团队并预加载成员（含学生与岗位）
	GetByProject(ctx context.Context, projectID string) (*model.Team, error)
	// CreateIfAbsent 以 project_id 唯一约束幂等创建团队；已存在时不报错也不覆盖
	CreateIfAbsent(ctx context.Context, team *model.Team) error
}

type teamRepo struct {
	db *gorm.DB
}

// NewTeamRepo 创建 TeamRepository 实例
func NewTeamRepo(db *gorm.DB) TeamRepository {
	return &teamRepo{db: db}
}

func (r *teamRepo) GetByProject(ctx context.Context, projectID string) (*model.Team, error) {
	var team model.Team
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Members.Student").
		Preload("Members.Role").
		Where("project_id = ?", projectID).
		First(&team).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepo) CreateIfAbsent(ctx context.Context, team *model.Team) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "project_id"}}, DoNothing: true}).
		Create(team).Error
}

// TeamMemberRepository 团队成员数据访问接口
type TeamMemberRepository interface {
	Create(ctx context.Context, member *model.TeamMember) error
	FindByTeamAndRole(ctx context.Context, teamID, roleID string) (*model.TeamMember, error)
	FindByTeamAndStudent(ctx context.Context, teamID, studentID string) (*model.TeamMember, error)
	// ListByProject 列出项目团队的全部成员（预加载 Student）
	ListByProject(ctx context.Context, projectID string) ([]model.TeamMember, error)
	CountByProject(ctx context.Context, projectID string) (int64, error)
	CountByRole(ctx context.Context, roleID string) (int64, error)
	Delete(ctx context.Context, memberID string) error
}

type teamMemberRepo struct {
	db *gorm.DB
}

// NewTeamMemberRepo 创建 TeamMemberRepository 实例
func NewTeamMemberRepo(db *gorm.DB) TeamMemberRepository {
	return &teamMemberRepo{db: db}
}

func (r *teamMemberRepo) Create(ctx context.Context, member *model.TeamMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *teamMemberRepo) FindByTeamAndRole(ctx context.Context, teamID, roleID string) (*model.TeamMember, error) {
	var m model.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND role_id = ?", teamID, roleID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *teamMemberRepo) FindByTeamAndStudent(ctx context.Context, teamID, studentID string) (*model.TeamMember, error) {
	var m model.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND student_id = ?", teamID, studentID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *teamMemberRepo) ListByProject(ctx context.Context, projectID string) ([]model.TeamMember, error) {
	var members []model.TeamMember
	err := r.db.WithContext(ctx).
		Preload("Student").
		Joins("JOIN teams ON teams.team_id = team_members.team_id").
		Where("teams.project_id = ?", projectID).
		Order("team_members.created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *teamMemberRepo) CountByProject(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TeamMember{}).
		Joins("JOIN teams ON teams.team_id = team_members.team_id").
		Where("teams.project_id = ?", projectID).
		Count(&count).Error
	return count, err
}

func (r *teamMemberRepo) CountByRole(ctx context.Context, roleID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TeamMember{}).
		Where("role_id = ?", roleID).
		Count(&count).Error
	return count, err
}

func (r *teamMemberRepo) Delete(ctx context.Context, memberID string) error {
	return r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Delete(&model.TeamMember{}).Error
}
