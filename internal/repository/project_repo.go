package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-works/internal/model"
)

// ProjectListFilters 项目列表过滤条件
type ProjectListFilters struct {
	Status   string
	ClientID string
}

// ProjectRepository 项目数据访问接口
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	// GetByID 查询项目并预加载客户
	GetByID(ctx context.Context, id string) (*model.Project, error)
	// GetByIDForUpdate 锁定项目行（事务内使用）
	GetByIDForUpdate(ctx context.Context, id string) (*model.Project, error)
	// GetWithRoles 查询项目并预加载岗位（按创建时间排序）
	GetWithRoles(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context, filters *ProjectListFilters, offset, limit int) ([]model.Project, int64, error)
	Update(ctx context.Context, project *model.Project) error
	UpdateRepository(ctx context.Context, id, url, name, owner string) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepo 创建 ProjectRepository 实例
func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("project_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := forUpdate(r.db.WithContext(ctx)).
		Where("project_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) GetWithRoles(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := r.db.WithContext(ctx).
		Preload("Roles", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("project_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) List(ctx context.Context, filters *ProjectListFilters, offset, limit int) ([]model.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Project{})
	if filters != nil {
		if filters.Status != "" {
			query = query.Where("status = ?", filters.Status)
		}
		if filters.ClientID != "" {
			query = query.Where("client_id = ?", filters.ClientID)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []model.Project
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&projects).Error
	return projects, total, err
}

func (r *projectRepo) Update(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
}

func (r *projectRepo) UpdateRepository(ctx context.Context, id, url, name, owner string) error {
	return r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("project_id = ?", id).
		Updates(map[string]interface{}{
			"repo_url":   url,
			"repo_name":  name,
			"repo_owner": owner,
		}).Error
}

func (r *projectRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("project_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ProjectRoleRepository 项目岗位数据访问接口
type ProjectRoleRepository interface {
	Create(ctx context.Context, role *model.ProjectRole) error
	// GetByID 查询岗位并预加载所属项目
	GetByID(ctx context.Context, id string) (*model.ProjectRole, error)
	// GetByIDForUpdate 锁定岗位行，串行化同一岗位的并发申请与录用
	GetByIDForUpdate(ctx context.Context, id string) (*model.ProjectRole, error)
	ListByProject(ctx context.Context, projectID string) ([]model.ProjectRole, error)
	SumSalarySplit(ctx context.Context, projectID string) (decimal.Decimal, error)
	Delete(ctx context.Context, id string) error
}

type projectRoleRepo struct {
	db *gorm.DB
}

// NewProjectRoleRepo 创建 ProjectRoleRepository 实例
func NewProjectRoleRepo(db *gorm.DB) ProjectRoleRepository {
	return &projectRoleRepo{db: db}
}

func (r *projectRoleRepo) Create(ctx context.Context, role *model.ProjectRole) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *projectRoleRepo) GetByID(ctx context.Context, id string) (*model.ProjectRole, error) {
	var role model.ProjectRole
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("role_id = ?", id).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *projectRoleRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.ProjectRole, error) {
	var role model.ProjectRole
	// 锁只加在岗位行上，项目通过独立查询预加载
	err := forUpdate(r.db.WithContext(ctx)).
		Preload("Project").
		Where("role_id = ?", id).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *projectRoleRepo) ListByProject(ctx context.Context, projectID string) ([]model.ProjectRole, error) {
	var roles []model.ProjectRole
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&roles).Error
	return roles, err
}

func (r *projectRoleRepo) SumSalarySplit(ctx context.Context, projectID string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&model.ProjectRole{}).
		Select("SUM(salary_split)").
		Where("project_id = ?", projectID).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *projectRoleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("role_id = ?", id).
		Delete(&model.ProjectRole{}).Error
}
