package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-works/internal/model"
)

// ApplicationRepository 岗位申请数据访问接口
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	// GetByID 查询申请并预加载 Student、Role、Role.Project
	GetByID(ctx context.Context, id string) (*model.Application, error)
	// GetByIDForUpdate 锁定申请行（事务内使用），同样预加载关联
	GetByIDForUpdate(ctx context.Context, id string) (*model.Application, error)
	UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus, updatedBy string) error
	// FindAcceptedByRole 查询岗位上已录用的申请
	FindAcceptedByRole(ctx context.Context, roleID string) (*model.Application, error)
	FindByStudentAndRole(ctx context.Context, studentID, roleID string) (*model.Application, error)
	// FindActiveEngagement 查询学生在未结束项目中的已录用申请（预加载 Role.Project）
	FindActiveEngagement(ctx context.Context, studentID string) (*model.Application, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Application, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Application, error)
	CountAcceptedByRole(ctx context.Context, roleID string) (int64, error)
}

type applicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo 创建 ApplicationRepository 实例
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Student").Preload("Role").Preload("Role.Project")
}

func (r *applicationRepo) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("application_id = ?", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := r.withDetails(forUpdate(r.db.WithContext(ctx))).
		Where("application_id = ?", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("application_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *applicationRepo) FindAcceptedByRole(ctx context.Context, roleID string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Where("role_id = ? AND status = ?", roleID, model.ApplicationAccepted).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) FindByStudentAndRole(ctx context.Context, studentID, roleID string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND role_id = ?", studentID, roleID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) FindActiveEngagement(ctx context.Context, studentID string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Preload("Role").Preload("Role.Project").
		Joins("JOIN project_roles ON project_roles.role_id = applications.role_id").
		Joins("JOIN projects ON projects.project_id = project_roles.project_id AND projects.deleted_at IS NULL").
		Where("applications.student_id = ? AND applications.status = ?", studentID, model.ApplicationAccepted).
		Where("projects.status NOT IN ?", []model.ProjectStatus{model.ProjectCompleted, model.ProjectCancelled}).
		Order("applications.updated_at DESC").
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Application, error) {
	var apps []model.Application
	err := r.db.WithContext(ctx).
		Preload("Role").Preload("Role.Project").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) ListByProject(ctx context.Context, projectID string) ([]model.Application, error) {
	var apps []model.Application
	err := r.withDetails(r.db.WithContext(ctx)).
		Joins("JOIN project_roles ON project_roles.role_id = applications.role_id").
		Where("project_roles.project_id = ?", projectID).
		Order("applications.created_at ASC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) CountAcceptedByRole(ctx context.Context, roleID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("role_id = ? AND status = ?", roleID, model.ApplicationAccepted).
		Count(&count).Error
	return count, err
}
