package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-works/internal/model"
)

// TaskRepository 任务数据访问接口
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Task, error)
	ListByAssignee(ctx context.Context, studentID string) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	// ClaimUnassigned 将项目内所有未认领任务指派给 studentID，返回受影响行数
	ClaimUnassigned(ctx context.Context, projectID, studentID string) (int64, error)
}

type taskRepo struct {
	db *gorm.DB
}

// NewTaskRepo 创建 TaskRepository 实例
func NewTaskRepo(db *gorm.DB) TaskRepository {
	return &taskRepo{db: db}
}

func (r *taskRepo) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("task_id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepo) ListByProject(ctx context.Context, projectID string) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepo) ListByAssignee(ctx context.Context, studentID string) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("assigned_to = ?", studentID).
		Order("due_date ASC NULLS LAST, created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepo) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(task).Error
}

func (r *taskRepo) ClaimUnassigned(ctx context.Context, projectID, studentID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("project_id = ? AND assigned_to IS NULL", projectID).
		Updates(map[string]interface{}{
			"assigned_to": studentID,
			"updated_at":  gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}

// SubmissionRepository 任务提交数据访问接口
type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.Submission) error
	// GetByID 查询提交并预加载所属任务
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	Update(ctx context.Context, submission *model.Submission) error
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, submission *model.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var s model.Submission
	err := r.db.WithContext(ctx).
		Preload("Task").
		Where("submission_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *submissionRepo) Update(ctx context.Context, submission *model.Submission) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(submission).Error
}
