package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-works/internal/model"
)

// CollabSyncRepository 协作同步事件数据访问接口
type CollabSyncRepository interface {
	Create(ctx context.Context, event *model.CollabSyncEvent) error
	ListByProject(ctx context.Context, projectID string) ([]model.CollabSyncEvent, error)
	ListByStatus(ctx context.Context, status model.SyncStatus, limit int) ([]model.CollabSyncEvent, error)
	Update(ctx context.Context, event *model.CollabSyncEvent) error
}

type collabSyncRepo struct {
	db *gorm.DB
}

// NewCollabSyncRepo 创建 CollabSyncRepository 实例
func NewCollabSyncRepo(db *gorm.DB) CollabSyncRepository {
	return &collabSyncRepo{db: db}
}

func (r *collabSyncRepo) Create(ctx context.Context, event *model.CollabSyncEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *collabSyncRepo) ListByProject(ctx context.Context, projectID string) ([]model.CollabSyncEvent, error) {
	var events []model.CollabSyncEvent
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

func (r *collabSyncRepo) ListByStatus(ctx context.Context, status model.SyncStatus, limit int) ([]model.CollabSyncEvent, error) {
	var events []model.CollabSyncEvent
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *collabSyncRepo) Update(ctx context.Context, event *model.CollabSyncEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}
