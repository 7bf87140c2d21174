package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-works/internal/model"
)

// PaymentRepository 付款流水数据访问接口
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	// ListByProject 列出项目付款（预加载 ToUser、Role），paymentType 为空时不过滤
	ListByProject(ctx context.Context, projectID string, paymentType model.PaymentType) ([]model.Payment, error)
	CountByProjectAndType(ctx context.Context, projectID string, paymentType model.PaymentType) (int64, error)
	CountPendingByProject(ctx context.Context, projectID string) (int64, error)
	Update(ctx context.Context, payment *model.Payment) error
}

type paymentRepo struct {
	db *gorm.DB
}

// NewPaymentRepo 创建 PaymentRepository 实例
func NewPaymentRepo(db *gorm.DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepo) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) ListByProject(ctx context.Context, projectID string, paymentType model.PaymentType) ([]model.Payment, error) {
	query := r.db.WithContext(ctx).
		Preload("ToUser").Preload("Role").
		Where("project_id = ?", projectID)
	if paymentType != "" {
		query = query.Where("type = ?", paymentType)
	}

	var payments []model.Payment
	err := query.Order("created_at ASC").Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) CountByProjectAndType(ctx context.Context, projectID string, paymentType model.PaymentType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("project_id = ? AND type = ?", projectID, paymentType).
		Count(&count).Error
	return count, err
}

func (r *paymentRepo) CountPendingByProject(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("project_id = ? AND status = ?", projectID, model.PaymentPending).
		Count(&count).Error
	return count, err
}

func (r *paymentRepo) Update(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(payment).Error
}
