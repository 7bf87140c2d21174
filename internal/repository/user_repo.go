package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-works/internal/model"
)

// UserRepository 用户数据访问接口（只读）
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// StudentProfileRepository 学生档案数据访问接口
type StudentProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.StudentProfile, error)
	// LockByUserID 锁定学生档案行，串行化同一学生的并发申请
	LockByUserID(ctx context.Context, userID string) (*model.StudentProfile, error)
}

type studentProfileRepo struct {
	db *gorm.DB
}

// NewStudentProfileRepo 创建 StudentProfileRepository 实例
func NewStudentProfileRepo(db *gorm.DB) StudentProfileRepository {
	return &studentProfileRepo{db: db}
}

func (r *studentProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.StudentProfile, error) {
	var p model.StudentProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *studentProfileRepo) LockByUserID(ctx context.Context, userID string) (*model.StudentProfile, error) {
	var p model.StudentProfile
	err := forUpdate(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
