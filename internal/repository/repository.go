package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User           UserRepository
	StudentProfile StudentProfileRepository
	Project        ProjectRepository
	ProjectRole    ProjectRoleRepository
	Application    ApplicationRepository
	Team           TeamRepository
	TeamMember     TeamMemberRepository
	Task           TaskRepository
	Submission     SubmissionRepository
	Payment        PaymentRepository
	CollabSync     CollabSyncRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		User:           NewUserRepo(db),
		StudentProfile: NewStudentProfileRepo(db),
		Project:        NewProjectRepo(db),
		ProjectRole:    NewProjectRoleRepo(db),
		Application:    NewApplicationRepo(db),
		Team:           NewTeamRepo(db),
		TeamMember:     NewTeamMemberRepo(db),
		Task:           NewTaskRepo(db),
		Submission:     NewSubmissionRepo(db),
		Payment:        NewPaymentRepo(db),
		CollabSync:     NewCollabSyncRepo(db),
	}
}

// WithTx 返回绑定到事务 tx 的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在单个数据库事务内执行 fn，fn 返回错误或 panic 时整体回滚
// 未持有 *gorm.DB（单元测试注入 mock 聚合）时直接在当前聚合上执行
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// forUpdate 行级排他锁（SELECT ... FOR UPDATE），仅在事务内有意义
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
