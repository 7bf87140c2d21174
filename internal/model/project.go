package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectPendingApproval ProjectStatus = "PENDING_APPROVAL" // 客户提交，待审核
	ProjectPending         ProjectStatus = "PENDING"          // 管理员创建，待审核
	ProjectOpen            ProjectStatus = "OPEN"
	ProjectInProgress      ProjectStatus = "IN_PROGRESS"
	ProjectCompleted       ProjectStatus = "COMPLETED"
	ProjectCancelled       ProjectStatus = "CANCELLED"
	ProjectRejected        ProjectStatus = "REJECTED"
)

// IsTerminal COMPLETED / CANCELLED 的项目不再占用学生
func (s ProjectStatus) IsTerminal() bool {
	return s == ProjectCompleted || s == ProjectCancelled
}

// AwaitingApproval 两种待审核状态都等待审批
func (s ProjectStatus) AwaitingApproval() bool {
	return s == ProjectPendingApproval || s == ProjectPending
}

// Project 项目表，对应 projects
type Project struct {
	ProjectID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_id"`
	ClientID    string          `gorm:"type:uuid;not null"                             json:"client_id"`
	AdminID     *string         `gorm:"type:uuid"                                      json:"admin_id,omitempty"`
	Title       string          `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string          `gorm:"type:text;not null;default:''"                  json:"description"`
	Status      ProjectStatus   `gorm:"type:varchar(20);not null"                      json:"status"`
	Budget      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"budget"`
	Deadline    time.Time       `gorm:"not null"                                       json:"deadline"`
	RepoURL     *string         `gorm:"type:varchar(255)"                              json:"repo_url,omitempty"`
	RepoName    *string         `gorm:"type:varchar(100)"                              json:"repo_name,omitempty"`
	RepoOwner   *string         `gorm:"type:varchar(100)"                              json:"repo_owner,omitempty"`
	SoftDeleteModel

	// 关联
	Client *User         `gorm:"foreignKey:ClientID;references:UserID"   json:"client,omitempty"`
	Roles  []ProjectRole `gorm:"foreignKey:ProjectID;references:ProjectID" json:"roles,omitempty"`
}

// TableName 指定表名
func (Project) TableName() string { return "projects" }

// HasRepository 项目是否已绑定代码仓库
func (p *Project) HasRepository() bool {
	return p.RepoName != nil && *p.RepoName != "" && p.RepoOwner != nil && *p.RepoOwner != ""
}

// ProjectRole 项目岗位，对应 project_roles
type ProjectRole struct {
	RoleID      string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"role_id"`
	ProjectID   string          `gorm:"type:uuid;not null"                             json:"project_id"`
	Name        string          `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string          `gorm:"type:text;not null;default:''"                  json:"description"`
	SalarySplit decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"           json:"salary_split"` // 百分比 0-100
	BaseModel

	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID" json:"project,omitempty"`
}

// TableName 指定表名
func (ProjectRole) TableName() string { return "project_roles" }
