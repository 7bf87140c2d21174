package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 项目模块 DTO ──

// CreateProjectRequest 创建项目请求
// 管理员代客户创建时 client_id 必填；客户自行提交时忽略该字段
type CreateProjectRequest struct {
	ClientID    string          `json:"client_id"   binding:"omitempty,uuid"`
	Title       string          `json:"title"       binding:"required,min=2,max=200"`
	Description string          `json:"description" binding:"omitempty,max=5000"`
	Budget      decimal.Decimal `json:"budget"`
	Deadline    time.Time       `json:"deadline"`
}

// ProjectListRequest 项目列表查询参数
type ProjectListRequest struct {
	PageQuery
	Status   string `form:"status"    binding:"omitempty,oneof=PENDING_APPROVAL PENDING OPEN IN_PROGRESS COMPLETED CANCELLED REJECTED"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
}

// UpdateProjectStatusRequest 项目状态变更请求（审批走独立接口）
type UpdateProjectStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=IN_PROGRESS COMPLETED CANCELLED"`
}

// ProjectResponse 项目信息响应
type ProjectResponse struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	Client      *UserBrief `json:"client,omitempty"`
	AdminID     string     `json:"admin_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Budget      string     `json:"budget"`
	Deadline    string     `json:"deadline"`
	RepoURL     string     `json:"repo_url,omitempty"`
	RepoName    string     `json:"repo_name,omitempty"`
	RepoOwner   string     `json:"repo_owner,omitempty"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// ── 岗位 DTO ──

// CreateRoleRequest 创建岗位请求
type CreateRoleRequest struct {
	Name        string          `json:"name"         binding:"required,min=1,max=100"`
	Description string          `json:"description"  binding:"omitempty,max=2000"`
	SalarySplit decimal.Decimal `json:"salary_split"`
}

// RoleResponse 岗位信息响应（含录用情况）
type RoleResponse struct {
	ID              string     `json:"id"`
	ProjectID       string     `json:"project_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	SalarySplit     string     `json:"salary_split"`
	Filled          bool       `json:"filled"`
	AcceptedStudent *UserBrief `json:"accepted_student,omitempty"`
	CreatedAt       string     `json:"created_at"`
}
