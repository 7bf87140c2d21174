package dto

import "time"

// ── 任务模块 DTO ──

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	Title       string     `json:"title"       binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"omitempty,max=5000"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskStatusRequest 认领人更新任务进度
type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=TODO IN_PROGRESS"`
}

// SubmitWorkRequest 提交任务成果
type SubmitWorkRequest struct {
	Content string `json:"content" binding:"required,min=1,max=10000"`
}

// ReviewSubmissionRequest 审核提交
type ReviewSubmissionRequest struct {
	Approved *bool  `json:"approved" binding:"required"`
	Feedback string `json:"feedback" binding:"omitempty,max=5000"`
}

// TaskResponse 任务信息响应
type TaskResponse struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	Assignee    *UserBrief `json:"assignee,omitempty"`
	DueDate     string     `json:"due_date,omitempty"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// SubmissionResponse 任务提交响应
type SubmissionResponse struct {
	ID         string `json:"id"`
	TaskID     string `json:"task_id"`
	StudentID  string `json:"student_id"`
	Content    string `json:"content"`
	Status     string `json:"status"`
	Feedback   string `json:"feedback,omitempty"`
	ReviewedAt string `json:"reviewed_at,omitempty"`
	CreatedAt  string `json:"created_at"`
}
