package dto

// ── 申请模块 DTO ──

// SubmitApplicationRequest 投递申请请求
type SubmitApplicationRequest struct {
	RoleID string `json:"role_id" binding:"required,uuid"`
	Notes  string `json:"notes"   binding:"omitempty,max=2000"`
}

// UpdateApplicationStatusRequest 审核申请请求
type UpdateApplicationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACCEPTED REJECTED"`
}

// ApplicationResponse 申请信息响应
type ApplicationResponse struct {
	ID           string     `json:"id"`
	StudentID    string     `json:"student_id"`
	Student      *UserBrief `json:"student,omitempty"`
	RoleID       string     `json:"role_id"`
	RoleName     string     `json:"role_name,omitempty"`
	ProjectID    string     `json:"project_id,omitempty"`
	ProjectTitle string     `json:"project_title,omitempty"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
}
