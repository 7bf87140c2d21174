package dto

// ── 团队模块 DTO ──

// AddMemberRequest 管理员手动添加团队成员
type AddMemberRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	RoleID    string `json:"role_id"    binding:"required,uuid"`
}

// TeamMemberResponse 团队成员响应
type TeamMemberResponse struct {
	ID        string     `json:"id"`
	StudentID string     `json:"student_id"`
	Student   *UserBrief `json:"student,omitempty"`
	RoleID    string     `json:"role_id"`
	RoleName  string     `json:"role_name,omitempty"`
	JoinedAt  string     `json:"joined_at"`
}

// TeamResponse 团队信息响应
type TeamResponse struct {
	ID        string               `json:"id"`
	ProjectID string               `json:"project_id"`
	Name      string               `json:"name"`
	Members   []TeamMemberResponse `json:"members"`
	CreatedAt string               `json:"created_at"`
}
