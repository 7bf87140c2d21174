package dto

// ── 付款 / 薪酬模块 DTO ──

// ConfirmPaymentRequest 确认付款请求
type ConfirmPaymentRequest struct {
	ReferenceID string `json:"reference_id" binding:"required,min=1,max=100"`
}

// PaymentResponse 付款流水响应
type PaymentResponse struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	RoleID      string     `json:"role_id,omitempty"`
	RoleName    string     `json:"role_name,omitempty"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Amount      string     `json:"amount"`
	FromUserID  string     `json:"from_user_id,omitempty"`
	ToUserID    string     `json:"to_user_id,omitempty"`
	ToUser      *UserBrief `json:"to_user,omitempty"`
	ReferenceID string     `json:"reference_id,omitempty"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// DistributionResponse 薪酬分配结果（展示用投影，权威数据为付款流水）
type DistributionResponse struct {
	PaymentID    string `json:"payment_id"`
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
	Amount       string `json:"amount"`
	RoleName     string `json:"role_name"`
	Status       string `json:"status"`
}
