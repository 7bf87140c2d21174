package dto

// ── 协作同步 DTO ──

// CollabSyncEventResponse 协作同步事件响应
type CollabSyncEventResponse struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	Attempts    int    `json:"attempts"`
	LastError   string `json:"last_error,omitempty"`
	ProcessedAt string `json:"processed_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// RetrySyncRequest 重试失败同步事件
type RetrySyncRequest struct {
	Limit int `json:"limit" binding:"omitempty,min=1,max=100"`
}

// RetrySyncResponse 重试结果
type RetrySyncResponse struct {
	Retried   int `json:"retried"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
