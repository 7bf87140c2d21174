package model

import (
	"time"

	"gorm.io/datatypes"
)

// SyncKind 协作同步动作
type SyncKind string

const (
	SyncCreateRepository SyncKind = "CREATE_REPOSITORY"
	SyncAddCollaborator  SyncKind = "ADD_COLLABORATOR"
)

// SyncStatus 协作同步结果
type SyncStatus string

const (
	SyncPending   SyncStatus = "PENDING"
	SyncSucceeded SyncStatus = "SUCCEEDED"
	SyncFailed    SyncStatus = "FAILED"
)

// CollabSyncEvent 协作同步事件，对应 collab_sync_events
// 与业务变更在同一事务内写入，事务提交后再调用外部平台
type CollabSyncEvent struct {
	EventID     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	ProjectID   string         `gorm:"type:uuid;not null"                             json:"project_id"`
	Kind        SyncKind       `gorm:"type:varchar(30);not null"                      json:"kind"`
	Payload     datatypes.JSON `gorm:"type:jsonb"                                     json:"payload"`
	Status      SyncStatus     `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	Attempts    int            `gorm:"not null;default:0"                             json:"attempts"`
	LastError   string         `gorm:"type:text;not null;default:''"                  json:"last_error,omitempty"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (CollabSyncEvent) TableName() string { return "collab_sync_events" }

// CreateRepositoryPayload CREATE_REPOSITORY 事件载荷
type CreateRepositoryPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AddCollaboratorPayload ADD_COLLABORATOR 事件载荷
type AddCollaboratorPayload struct {
	Owner     string `json:"owner"`
	RepoName  string `json:"repo_name"`
	Handle    string `json:"handle"`
	StudentID string `json:"student_id"`
}
