package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// StampCreated 记录创建人（同时作为首个更新人），actor 为空时保持 NULL
func (b *BaseModel) StampCreated(actor string) {
	b.CreatedBy = actorRef(actor)
	b.UpdatedBy = actorRef(actor)
}

// StampUpdated 记录最近一次更新人
func (b *BaseModel) StampUpdated(actor string) {
	if ref := actorRef(actor); ref != nil {
		b.UpdatedBy = ref
	}
}

func actorRef(actor string) *string {
	if actor == "" {
		return nil
	}
	return &actor
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"     json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}
