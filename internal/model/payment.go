package model

import "github.com/shopspring/decimal"

// PaymentType 付款类型
type PaymentType string

const (
	PaymentProjectBudget      PaymentType = "PROJECT_BUDGET"
	PaymentSalaryDistribution PaymentType = "SALARY_DISTRIBUTION"
)

// PaymentStatus 付款状态
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
)

// Payment 付款流水，对应 payments（账本模拟，不接入真实支付网关）
type Payment struct {
	PaymentID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"payment_id"`
	ProjectID   string          `gorm:"type:uuid;not null"                             json:"project_id"`
	RoleID      *string         `gorm:"type:uuid"                                      json:"role_id,omitempty"`
	Type        PaymentType     `gorm:"type:varchar(30);not null"                      json:"type"`
	Status      PaymentStatus   `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null"                    json:"amount"`
	FromUserID  *string         `gorm:"type:uuid"                                      json:"from_user_id,omitempty"`
	ToUserID    *string         `gorm:"type:uuid"                                      json:"to_user_id,omitempty"`
	ReferenceID *string         `gorm:"type:varchar(100)"                              json:"reference_id,omitempty"`
	BaseModel

	ToUser *User        `gorm:"foreignKey:ToUserID;references:UserID" json:"to_user,omitempty"`
	Role   *ProjectRole `gorm:"foreignKey:RoleID;references:RoleID"   json:"role,omitempty"`
}

// TableName 指定表名
func (Payment) TableName() string { return "payments" }
