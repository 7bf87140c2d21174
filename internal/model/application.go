package model

// ApplicationStatus 申请状态
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationAccepted ApplicationStatus = "ACCEPTED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// Application 岗位申请，对应 applications
// 同一 (student_id, role_id) 仅允许一条；同一岗位至多一条 ACCEPTED
type Application struct {
	ApplicationID string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"application_id"`
	StudentID     string            `gorm:"type:uuid;not null"                             json:"student_id"`
	RoleID        string            `gorm:"type:uuid;not null"                             json:"role_id"`
	Status        ApplicationStatus `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	Notes         string            `gorm:"type:text;not null;default:''"                  json:"notes"`
	BaseModel

	Student *User        `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
	Role    *ProjectRole `gorm:"foreignKey:RoleID;references:RoleID"    json:"role,omitempty"`
}

// TableName 指定表名
func (Application) TableName() string { return "applications" }
