package model

import "gorm.io/datatypes"

// 平台角色
const (
	RoleClient  = "client"
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User 用户表，对应 users（由认证系统维护，本服务只读）
type User struct {
	UserID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name   string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email  string `gorm:"type:varchar(255);not null"                     json:"email"`
	Role   string `gorm:"type:varchar(20);not null"                      json:"role"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// StudentProfile 学生档案，对应 student_profiles
// 没有档案的学生不能投递申请
type StudentProfile struct {
	ProfileID      string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"profile_id"`
	UserID         string         `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	University     string         `gorm:"type:varchar(100);not null;default:''"          json:"university"`
	Skills         datatypes.JSON `gorm:"type:jsonb"                                     json:"skills,omitempty"`
	GithubUsername *string        `gorm:"type:varchar(39)"                               json:"github_username,omitempty"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (StudentProfile) TableName() string { return "student_profiles" }

// CollabHandle 返回外部协作账号，未绑定时返回空串
func (p *StudentProfile) CollabHandle() string {
	if p == nil || p.GithubUsername == nil {
		return ""
	}
	return *p.GithubUsername
}
