package model

// Team 项目团队，对应 teams，与项目一对一，首次录用时惰性创建
type Team struct {
	TeamID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"team_id"`
	ProjectID string `gorm:"type:uuid;not null;uniqueIndex"                 json:"project_id"`
	Name      string `gorm:"type:varchar(200);not null;default:''"          json:"name"`
	BaseModel

	Members []TeamMember `gorm:"foreignKey:TeamID;references:TeamID" json:"members,omitempty"`
}

// TableName 指定表名
func (Team) TableName() string { return "teams" }

// TeamMember 团队成员，对应 team_members，(team_id, role_id) 唯一
type TeamMember struct {
	MemberID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"member_id"`
	TeamID    string `gorm:"type:uuid;not null"                             json:"team_id"`
	StudentID string `gorm:"type:uuid;not null"                             json:"student_id"`
	RoleID    string `gorm:"type:uuid;not null"                             json:"role_id"`
	BaseModel

	Student *User        `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
	Role    *ProjectRole `gorm:"foreignKey:RoleID;references:RoleID"    json:"role,omitempty"`
}

// TableName 指定表名
func (TeamMember) TableName() string { return "team_members" }
