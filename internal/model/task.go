package model

import "time"

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskInReview   TaskStatus = "IN_REVIEW"
	TaskCompleted  TaskStatus = "COMPLETED"
)

// Task 项目任务，对应 tasks
// AssignedTo 为空表示尚未认领
type Task struct {
	TaskID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"task_id"`
	ProjectID   string     `gorm:"type:uuid;not null"                             json:"project_id"`
	Title       string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string     `gorm:"type:text;not null;default:''"                  json:"description"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'TODO'"       json:"status"`
	AssignedTo  *string    `gorm:"type:uuid"                                      json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	BaseModel

	Assignee *User `gorm:"foreignKey:AssignedTo;references:UserID" json:"assignee,omitempty"`
}

// TableName 指定表名
func (Task) TableName() string { return "tasks" }

// SubmissionStatus 提交评审结果
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionApproved SubmissionStatus = "APPROVED"
	SubmissionRejected SubmissionStatus = "REJECTED"
)

// Submission 任务提交，对应 submissions
type Submission struct {
	SubmissionID string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_id"`
	TaskID       string           `gorm:"type:uuid;not null"                             json:"task_id"`
	StudentID    string           `gorm:"type:uuid;not null"                             json:"student_id"`
	Content      string           `gorm:"type:text;not null"                             json:"content"`
	Status       SubmissionStatus `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	Feedback     string           `gorm:"type:text;not null;default:''"                  json:"feedback"`
	ReviewedAt   *time.Time       `json:"reviewed_at,omitempty"`
	BaseModel

	Task *Task `gorm:"foreignKey:TaskID;references:TaskID" json:"task,omitempty"`
}

// TableName 指定表名
func (Submission) TableName() string { return "submissions" }
