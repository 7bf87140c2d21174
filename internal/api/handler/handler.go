package handler

import "campus-works/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Project     *ProjectHandler
	Application *ApplicationHandler
	Team        *TeamHandler
	Task        *TaskHandler
	Salary      *SalaryHandler
	CollabSync  *CollabSyncHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Project:     NewProjectHandler(svc.Project, svc.Role),
		Application: NewApplicationHandler(svc.Application),
		Team:        NewTeamHandler(svc.Team),
		Task:        NewTaskHandler(svc.Task),
		Salary:      NewSalaryHandler(svc.Salary),
		CollabSync:  NewCollabSyncHandler(svc.CollabSync),
	}
}
