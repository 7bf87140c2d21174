package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campus-works/config"
	"campus-works/internal/api/handler"
	"campus-works/internal/api/middleware"
	"campus-works/internal/model"
	"campus-works/pkg/jwt"
	"campus-works/pkg/redis"
)

// 投递接口限流：每个学生每分钟 20 次
const (
	submitRateLimit  = 20
	submitRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, "/health", cfg.Metrics.Path))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(rdb))

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	const (
		admin   = model.RoleAdmin
		client  = model.RoleClient
		student = model.RoleStudent
	)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
	{
		// 项目模块（客户只能看到自己的项目，Service 层鉴权）
		projects := authorized.Group("/projects")
		{
			projects.GET("", h.Project.ListProjects)
			projects.POST("", middleware.RoleAuth(client, admin), h.Project.CreateProject)
			projects.GET("/:id", h.Project.GetProject)
			projects.PUT("/:id/approve", middleware.RoleAuth(admin), h.Project.ApproveProject)
			projects.PUT("/:id/reject", middleware.RoleAuth(admin), h.Project.RejectProject)
			projects.PUT("/:id/status", middleware.RoleAuth(client, admin), h.Project.UpdateProjectStatus)
			projects.DELETE("/:id", middleware.RoleAuth(client), h.Project.DeleteProject)
			projects.POST("/:id/repository", middleware.RoleAuth(admin), h.Project.ProvisionRepository)

			// 岗位
			projects.GET("/:id/roles", h.Project.ListRoles)
			projects.POST("/:id/roles", middleware.RoleAuth(admin), h.Project.CreateRole)

			// 申请
			projects.GET("/:id/applications", middleware.RoleAuth(client, admin), h.Application.ListProjectApplications)

			// 团队
			projects.GET("/:id/team", h.Team.GetTeam)
			projects.POST("/:id/team", middleware.RoleAuth(admin), h.Team.EnsureTeam)
			projects.POST("/:id/team/members", middleware.RoleAuth(admin), h.Team.AddMember)
			projects.DELETE("/:id/team/members/:student_id", middleware.RoleAuth(admin), h.Team.RemoveMember)

			// 任务
			projects.GET("/:id/tasks", h.Task.ListProjectTasks)
			projects.POST("/:id/tasks", middleware.RoleAuth(client, admin), h.Task.CreateTask)

			// 薪酬与付款
			projects.POST("/:id/fund", middleware.RoleAuth(client), h.Salary.FundProject)
			projects.POST("/:id/salary/distribute", middleware.RoleAuth(admin), h.Salary.DistributeSalary)
			projects.GET("/:id/salary/export", middleware.RoleAuth(admin), h.Salary.ExportDistribution)
			projects.GET("/:id/payments", middleware.RoleAuth(client, admin), h.Salary.ListPayments)

			// 协作同步
			projects.GET("/:id/sync-events", middleware.RoleAuth(admin), h.CollabSync.ListEvents)
		}

		authorized.DELETE("/roles/:id", middleware.RoleAuth(admin), h.Project.DeleteRole)

		applications := authorized.Group("/applications")
		{
			applications.POST("", middleware.RoleAuth(student),
				middleware.RateLimit(rdb, submitRateLimit, submitRateWindow, logger), h.Application.SubmitApplication)
			applications.GET("/mine", middleware.RoleAuth(student), h.Application.ListMyApplications)
			applications.PUT("/:id/status", middleware.RoleAuth(admin), h.Application.UpdateApplicationStatus)
		}

		tasks := authorized.Group("/tasks")
		{
			tasks.GET("/mine", middleware.RoleAuth(student), h.Task.ListMyTasks)
			tasks.PUT("/:id/status", middleware.RoleAuth(student), h.Task.UpdateTaskStatus)
			tasks.POST("/:id/submissions", middleware.RoleAuth(student), h.Task.SubmitWork)
		}

		authorized.PUT("/submissions/:id/review", middleware.RoleAuth(admin), h.Task.ReviewSubmission)
		authorized.PUT("/payments/:id/confirm", middleware.RoleAuth(admin), h.Salary.ConfirmPayment)
		authorized.POST("/sync-events/retry", middleware.RoleAuth(admin), h.CollabSync.RetryFailed)
	}

	return r
}

// healthCheck 存活探针；Redis 故障只标记 degraded，服务仍可降级运行
func healthCheck(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		redisStatus := "disabled"
		if rdb != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()
			redisStatus = "ok"
			if err := rdb.Ping(ctx); err != nil {
				redisStatus = "degraded"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": redisStatus})
	}
}
