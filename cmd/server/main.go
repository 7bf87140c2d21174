package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"campus-works/config"
	"campus-works/internal/api/handler"
	"campus-works/internal/api/router"
	"campus-works/internal/collab"
	"campus-works/internal/metrics"
	"campus-works/internal/repository"
	"campus-works/internal/service"
	"campus-works/pkg/database"
	"campus-works/pkg/jwt"
	applogger "campus-works/pkg/logger"
	"campus-works/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "配置文件路径，默认查找 ./config/config.yaml")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移后退出")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *migrateOnly); err != nil {
		logger.Fatal("服务异常退出", zap.Error(err))
	}
}

// run 组装依赖并阻塞到收到退出信号
func run(cfg *config.Config, logger *zap.Logger, migrateOnly bool) error {
	logger.Info("campus-works 启动",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("collab_enabled", cfg.Collab.Enabled),
		zap.Bool("strict_salary_split", cfg.Feature.StrictSalarySplit),
	)

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, applogger.Component(logger, "migrate")); err != nil {
		return err
	}
	if migrateOnly {
		return nil
	}

	// Redis 不可用时降级运行：跳过 Token 黑名单，投递接口不限流
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 不可用，降级运行", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	if cfg.Metrics.Enabled {
		metrics.Register()
	}

	repo := repository.NewRepository(db)
	provider := collab.NewProvider(&cfg.Collab, applogger.Component(logger, "collab"))
	svc := service.NewService(cfg, repo, provider, logger)
	engine := router.Setup(cfg, handler.NewHandler(svc), jwt.NewManager(&cfg.Auth), rdb, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("HTTP 服务器异常: %w", err)
	case <-ctx.Done():
	}

	logger.Info("收到关闭信号，开始优雅关闭")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务器关闭异常: %w", err)
	}

	logger.Info("服务器已关闭")
	return nil
}
