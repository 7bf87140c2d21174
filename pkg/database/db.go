package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"campus-works/config"
)

const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 10
	slowQueryThreshold  = 200 * time.Millisecond
)

// NewDB 初始化 PostgreSQL 连接
// 开启 TranslateError，唯一约束冲突以 gorm.ErrDuplicatedKey 返回给 Service 层
func NewDB(cfg *config.DatabaseConfig, logLevel string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         newGormLogger(logger, logLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(positiveOr(cfg.MaxOpenConns, defaultMaxOpenConns))
	sqlDB.SetMaxIdleConns(positiveOr(cfg.MaxIdleConns, defaultMaxIdleConns))
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	logger.Debug("数据库连接池就绪",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.Name),
		zap.Int("max_open_conns", positiveOr(cfg.MaxOpenConns, defaultMaxOpenConns)),
	)
	return db, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// newGormLogger 将 GORM 日志写入应用的 Zap 日志器
// 记录不存在属于正常分支，不输出
func newGormLogger(logger *zap.Logger, logLevel string) gormlogger.Interface {
	writer := zapGormWriter{sugar: logger.Named("gorm").WithOptions(zap.AddCallerSkip(3)).Sugar()}
	return gormlogger.New(writer, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormLogLevel(logLevel),
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  false,
	})
}

// zapGormWriter 实现 gormlogger.Writer
type zapGormWriter struct {
	sugar *zap.SugaredLogger
}

func (w zapGormWriter) Printf(format string, args ...interface{}) {
	w.sugar.Infof(format, args...)
}

// gormLogLevel debug 输出全部 SQL，info/warn 只记录慢查询与告警，其余静默
func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "info", "warn":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}
