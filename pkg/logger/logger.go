package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"campus-works/config"
)

const serviceName = "campus-works"

// NewLogger 根据配置初始化 Zap 日志实例
// json 格式用于线上采集，console 格式用于本地开发
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if strings.TrimSpace(cfg.Level) != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.Output != "" {
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, cfg.Output)
	}

	logger, err := zapCfg.Build(
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("初始化日志器失败: %w", err)
	}

	return logger, nil
}

// Component 返回带组件名的子日志器，便于按模块过滤
func Component(logger *zap.Logger, name string) *zap.Logger {
	return logger.Named(name).With(zap.String("component", name))
}
