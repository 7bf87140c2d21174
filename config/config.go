package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Collab   CollabConfig   `mapstructure:"collab"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Feature  FeatureConfig  `mapstructure:"feature"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	BaseURL        string     `mapstructure:"base_url"`
	BodyLimitBytes int64      `mapstructure:"body_limit_bytes"`
	CORS           CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 分钟
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（Token 黑名单 + 限流）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 校验配置
// Token 由外部认证系统签发，本服务只负责校验
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// Output 额外的日志文件路径，为空时只写 stdout
	Output string `mapstructure:"output"`
}

// CollabConfig 代码托管平台协作同步配置
type CollabConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BaseURL      string        `mapstructure:"base_url"`
	Token        string        `mapstructure:"token"`
	Org          string        `mapstructure:"org"` // 为空时在 Token 所属用户下建仓
	Private      bool          `mapstructure:"private"`
	Timeout      time.Duration `mapstructure:"timeout"`       // 单次调用超时
	MaxAttempts  int           `mapstructure:"max_attempts"`  // 提交后同步的最大尝试次数
	RetryBackoff time.Duration `mapstructure:"retry_backoff"` // 两次尝试之间的等待
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// FeatureConfig 功能开关配置
type FeatureConfig struct {
	// StrictSalarySplit 开启后同一项目下各岗位分成比例之和不得超过 100
	StrictSalarySplit bool `mapstructure:"strict_salary_split"`
}

// envPrefix 环境变量前缀，如 CW_DB_HOST 覆盖 db.host
const envPrefix = "CW"

// defaults 未在配置文件与环境变量中出现时使用的值
var defaults = map[string]interface{}{
	"server.port":               8080,
	"server.base_url":           "http://localhost:8080",
	"server.body_limit_bytes":   1 << 20,
	"server.cors.allow_origins": []string{"http://localhost:5173"},

	"db.host":               "localhost",
	"db.port":               5432,
	"db.name":               "campus_works",
	"db.user":               "postgres",
	"db.password":           "",
	"db.sslmode":            "disable",
	"db.timezone":           "Asia/Shanghai",
	"db.max_open_conns":     25,
	"db.max_idle_conns":     10,
	"db.conn_max_lifetime":  60,
	"db.conn_max_idle_time": 30,

	"redis.addr":     "localhost:6379",
	"redis.password": "",
	"redis.db":       0,

	"auth.jwt_secret":       "",
	"auth.access_token_ttl": "15m",

	"log.level":  "info",
	"log.format": "json",
	"log.output": "",

	"collab.enabled":       false,
	"collab.base_url":      "https://api.github.com",
	"collab.token":         "",
	"collab.org":           "",
	"collab.private":       true,
	"collab.timeout":       "5s",
	"collab.max_attempts":  2,
	"collab.retry_backoff": "500ms",

	"metrics.enabled": true,
	"metrics.path":    "/metrics",

	"feature.strict_salary_split": false,
}

// Load 加载配置，优先级：环境变量 > .env > 配置文件 > 默认值
// path 为空时在 ./config 与当前目录查找 config.yaml，找不到不报错
func Load(path string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验关键配置项并修正可容忍的取值，一次返回全部问题
func (c *Config) Validate() error {
	var errs []error
	switch {
	case c.Auth.JWTSecret == "":
		errs = append(errs, errors.New("auth.jwt_secret 不能为空"))
	case len(c.Auth.JWTSecret) < 16:
		errs = append(errs, errors.New("auth.jwt_secret 长度不能少于 16 字符"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("server.port 必须在 1-65535 之间"))
	}
	if c.Collab.Enabled && c.Collab.Token == "" {
		errs = append(errs, errors.New("启用 collab 时 collab.token 不能为空"))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("metrics.path 必须以 / 开头"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("配置校验失败: %w", errors.Join(errs...))
	}

	if c.Collab.MaxAttempts <= 0 {
		c.Collab.MaxAttempts = 1
	}
	return nil
}
