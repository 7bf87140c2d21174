package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"campus-works/config"
)

// Client 包装 go-redis，承载 Token 黑名单查询与接口限流
// Redis 不可用时调用方降级放行，因此这里的错误只用于记录
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建连接并 Ping，失败时返回错误由调用方决定是否降级
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	c := &Client{rdb: rdb, logger: logger}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return c, nil
}

// Ping 供健康检查使用
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// blacklistPrefix 与认证服务约定的注销 Token 键前缀，值由认证服务写入
const blacklistPrefix = "token:blacklist:"

// IsBlacklisted 检查 JWT ID 是否已被注销
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// slidingWindow 原子地清理过期成员、计数并在未超限时记录本次请求
// 被拒绝的请求不计入窗口
var slidingWindow = goredis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
if redis.call('ZCARD', key) >= limit then
  return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// CheckRateLimit 滑动窗口限流，窗口内请求数未达到 limit 时返回 true
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMilli()
	allowed, err := slidingWindow.Run(ctx, c.rdb, []string{key},
		now, window.Milliseconds(), limit, uuid.NewString()).Int()
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
