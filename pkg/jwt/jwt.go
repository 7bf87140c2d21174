package jwt

import (
	"errors"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"campus-works/config"
)

var (
	ErrTokenMissing = errors.New("缺少 Bearer Token")
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
	ErrUnknownRole  = errors.New("token 角色无效")
)

const issuer = "campus-works"

// clockLeeway 认证服务与本服务之间允许的时钟偏差
const clockLeeway = 30 * time.Second

// platformRoles Token 中允许出现的平台角色
var platformRoles = map[string]struct{}{
	"client":  {},
	"student": {},
	"admin":   {},
}

// Claims 访问令牌声明，ID(jti) 用于 Redis 黑名单
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwtv5.RegisteredClaims
}

// Manager 访问令牌校验器
// 正式环境的 Token 由认证服务签发，本服务共享同一密钥仅做校验
type Manager struct {
	secret []byte
	ttl    time.Duration
	parser *jwtv5.Parser
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.AccessTokenTTL,
		parser: jwtv5.NewParser(
			jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
			jwtv5.WithIssuer(issuer),
			jwtv5.WithLeeway(clockLeeway),
			jwtv5.WithExpirationRequired(),
		),
	}
}

// GenerateAccessToken 签发访问令牌，仅供联调脚本与测试使用
func (m *Manager) GenerateAccessToken(userID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.ttl)),
			Issuer:    issuer,
		},
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseToken 校验签名、签发方、有效期与角色
func (m *Manager) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := m.parser.ParseWithClaims(raw, claims, func(*jwtv5.Token) (interface{}, error) {
		return m.secret, nil
	})
	switch {
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil, claims.UserID == "":
		return nil, ErrTokenInvalid
	}

	if _, ok := platformRoles[claims.Role]; !ok {
		return nil, ErrUnknownRole
	}
	return claims, nil
}

// ParseAuthorization 从 "Authorization: Bearer <token>" 头解析声明
func (m *Manager) ParseAuthorization(header string) (*Claims, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, ErrTokenMissing
	}
	return m.ParseToken(strings.TrimSpace(token))
}
