package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	pkgerrors "campus-works/pkg/errors"
	"campus-works/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

// MustGetCaller 同时提取 user_id 与 role
func MustGetCaller(c *gin.Context) (userID, role string, ok bool) {
	if userID, ok = MustGetUserID(c); !ok {
		return "", "", false
	}
	if role, ok = MustGetRole(c); !ok {
		return "", "", false
	}
	return userID, role, true
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// mustParam 读取路径参数，为空时写入 400
func mustParam(c *gin.Context, name, label string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		response.BadRequest(c, 10001, label+"不能为空")
		return "", false
	}
	return v, true
}

// respondByCategory 未被模块显式处理的业务错误按类别兜底映射
// 其他模块的哨兵错误（如岗位接口返回的项目不存在）也走这里
func respondByCategory(c *gin.Context, err error) {
	category := pkgerrors.Category(err)
	if category == nil {
		response.InternalError(c)
		return
	}

	msg := strings.TrimSuffix(err.Error(), ": "+category.Error())
	switch {
	case errors.Is(category, pkgerrors.ErrValidation):
		response.BadRequest(c, 10001, msg)
	case errors.Is(category, pkgerrors.ErrNotFound):
		response.NotFound(c, 10005, msg)
	case errors.Is(category, pkgerrors.ErrUnauthorized):
		response.Forbidden(c, 10003, msg)
	case errors.Is(category, pkgerrors.ErrInvariantViolation),
		errors.Is(category, pkgerrors.ErrInvalidTransition):
		response.Conflict(c, 10006, msg)
	default:
		response.InternalError(c)
	}
}
