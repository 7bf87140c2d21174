package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeOK 成功业务码；失败业务码按模块分段，见各 Handler 的 handleXxxError
const CodeOK = 0

// CodeInternal 未归类错误统一使用的业务码
const CodeInternal = 50000

// Response 统一响应结构
// 失败响应带上 request_id，便于按日志排查
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func success(c *gin.Context, httpStatus int, data interface{}) {
	c.JSON(httpStatus, Response{Code: CodeOK, Message: "success", Data: data})
}

func failure(c *gin.Context, httpStatus, code int, message string, details interface{}) {
	c.JSON(httpStatus, Response{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: c.GetString("request_id"),
	})
}

// OK 200
func OK(c *gin.Context, data interface{}) {
	success(c, http.StatusOK, data)
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	success(c, http.StatusCreated, data)
}

// List 200，列表统一包装为 {"list": [...]}，nil 切片输出为 []
func List[T any](c *gin.Context, list []T) {
	if list == nil {
		list = []T{}
	}
	OK(c, gin.H{"list": list})
}

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	failure(c, httpStatus, code, message, nil)
}

// ErrorWithDetails details 为结构化的业务上下文（如冲突的资源）
func ErrorWithDetails(c *gin.Context, httpStatus int, code int, message string, details interface{}) {
	failure(c, httpStatus, code, message, details)
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409 业务不变量冲突
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// ConflictWithDetails 409 并附带冲突对象
func ConflictWithDetails(c *gin.Context, code int, message string, details interface{}) {
	ErrorWithDetails(c, http.StatusConflict, code, message, details)
}

// InternalError 500，不向调用方暴露内部错误信息
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternal, "服务器内部错误")
}
