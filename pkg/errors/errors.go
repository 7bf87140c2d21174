package errors

import "errors"

// ── 错误类别 ──
// 业务层哨兵错误统一包装其中一个类别，Handler 按类别兜底映射 HTTP 状态码

var (
	// ErrValidation 输入格式不合法
	ErrValidation = errors.New("参数校验失败")
	// ErrNotFound 实体 ID 无法解析
	ErrNotFound = errors.New("资源不存在")
	// ErrInvariantViolation 违反业务不变量
	ErrInvariantViolation = errors.New("违反业务约束")
	// ErrInvalidTransition 状态机不允许的迁移
	ErrInvalidTransition = errors.New("状态迁移不合法")
	// ErrExternalSync 外部协作同步失败（不影响触发它的业务操作）
	ErrExternalSync = errors.New("外部协作同步失败")
	// ErrUnauthorized 操作者缺少所需角色或归属关系
	ErrUnauthorized = errors.New("无权执行该操作")
)

// Category 返回 err 所属的错误类别，未归类时返回 nil
func Category(err error) error {
	for _, c := range []error{ErrValidation, ErrNotFound, ErrInvariantViolation, ErrInvalidTransition, ErrExternalSync, ErrUnauthorized} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}
