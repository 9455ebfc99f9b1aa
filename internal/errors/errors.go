package errors

import "fmt"

type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, message=%s, error=%v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 常用错误
var (
	ErrUsernameExists     = New(ErrUserExists, "用户名已存在")
	ErrInvalidUsername    = New(ErrInvalidParam, "用户名格式不正确")
	ErrInvalidPassword    = New(ErrInvalidParam, "密码格式不正确")
	ErrUserDisabled       = New(ErrForbidden, "用户已被禁用")
	ErrTokenInvalid       = New(ErrUnauthorized, "无效的token")
	ErrSessionNotFound    = New(ErrUnauthorized, "会话不存在或已过期")
	ErrPermissionDenied   = New(ErrForbidden, "权限不足")
	ErrResourceNotFound   = New(ErrNotFound, "请求的资源不存在")
	ErrComparisonConflict = New(ErrComparisonState, "餐食对比记录当前状态不允许该操作")
	ErrUpstreamFailed     = New(ErrExternalService, "外部AI服务调用失败")
	ErrInvalidExercise    = New(ErrExerciseType, "非法的运动类型")
)
