// Package errcode 定义业务错误类型，每种类型对应固定的 HTTP 状态码.
//
// 下层用 fmt.Errorf("...: %w", err) 包装，handler 通过 As 取出 *Error 渲染响应.
package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别.
type Kind string

const (
	KindValidation       Kind = "ValidationError"
	KindPermissionDenied Kind = "PermissionDenied"
	KindNotFound         Kind = "NotFound"
	KindGone             Kind = "Gone"
	KindStorageIntegrity Kind = "StorageIntegrityError"
	KindSecurityEvent    Kind = "SecurityEvent"
	KindUnauthorized     Kind = "Unauthorized"
	KindInternal         Kind = "Internal"
)

var statusByKind = map[Kind]int{
	KindValidation:       http.StatusBadRequest,
	KindPermissionDenied: http.StatusForbidden,
	KindNotFound:         http.StatusNotFound,
	KindGone:             http.StatusGone,
	KindStorageIntegrity: http.StatusInternalServerError,
	KindSecurityEvent:    http.StatusForbidden,
	KindUnauthorized:     http.StatusUnauthorized,
	KindInternal:         http.StatusInternalServerError,
}

// 对外可见的通用消息，详细原因只进日志.
const (
	msgStorageIntegrity = "stored object is unavailable"
	msgSecurityEvent    = "request refused"
	msgInternal         = "internal server error"
)

// Error 业务错误.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  map[string]string // 字段级校验信息，可为空
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap 返回底层错误.
func (e *Error) Unwrap() error { return e.cause }

// Is 按 Kind 比较，使 errors.Is(err, errcode.ErrGone) 成立.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

// WithCause 返回携带底层错误的副本.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err

	return &c
}

// WithFields 返回携带字段级信息的副本.
func (e *Error) WithFields(fields map[string]string) *Error {
	c := *e
	c.Fields = fields

	return &c
}

// New 创建指定类别的错误.
func New(kind Kind, msg string) *Error {
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	return &Error{Kind: kind, Status: status, Message: msg}
}

// 哨兵错误，只用于 errors.Is 比较.
var (
	ErrValidation       = New(KindValidation, "validation failed")
	ErrPermissionDenied = New(KindPermissionDenied, "permission denied")
	ErrNotFound         = New(KindNotFound, "not found")
	ErrGone             = New(KindGone, "gone")
	ErrStorageIntegrity = New(KindStorageIntegrity, msgStorageIntegrity)
	ErrSecurityEvent    = New(KindSecurityEvent, msgSecurityEvent)
	ErrUnauthorized     = New(KindUnauthorized, "unauthorized")
	ErrInternal         = New(KindInternal, msgInternal)
)

// Validation 参数校验失败，消息原样返回给调用方.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// PermissionDenied 无权限.
func PermissionDenied(msg string) *Error { return New(KindPermissionDenied, msg) }

// NotFound 资源不存在.
func NotFound(msg string) *Error { return New(KindNotFound, msg) }

// Gone 状态已终结，例如重复验证.
func Gone(msg string) *Error { return New(KindGone, msg) }

// Unauthorized 未认证.
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }

// StorageIntegrity 元数据存在但字节缺失.
func StorageIntegrity(cause error) *Error {
	return New(KindStorageIntegrity, msgStorageIntegrity).WithCause(cause)
}

// SecurityEvent 安全事件拒绝.
func SecurityEvent(cause error) *Error {
	return New(KindSecurityEvent, msgSecurityEvent).WithCause(cause)
}

// Internal 内部错误.
func Internal(cause error) *Error {
	return New(KindInternal, msgInternal).WithCause(cause)
}

// As 从错误链中取出 *Error，没有时按 Internal 处理.
func As(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Internal(err)
}

// IsKind 判断错误链中是否有指定类别.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	return e.Kind == kind
}
