package types

import "github.com/yeisme/photoarchive/pkg/scheduler"

// ErrorResponse 错误响应.
type ErrorResponse struct {
	Error   string            `json:"error"`             // 错误类别，例如 ValidationError
	Message string            `json:"message"`           // 可读信息
	Fields  map[string]string `json:"fields,omitempty"`  // 字段级校验错误
	TraceID string            `json:"trace_id,omitempty"`
}

// MessageResponse 只包含提示信息与告警的响应.
type MessageResponse struct {
	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"` // 通知发送失败等不影响结果的问题
}

// HealthResponse 健康检查结果.
type HealthResponse struct {
	Component string `json:"component"`
	Status    string `json:"status"` // ok / unhealthy
}

// JobsResponse 定时任务列表.
type JobsResponse struct {
	Jobs []scheduler.JobInfo `json:"jobs"`
}
