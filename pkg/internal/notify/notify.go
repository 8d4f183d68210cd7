// Package notify 发送模板化通知邮件.
//
// 调用方只提供模板名与变量，发送失败不会影响业务操作，结果以 (ok, msg) 返回.
package notify

import (
	"context"

	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/metrics"
)

// 模板名.
const (
	TemplateVerifyCode    = "verify_code"
	TemplateInfoUpdate    = "info_upd"
	TemplateSecurityAlert = "security_alert"
)

// Content 通知内容.
type Content struct {
	Template string
	Vars     map[string]any
}

// Sender 通知发送者.
type Sender interface {
	Send(ctx context.Context, to, subject string, content Content) (ok bool, msg string)
}

// New 按配置创建发送者，未启用邮件时只写日志.
func New(cfg configs.MailConfig) (Sender, error) {
	r, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	if !cfg.Enabled {
		return &LogSender{renderer: r}, nil
	}

	return NewSMTPSender(cfg, r), nil
}

func record(template string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}

	metrics.NotificationsSent.WithLabelValues(template, outcome).Inc()
}
