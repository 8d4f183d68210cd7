package notify

import (
	"context"

	nlog "github.com/yeisme/photoarchive/pkg/log"
)

// LogSender 邮件未启用时使用，渲染后写入日志.
type LogSender struct {
	renderer *Renderer
}

// NewLogSender 创建日志发送者.
func NewLogSender(r *Renderer) *LogSender {
	return &LogSender{renderer: r}
}

func (s *LogSender) Send(_ context.Context, to, subject string, content Content) (bool, string) {
	body, err := s.renderer.Render(content)
	if err != nil {
		record(content.Template, false)
		return false, err.Error()
	}

	record(content.Template, true)

	nlog.Logger().Info().
		Str("template", content.Template).
		Str("to", to).
		Str("subject", subject).
		Int("body_len", len(body)).
		Msg("邮件未启用，通知仅记录日志")

	return true, "logged"
}
