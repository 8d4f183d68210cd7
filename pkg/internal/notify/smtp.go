package notify

import (
	"context"

	"github.com/wneessen/go-mail"

	"github.com/yeisme/photoarchive/pkg/configs"
	nlog "github.com/yeisme/photoarchive/pkg/log"
)

// SMTPSender 通过 SMTP 发送 HTML 邮件.
type SMTPSender struct {
	cfg      configs.MailConfig
	renderer *Renderer
}

// NewSMTPSender 创建 SMTP 发送者，连接在每次发送时建立.
func NewSMTPSender(cfg configs.MailConfig, r *Renderer) *SMTPSender {
	return &SMTPSender{cfg: cfg, renderer: r}
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.cfg.Port)}

	switch s.cfg.TLSPolicy {
	case "mandatory":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	return opts
}

// Send 渲染模板并发送.
func (s *SMTPSender) Send(ctx context.Context, to, subject string, content Content) (bool, string) {
	ok, msg := s.send(ctx, to, subject, content)
	record(content.Template, ok)

	if !ok {
		nlog.Logger().Warn().
			Str("template", content.Template).
			Str("to", to).
			Str("reason", msg).
			Msg("邮件发送失败")
	}

	return ok, msg
}

func (s *SMTPSender) send(ctx context.Context, to, subject string, content Content) (bool, string) {
	tpl, err := s.renderer.Lookup(content.Template)
	if err != nil {
		return false, err.Error()
	}

	m := mail.NewMsg()
	if err := m.FromFormat(s.cfg.CompanyName, s.cfg.From); err != nil {
		return false, "invalid sender address"
	}

	if err := m.To(to); err != nil {
		return false, "invalid recipient address"
	}

	m.Subject(subject)

	if err := m.SetBodyHTMLTemplate(tpl, content.Vars); err != nil {
		return false, err.Error()
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return false, err.Error()
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return false, err.Error()
	}

	return true, "sent"
}
