package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/oklog/ulid"
	"github.com/rs/zerolog"

	"github.com/yeisme/photoarchive/pkg/cache"
	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/errcode"
	"github.com/yeisme/photoarchive/pkg/internal/model"
	"github.com/yeisme/photoarchive/pkg/internal/notify"
	"github.com/yeisme/photoarchive/pkg/internal/repository"
	nlog "github.com/yeisme/photoarchive/pkg/log"
	"github.com/yeisme/photoarchive/pkg/metrics"
	"github.com/yeisme/photoarchive/pkg/queue"
	"github.com/yeisme/photoarchive/pkg/tracing"
)

// 验证方式.
const (
	ModeLink = "link"
	ModeCode = "code"
)

// SecurityKindProtocolMismatch 启用验证码的部署收到了仅链接方式的请求.
const SecurityKindProtocolMismatch = "verification_protocol_mismatch"

// maxSnapshotBody 告警中保留的请求体长度.
const maxSnapshotBody = 4096

var errVerificationFailed = errcode.Validation("verification failed")

// redactedHeaders 告警快照中不保留原值的请求头.
var redactedHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
}

// Challenge 发给用户的验证信息，Code 仅在启用验证码时非空.
type Challenge struct {
	Link      string
	Code      string
	ExpiresAt time.Time
}

// RequestSnapshot 触发安全事件的请求快照.
type RequestSnapshot struct {
	RemoteIP  string
	UserAgent string
	Headers   map[string][]string
	Body      string
}

// verificationNotes 存放在 Account.Notes 中的待验证数据.
type verificationNotes struct {
	VerifyCode string    `json:"verify_code"`
	IssuedAt   time.Time `json:"issued_at"`
}

// VerificationService 账号验证状态机：pending(5) -> active(1).
type VerificationService struct {
	accounts repository.AccountRepository
	cfg      configs.VerificationConfig
	mail     configs.MailConfig
	sender   notify.Sender
	attempts *cache.Cache
	events   *EventSink
	logger   zerolog.Logger
	now      func() time.Time
}

// NewVerificationService attempts 为 nil 时不限制尝试次数.
func NewVerificationService(accounts repository.AccountRepository, cfg configs.VerificationConfig,
	mail configs.MailConfig, sender notify.Sender, attempts *cache.Cache, events *EventSink,
) *VerificationService {
	return &VerificationService{
		accounts: accounts,
		cfg:      cfg,
		mail:     mail,
		sender:   sender,
		attempts: attempts,
		events:   events,
		logger:   nlog.Component("verification"),
		now:      time.Now,
	}
}

// Enhanced 是否采用 链接+验证码 协议.
func (s *VerificationService) Enhanced() bool { return s.cfg.Enhanced }

// Issue 生成验证信息. 启用验证码时把验证码写入账号 notes.
func (s *VerificationService) Issue(ctx context.Context, account *model.Account) (Challenge, error) {
	if account.Status != model.AccountPending {
		return Challenge{}, errcode.Gone("account is not pending verification")
	}

	if !s.cfg.Enhanced {
		return Challenge{Link: s.linkURL(account.UniqueIdentifier)}, nil
	}

	code, err := randomDigits(s.cfg.CodeLength)
	if err != nil {
		return Challenge{}, errcode.Internal(err)
	}

	now := s.now()

	notes, err := sonic.MarshalString(verificationNotes{VerifyCode: code, IssuedAt: now.UTC()})
	if err != nil {
		return Challenge{}, errcode.Internal(err)
	}

	ok, err := s.accounts.SetPendingNotes(ctx, account.ID, notes)
	if err != nil {
		return Challenge{}, errcode.Internal(err)
	}

	if !ok {
		return Challenge{}, errcode.Gone("account is not pending verification")
	}

	account.Notes = notes

	return Challenge{
		Link:      s.linkURL(account.UniqueIdentifier),
		Code:      code,
		ExpiresAt: now.Add(s.cfg.CodeTTL),
	}, nil
}

func (s *VerificationService) linkURL(identifier string) string {
	if s.cfg.Enhanced {
		return strings.TrimRight(s.cfg.FrontendURL, "/") + "/verify?identifier=" + url.QueryEscape(identifier)
	}

	return strings.TrimRight(s.cfg.BackendURL, "/") + "/api/v1/verify/" + url.PathEscape(identifier)
}

// Notify 发送验证邮件，失败时返回告警信息而不是错误.
func (s *VerificationService) Notify(ctx context.Context, account *model.Account, ch Challenge) []string {
	vars := map[string]any{
		"Username":    account.Username,
		"CompanyName": s.mail.CompanyName,
		"Link":        ch.Link,
	}
	if ch.Code != "" {
		vars["Code"] = ch.Code
		vars["ExpiresIn"] = s.cfg.CodeTTL.String()
	}

	ok, msg := s.sender.Send(ctx, account.Email, "Verify your account", notify.Content{
		Template: notify.TemplateVerifyCode,
		Vars:     vars,
	})
	if !ok {
		return []string{"verification email not sent: " + msg}
	}

	return nil
}

// Resend 为仍在待验证状态的账号重新生成并发送验证信息.
func (s *VerificationService) Resend(ctx context.Context, principalID uint) ([]string, error) {
	account, err := s.accounts.GetByID(ctx, principalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errcode.Unauthorized("account not found")
	}

	if err != nil {
		return nil, errcode.Internal(err)
	}

	ch, err := s.Issue(ctx, account)
	if err != nil {
		return nil, err
	}

	return s.Notify(ctx, account, ch), nil
}

// VerifyLink 仅链接协议的未认证 GET. 启用验证码的部署收到此请求视为安全事件.
func (s *VerificationService) VerifyLink(ctx context.Context, identifier string, snap RequestSnapshot) (*model.Account, error) {
	ctx, span := tracing.StartSpan(ctx, "VerificationService.VerifyLink")
	defer span.End()

	account, outcome, err := s.verifyLink(ctx, identifier, snap)
	metrics.VerificationAttempts.WithLabelValues(ModeLink, outcome).Inc()
	tracing.RecordError(span, err)

	return account, err
}

func (s *VerificationService) verifyLink(ctx context.Context, identifier string, snap RequestSnapshot) (*model.Account, string, error) {
	if s.cfg.Enhanced {
		return nil, "security_event", s.raiseSecurityEvent(ctx, SecurityKindProtocolMismatch, identifier, snap)
	}

	account, err := s.accounts.GetByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "not_found", errcode.NotFound("verification link not found")
	}

	if err != nil {
		return nil, "error", errcode.Internal(err)
	}

	if account.Status != model.AccountPending {
		return nil, "gone", errcode.Gone("verification link has already been used")
	}

	activated, err := s.activate(ctx, account, ModeLink)
	if err != nil {
		return nil, "gone", err
	}

	return activated, "activated", nil
}

// VerifyCode 链接+验证码协议，调用方已认证. 任何不匹配都返回同一个错误.
func (s *VerificationService) VerifyCode(ctx context.Context, principalID uint, identifier, code string) (*model.Account, error) {
	ctx, span := tracing.StartSpan(ctx, "VerificationService.VerifyCode")
	defer span.End()

	account, outcome, err := s.verifyCode(ctx, principalID, identifier, code)
	metrics.VerificationAttempts.WithLabelValues(ModeCode, outcome).Inc()
	tracing.RecordError(span, err)

	return account, err
}

func (s *VerificationService) verifyCode(ctx context.Context, principalID uint, identifier, code string) (*model.Account, string, error) {
	if !s.cfg.Enhanced {
		return nil, "disabled", errVerificationFailed
	}

	account, err := s.accounts.GetByID(ctx, principalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "unauthorized", errcode.Unauthorized("account not found")
	}

	if err != nil {
		return nil, "error", errcode.Internal(err)
	}

	if account.Status != model.AccountPending {
		return nil, "gone", errcode.Gone("account is not pending verification")
	}

	// 先占用一次尝试再比对，并发提交各自拿到不同的序号
	allowed, err := s.reserveAttempt(ctx, account.ID)
	if err != nil {
		return nil, "error", errcode.Internal(err)
	}

	if !allowed {
		return nil, "throttled", errVerificationFailed
	}

	if !s.matches(account, identifier, code) {
		return nil, "rejected", errVerificationFailed
	}

	activated, err := s.activate(ctx, account, ModeCode)
	if err != nil {
		return nil, "gone", err
	}

	s.clearAttempts(ctx, account.ID)

	return activated, "activated", nil
}

// matches 标识、验证码与有效期必须同时满足.
func (s *VerificationService) matches(account *model.Account, identifier, code string) bool {
	var notes verificationNotes
	if account.Notes == "" || sonic.UnmarshalString(account.Notes, &notes) != nil || notes.VerifyCode == "" {
		return false
	}

	idOK := subtle.ConstantTimeCompare([]byte(identifier), []byte(account.UniqueIdentifier)) == 1
	codeOK := subtle.ConstantTimeCompare([]byte(code), []byte(notes.VerifyCode)) == 1
	fresh := s.now().Before(notes.IssuedAt.Add(s.cfg.CodeTTL))

	return idOK && codeOK && fresh
}

// activate 原子的 5 -> 1 转换，未发生变化时返回 Gone.
func (s *VerificationService) activate(ctx context.Context, account *model.Account, mode string) (*model.Account, error) {
	ok, err := s.accounts.Activate(ctx, account.ID, s.cfg.DefaultGroup)
	if err != nil {
		return nil, errcode.Internal(err)
	}

	if !ok {
		return nil, errcode.Gone("account is not pending verification")
	}

	account.Status = model.AccountActive
	account.PermissionGroup = s.cfg.DefaultGroup
	account.Notes = ""

	s.logger.Info().Uint("account_id", account.ID).Str("mode", mode).Msg("账号已激活")
	s.events.AccountActivated(ctx, account, mode)

	return account, nil
}

func attemptsKey(accountID uint) string {
	return fmt.Sprintf("attempts:%d", accountID)
}

// reserveAttempt 原子地计入一次尝试，窗口内超过 MaxAttempts 时返回 false.
func (s *VerificationService) reserveAttempt(ctx context.Context, accountID uint) (bool, error) {
	if s.attempts == nil {
		return true, nil
	}

	n, err := s.attempts.Incr(ctx, attemptsKey(accountID), s.cfg.AttemptWindow)
	if err != nil {
		return false, err
	}

	return n <= int64(s.cfg.MaxAttempts), nil
}

func (s *VerificationService) clearAttempts(ctx context.Context, accountID uint) {
	if s.attempts == nil {
		return
	}

	if err := s.attempts.Delete(ctx, attemptsKey(accountID)); err != nil && !cache.IsMiss(err) {
		s.logger.Warn().Err(err).Uint("account_id", accountID).Msg("清理验证失败次数失败")
	}
}

// raiseSecurityEvent 通知管理员并发布告警事件，始终返回 SecurityEvent 错误.
func (s *VerificationService) raiseSecurityEvent(ctx context.Context, kind, identifier string, snap RequestSnapshot) error {
	incident := ulid.MustNew(ulid.Timestamp(s.now()), rand.Reader).String()

	payload := queue.SecurityAlertPayload{
		IncidentID: incident,
		Kind:       kind,
		Identifier: identifier,
		RemoteIP:   snap.RemoteIP,
		UserAgent:  snap.UserAgent,
		Headers:    redact(snap.Headers),
		Body:       truncate(snap.Body, maxSnapshotBody),
		DetectedAt: s.now().UTC(),
	}

	metrics.SecurityEvents.WithLabelValues(kind).Inc()

	s.logger.Warn().
		Str("incident_id", incident).
		Str("kind", kind).
		Str("identifier", identifier).
		Str("remote_ip", snap.RemoteIP).
		Str("user_agent", snap.UserAgent).
		Msg("安全事件")

	if s.mail.AdminEmail != "" {
		ok, msg := s.sender.Send(ctx, s.mail.AdminEmail, "[security] "+kind, notify.Content{
			Template: notify.TemplateSecurityAlert,
			Vars: map[string]any{
				"IncidentID": payload.IncidentID,
				"Kind":       payload.Kind,
				"Identifier": payload.Identifier,
				"RemoteIP":   payload.RemoteIP,
				"UserAgent":  payload.UserAgent,
				"Headers":    payload.Headers,
				"Body":       payload.Body,
				"DetectedAt": payload.DetectedAt.Format(time.RFC3339),
			},
		})
		if !ok {
			s.logger.Error().Str("incident_id", incident).Str("reason", msg).Msg("安全告警邮件发送失败")
		}
	}

	s.events.SecurityAlert(ctx, payload)

	return errcode.SecurityEvent(fmt.Errorf("incident %s: %s", incident, kind))
}

func redact(h map[string][]string) map[string][]string {
	if len(h) == 0 {
		return nil
	}

	out := make(map[string][]string, len(h))
	for k, v := range h {
		if redactedHeaders[http.CanonicalHeaderKey(k)] {
			out[k] = []string{"[redacted]"}
			continue
		}

		out[k] = append([]string(nil), v...)
	}

	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	// 退到 rune 起始位置，避免截断多字节字符
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}

// randomDigits 使用 crypto/rand 生成十进制验证码.
func randomDigits(n int) (string, error) {
	if n <= 0 {
		n = 6
	}

	var b strings.Builder

	ten := big.NewInt(10)
	for range n {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}

		b.WriteByte(byte('0' + d.Int64()))
	}

	return b.String(), nil
}
