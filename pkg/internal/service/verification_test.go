package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/photoarchive/pkg/cache"
	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/errcode"
	"github.com/yeisme/photoarchive/pkg/internal/model"
	"github.com/yeisme/photoarchive/pkg/internal/notify"
	"github.com/yeisme/photoarchive/pkg/internal/types"
	"github.com/yeisme/photoarchive/pkg/queue"
)

func register(t *testing.T, e *env, name string) *model.Account {
	t.Helper()

	resp, err := e.accountSvc.Register(context.Background(), &types.RegisterRequest{
		Username: name,
		Email:    name + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	return resp.Account
}

func storedCode(t *testing.T, e *env, id uint) string {
	t.Helper()

	a, err := e.accounts.GetByID(context.Background(), id)
	require.NoError(t, err)

	var notes verificationNotes
	require.NoError(t, sonic.UnmarshalString(a.Notes, &notes))

	return notes.VerifyCode
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}

	return "000000"
}

func TestLinkAndCodeScenario(t *testing.T) {
	e := newEnv(t, nil, withEnhanced)
	ctx := context.Background()

	a := register(t, e, "alice")
	assert.Equal(t, model.AccountPending, a.Status)
	assert.Equal(t, e.cfg.Verification.PendingGroup, a.PermissionGroup)

	code := storedCode(t, e, a.ID)
	assert.Len(t, code, e.cfg.Verification.CodeLength)

	mail := e.sender.last(t)
	assert.Equal(t, notify.TemplateVerifyCode, mail.Content.Template)
	assert.Equal(t, code, mail.Content.Vars["Code"])

	_, err := e.verification.VerifyCode(ctx, a.ID, a.UniqueIdentifier, wrongCode(code))
	require.Error(t, err)
	assert.True(t, errcode.IsKind(err, errcode.KindValidation))

	still, err := e.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AccountPending, still.Status)

	activated, err := e.verification.VerifyCode(ctx, a.ID, a.UniqueIdentifier, code)
	require.NoError(t, err)
	assert.Equal(t, model.AccountActive, activated.Status)

	got, err := e.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AccountActive, got.Status)
	assert.Empty(t, got.Notes)
	assert.Equal(t, e.cfg.Verification.DefaultGroup, got.PermissionGroup)

	_, err = e.verification.VerifyCode(ctx, a.ID, a.UniqueIdentifier, code)
	assert.True(t, errcode.IsKind(err, errcode.KindGone))
}

func TestVerifyCodeFailuresAreIndistinguishable(t *testing.T) {
	e := newEnv(t, nil, withEnhanced)
	ctx := context.Background()

	a := register(t, e, "alice")
	code := storedCode(t, e, a.ID)

	_, errIdent := e.verification.VerifyCode(ctx, a.ID, "not-the-identifier", code)
	_, errCode := e.verification.VerifyCode(ctx, a.ID, a.UniqueIdentifier, wrongCode(code))

	require.Error(t, errIdent)
	require.Error(t, errCode)
	assert.Equal(t, errcode.As(errIdent).Message, errcode.As(errCode).Message)

	got, err := e.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AccountPending, got.Status)
	assert.NotEmpty(t, got.Notes)
}

func TestVerifyCodeExpires(t *testing.T) {
	e := newEnv(t, nil, withEnhanced)
	ctx := context.Background()

	a := register(t, e, "alice")
	code := storedCode(t, e, a.ID)

	e.verification.now = func() time.Time { return time.Now().Add(e.cfg.Verification.CodeTTL + time.Minute) }

	_, err := e.verification.VerifyCode(ctx, a.ID, a.UniqueIdentifier, code)
	assert.True(t, errcode.IsKind(err, errcode.KindValidation))
}

func TestVerifyCodeAttemptLimit(t *testing.T) {
	e := newEnv(t, nil, withEnhanced, func(cfg *configs.AppConfig) { cfg.Verification.MaxAttempts = 2 })
	ctx := context.Background()

	a := register(t, e, "alice")
	code := storedCode(t, e, a.ID)

	for range 2 {
		_, err := e.verification.VerifyCode(ctx, a.ID, a.UniqueIdentifier, wrongCode(code))
		require.Error(t, err)
	}

	_, err := e.verification.VerifyCode(ctx, a.ID, a.UniqueIdentifier, code)
	assert.True(t, errcode.IsKind(err, errcode.KindValidation))

	got, err := e.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AccountPending, got.Status)
}

func TestVerifyCodeAttemptLimitHoldsUnderConcurrency(t *testing.T) {
	e := newEnv(t, nil, withEnhanced, func(cfg *configs.AppConfig) { cfg.Verification.MaxAttempts = 3 })
	ctx := context.Background()

	a := register(t, e, "alice")
	code := storedCode(t, e, a.ID)

	const submissions = 16

	var wg sync.WaitGroup

	for range submissions {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := e.verification.VerifyCode(ctx, a.ID, a.UniqueIdentifier, wrongCode(code))
			assert.True(t, errcode.IsKind(err, errcode.KindValidation))
		}()
	}

	wg.Wait()

	n, err := cache.Get[int64](ctx, e.verification.attempts, attemptsKey(a.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(submissions), n)

	// 窗口内的正确验证码同样被拒绝
	_, err = e.verification.VerifyCode(ctx, a.ID, a.UniqueIdentifier, code)
	assert.True(t, errcode.IsKind(err, errcode.KindValidation))

	got, err := e.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AccountPending, got.Status)
}

func TestResendIssuesFreshCode(t *testing.T) {
	e := newEnv(t, nil, withEnhanced)
	ctx := context.Background()

	a := register(t, e, "alice")
	first := storedCode(t, e, a.ID)

	warnings, err := e.verification.Resend(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	second := storedCode(t, e, a.ID)
	assert.Equal(t, second, e.sender.last(t).Content.Vars["Code"])

	if first != second {
		_, err = e.verification.VerifyCode(ctx, a.ID, a.UniqueIdentifier, first)
		assert.Error(t, err)
	}

	_, err = e.verification.VerifyCode(ctx, a.ID, a.UniqueIdentifier, second)
	require.NoError(t, err)

	_, err = e.verification.Resend(ctx, a.ID)
	assert.True(t, errcode.IsKind(err, errcode.KindGone))
}

func TestLinkOnlyProtocol(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	a := register(t, e, "alice")

	got, err := e.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes)

	mail := e.sender.last(t)
	assert.Contains(t, mail.Content.Vars["Link"], a.UniqueIdentifier)
	assert.NotContains(t, mail.Content.Vars, "Code")

	_, err = e.verification.VerifyLink(ctx, "unknown", RequestSnapshot{})
	assert.True(t, errcode.IsKind(err, errcode.KindNotFound))

	activated, err := e.verification.VerifyLink(ctx, a.UniqueIdentifier, RequestSnapshot{})
	require.NoError(t, err)
	assert.Equal(t, model.AccountActive, activated.Status)
	assert.Equal(t, e.cfg.Verification.DefaultGroup, activated.PermissionGroup)

	_, err = e.verification.VerifyLink(ctx, a.UniqueIdentifier, RequestSnapshot{})
	assert.True(t, errcode.IsKind(err, errcode.KindGone))

	// 仅链接部署不接受验证码提交
	b := register(t, e, "bob")
	_, err = e.verification.VerifyCode(ctx, b.ID, b.UniqueIdentifier, "123456")
	assert.True(t, errcode.IsKind(err, errcode.KindValidation))
}

func TestLinkOnEnhancedDeploymentIsSecurityEvent(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	t.Cleanup(func() { _ = ps.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	alerts, err := ps.Subscribe(ctx, queue.TopicSecurityAlert)
	require.NoError(t, err)

	e := newEnv(t, ps, withEnhanced)
	a := register(t, e, "alice")

	snap := RequestSnapshot{
		RemoteIP:  "203.0.113.7",
		UserAgent: "curl/8.0",
		Headers:   map[string][]string{"Authorization": {"Bearer secret"}, "X-Test": {"1"}},
		Body:      "probe",
	}

	_, err = e.verification.VerifyLink(ctx, a.UniqueIdentifier, snap)
	require.Error(t, err)
	assert.True(t, errcode.IsKind(err, errcode.KindSecurityEvent))

	mail := e.sender.last(t)
	assert.Equal(t, e.cfg.Mail.AdminEmail, mail.To)
	assert.Equal(t, notify.TemplateSecurityAlert, mail.Content.Template)
	assert.Equal(t, "203.0.113.7", mail.Content.Vars["RemoteIP"])

	select {
	case msg := <-alerts:
		env, err := queue.ParseSecurityAlert(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Equal(t, SecurityKindProtocolMismatch, env.Payload.Kind)
		assert.Equal(t, a.UniqueIdentifier, env.Payload.Identifier)
		assert.Equal(t, []string{"[redacted]"}, env.Payload.Headers["Authorization"])
		assert.Equal(t, []string{"1"}, env.Payload.Headers["X-Test"])
	case <-ctx.Done():
		t.Fatal("security alert not published")
	}

	got, err := e.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AccountPending, got.Status)
}

func TestRandomDigits(t *testing.T) {
	code, err := randomDigits(6)
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9]{6}$`, code)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", 4095) + "照片"

	got := truncate(s, maxSnapshotBody)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 4095), got)

	assert.Equal(t, "ab", truncate("ab", 4))
	assert.Equal(t, "a照", truncate("a照片", 5))
}
