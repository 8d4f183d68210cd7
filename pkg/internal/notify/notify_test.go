package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/photoarchive/pkg/configs"
)

func TestRenderTemplates(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(Content{Template: TemplateVerifyCode, Vars: map[string]any{
		"Username":    "alice",
		"CompanyName": "PhotoArchive",
		"Link":        "https://example.com/verify/abc",
		"Code":        "123456",
		"ExpiresIn":   "10m0s",
	}})
	require.NoError(t, err)
	assert.Contains(t, out, "123456")
	assert.Contains(t, out, "https://example.com/verify/abc")

	out, err = r.Render(Content{Template: TemplateInfoUpdate, Vars: map[string]any{
		"Username": "alice",
		"Changes":  []map[string]string{{"Field": "bio", "Old": "a", "New": "<b>"}},
	}})
	require.NoError(t, err)
	assert.Contains(t, out, "&lt;b&gt;")

	out, err = r.Render(Content{Template: TemplateSecurityAlert, Vars: map[string]any{
		"IncidentID": "01H",
		"Headers":    map[string][]string{"User-Agent": {"curl"}},
	}})
	require.NoError(t, err)
	assert.Contains(t, out, "User-Agent")
}

func TestRenderUnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render(Content{Template: "nope"})
	assert.Error(t, err)
}

func TestNewDisabledMailLogs(t *testing.T) {
	s, err := New(configs.MailConfig{Enabled: false})
	require.NoError(t, err)
	require.IsType(t, &LogSender{}, s)

	ok, msg := s.Send(context.Background(), "a@example.com", "hi", Content{Template: TemplateVerifyCode})
	assert.True(t, ok)
	assert.Equal(t, "logged", msg)
}

func TestSMTPSenderReportsFailure(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	s := NewSMTPSender(configs.MailConfig{
		Enabled:   true,
		Host:      "127.0.0.1",
		Port:      1,
		From:      "noreply@example.com",
		TLSPolicy: "none",
	}, r)

	ok, msg := s.Send(context.Background(), "not-an-address", "hi", Content{Template: TemplateVerifyCode})
	assert.False(t, ok)
	assert.Equal(t, "invalid recipient address", msg)
}
