package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	avatar, ok := cfg.Files.Rule("AVATAR")
	require.True(t, ok)
	assert.True(t, avatar.SingleInstance)
	assert.True(t, avatar.Public)
	assert.Equal(t, "accounts", avatar.RelatedTable)
	assert.True(t, avatar.AllowsExtension(".PNG"))
	assert.False(t, avatar.AllowsGroup(""))
	assert.Equal(t, int64(defaultGeneralMaxSize), cfg.Files.MaxUploadBytes())
}

func TestSingleInstanceRuleNeedsRelatedTable(t *testing.T) {
	cfg := Defaults()

	rule := cfg.Files.Rules[ResourceTypeAvatar]
	rule.RelatedTable = ""
	cfg.Files.Rules[ResourceTypeAvatar] = rule

	assert.ErrorContains(t, cfg.Validate(), "related_table")
}

func TestInitConfigFromDirectory(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: 9000
  reload_config: false
auth:
  jwt_secret: "0123456789abcdef0123"
verification:
  enhanced: true
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	t.Setenv("PHOTOARCHIVE_SERVER_TIMEOUT", "45")

	require.NoError(t, InitConfig(dir))

	cfg := GetConfig()
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 45, cfg.Server.Timeout)
	assert.True(t, cfg.Verification.Enhanced)
	assert.Equal(t, "0123456789abcdef0123", cfg.Auth.JWTSecret)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), GetViper().ConfigFileUsed())
}

func TestInitConfigRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  bcrypt_cost: 2\n"), 0o600))

	assert.Error(t, InitConfig(path))
}

func TestRateLimitKeyMode(t *testing.T) {
	cases := []struct {
		key, mode, header string
	}{
		{"", RateLimitGlobal, ""},
		{"GLOBAL", RateLimitGlobal, ""},
		{"ip", RateLimitIP, ""},
		{"header: X-Api-Key", "header", "X-Api-Key"},
		{"Header:X-Client", "header", "X-Client"},
		{"header:", RateLimitIP, ""},
	}

	for _, tc := range cases {
		mode, header := RateLimitConfig{Key: tc.key}.KeyMode()
		assert.Equal(t, tc.mode, mode, tc.key)
		assert.Equal(t, tc.header, header, tc.key)
	}
}

func TestCircuitBreakerTrips(t *testing.T) {
	cfg := CircuitBreakerConfig{FailureRate: 0.5, MinRequests: 4}

	assert.False(t, cfg.Trips(3, 3))
	assert.False(t, cfg.Trips(4, 1))
	assert.True(t, cfg.Trips(4, 2))
	assert.False(t, CircuitBreakerConfig{}.Trips(0, 0))
}
