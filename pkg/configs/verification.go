package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultVerifyCodeLength  = 6
	DefaultVerifyCodeTTL     = 10 * time.Minute
	DefaultVerifyMaxAttempts = 5
	DefaultVerifyWindow      = 15 * time.Minute
	DefaultPermissionGroup   = "user"
	DefaultPendingGroup      = "pending"
	DefaultAdminGroup        = "admin"
)

// VerificationConfig 账号验证流程配置.
//
// Enhanced 为部署级开关：false 为仅链接验证，true 为链接+验证码验证.
type VerificationConfig struct {
	Enhanced      bool          `mapstructure:"enhanced"`
	CodeLength    int           `mapstructure:"code_length"    rule:"min=4,max=12"`
	CodeTTL       time.Duration `mapstructure:"code_ttl"       rule:"gt=0"`
	MaxAttempts   int           `mapstructure:"max_attempts"   rule:"min=1"`
	AttemptWindow time.Duration `mapstructure:"attempt_window" rule:"gt=0"`
	FrontendURL   string        `mapstructure:"frontend_url"   rule:"required,url"`
	BackendURL    string        `mapstructure:"backend_url"    rule:"required,url"`
	DefaultGroup  string        `mapstructure:"default_group"  rule:"required"`
	PendingGroup  string        `mapstructure:"pending_group"  rule:"required"`
	AdminGroup    string        `mapstructure:"admin_group"    rule:"required"`
}

func (c *VerificationConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("verification.enhanced", false)
	v.SetDefault("verification.code_length", DefaultVerifyCodeLength)
	v.SetDefault("verification.code_ttl", DefaultVerifyCodeTTL)
	v.SetDefault("verification.max_attempts", DefaultVerifyMaxAttempts)
	v.SetDefault("verification.attempt_window", DefaultVerifyWindow)
	v.SetDefault("verification.frontend_url", "http://localhost:5173")
	v.SetDefault("verification.backend_url", "http://localhost:8080")
	v.SetDefault("verification.default_group", DefaultPermissionGroup)
	v.SetDefault("verification.pending_group", DefaultPendingGroup)
	v.SetDefault("verification.admin_group", DefaultAdminGroup)
}
