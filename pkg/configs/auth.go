package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultJWTTTL     = 30 * time.Minute // 登录令牌有效期
	DefaultJWTIssuer  = "photoarchive"
	DefaultBcryptCost = 12
)

// AuthConfig 登录令牌与密码哈希配置.
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"  json:"-" rule:"required,min=16"`
	JWTIssuer  string        `mapstructure:"jwt_issuer"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"   rule:"gt=0"`
	BcryptCost int           `mapstructure:"bcrypt_cost" rule:"min=4,max=31"`
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	// 默认密钥仅用于本地开发，生产环境必须通过 PHOTOARCHIVE_AUTH_JWT_SECRET 覆盖
	v.SetDefault("auth.jwt_secret", "photoarchive-dev-secret-change-me")
	v.SetDefault("auth.jwt_issuer", DefaultJWTIssuer)
	v.SetDefault("auth.token_ttl", DefaultJWTTTL)
	v.SetDefault("auth.bcrypt_cost", DefaultBcryptCost)
}
