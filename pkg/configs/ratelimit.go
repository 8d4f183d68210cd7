package configs

import (
	"strings"

	"github.com/spf13/viper"
)

// 限流维度.
const (
	RateLimitGlobal = "global"
	RateLimitIP     = "ip"
	rateLimitHeader = "header:"
)

// RateLimitConfig 令牌桶限流配置.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"gte=0"`
	Burst   int     `mapstructure:"burst" rule:"gte=0"`
	// Key 为 global、ip 或 header:<Header-Name>，header 缺失时按 IP 计
	Key string `mapstructure:"key"`
}

// KeyMode 解析 Key，返回维度与 header 名.
func (c RateLimitConfig) KeyMode() (mode, header string) {
	key := strings.TrimSpace(c.Key)

	switch {
	case key == "" || strings.EqualFold(key, RateLimitGlobal):
		return RateLimitGlobal, ""
	case len(key) > len(rateLimitHeader) && strings.EqualFold(key[:len(rateLimitHeader)], rateLimitHeader):
		return "header", strings.TrimSpace(key[len(rateLimitHeader):])
	default:
		return RateLimitIP, ""
	}
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 50.0)
	v.SetDefault("rate_limit.burst", 100)
	v.SetDefault("rate_limit.key", RateLimitIP)
}
