package configs

import (
	"time"

	"github.com/spf13/viper"
)

// 熔断器默认值，HTTP 入口与 blob 存储共用一份配置.
const (
	DefaultCBEnabled           = false
	DefaultCBFailureRate       = 0.5
	DefaultCBMinRequests       = 20
	DefaultCBIntervalSeconds   = 60
	DefaultCBTimeoutSeconds    = 30
	DefaultCBMaxRequestsInHalf = 5
)

// CircuitBreakerConfig 熔断器配置.
type CircuitBreakerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// FailureRate 统计窗口内失败占比达到该值即打开
	FailureRate float64 `mapstructure:"failure_rate"         rule:"gte=0,lte=1"`
	// MinRequests 窗口内请求数不足时不打开
	MinRequests       uint32 `mapstructure:"min_requests"`
	IntervalSeconds   int    `mapstructure:"interval_seconds"     rule:"gte=0"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"      rule:"gte=0"` // 打开后多久进入半开
	MaxRequestsInHalf uint32 `mapstructure:"max_requests_in_half"`
}

// Interval 闭合状态下清零计数的周期，0 表示不清零.
func (c CircuitBreakerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout 打开状态的持续时间.
func (c CircuitBreakerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Trips 根据窗口计数判断是否应当打开.
func (c CircuitBreakerConfig) Trips(requests, failures uint32) bool {
	if requests == 0 || requests < c.MinRequests {
		return false
	}

	return float64(failures)/float64(requests) >= c.FailureRate
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", DefaultCBEnabled)
	v.SetDefault("circuit_breaker.failure_rate", DefaultCBFailureRate)
	v.SetDefault("circuit_breaker.min_requests", DefaultCBMinRequests)
	v.SetDefault("circuit_breaker.interval_seconds", DefaultCBIntervalSeconds)
	v.SetDefault("circuit_breaker.timeout_seconds", DefaultCBTimeoutSeconds)
	v.SetDefault("circuit_breaker.max_requests_in_half", DefaultCBMaxRequestsInHalf)
}
