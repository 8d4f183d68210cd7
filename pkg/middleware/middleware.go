// Package middleware 提供 gin 中间件：认证、权限组、日志、限流、熔断、监控与追踪.
package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photoarchive/pkg/configs"
)

// Default 返回全局中间件链，顺序为 recovery、追踪、日志、监控、CORS、限流、熔断、压缩.
func Default(cfg *configs.AppConfig) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{
		gin.Recovery(),
		TracingMiddleware(),
		GinLoggerMiddleware(),
	}

	if cfg.Metrics.Enabled {
		chain = append(chain, PrometheusMiddleware())
	}

	chain = append(chain,
		CORSMiddleware(cfg.Server),
		RateLimitMiddleware(cfg.RateLimit),
		CircuitBreakerMiddleware(cfg.CircuitBreaker),
	)

	if cfg.Server.Gzip {
		chain = append(chain, gzip.Gzip(gzip.DefaultCompression))
	}

	return chain
}
