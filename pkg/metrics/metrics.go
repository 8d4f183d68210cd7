// Package metrics 提供 Prometheus 监控指标.
//
// Example:
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.ResourcesStored.WithLabelValues("avatar").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 注册 pprof 端点到 DefaultServeMux
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/photoarchive/pkg/configs"
)

// HTTP 指标.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)
)

// 业务指标.
var (
	// ResourcesStored 成功写入的资源数，按资源类型.
	ResourcesStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoarchive_resources_stored_total",
			Help: "Resources whose bytes and metadata were persisted",
		},
		[]string{"type"},
	)

	// ResourcesDeleted 软删除的资源数，reason 为 delete / superseded.
	ResourcesDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoarchive_resources_deleted_total",
			Help: "Resources soft-deleted",
		},
		[]string{"type", "reason"},
	)

	// BytesRemovalFailures 字节删除失败次数，后续由清理任务重试.
	BytesRemovalFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "photoarchive_bytes_removal_failures_total",
			Help: "Best-effort byte removals that failed",
		},
	)

	// PermissionDecisions 权限判定结果.
	PermissionDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoarchive_permission_decisions_total",
			Help: "Permission evaluator decisions",
		},
		[]string{"operation", "decision"},
	)

	// VerificationAttempts 账号验证尝试，mode 为 link / code.
	VerificationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoarchive_verification_attempts_total",
			Help: "Account verification attempts",
		},
		[]string{"mode", "outcome"},
	)

	// SecurityEvents 安全事件计数.
	SecurityEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoarchive_security_events_total",
			Help: "Security events raised",
		},
		[]string{"kind"},
	)

	// NotificationsSent 通知发送结果.
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoarchive_notifications_total",
			Help: "Notification send attempts",
		},
		[]string{"template", "outcome"},
	)
)

var (
	registry = prometheus.NewRegistry()

	registerOnce sync.Once
	customMu     sync.Mutex
	custom       = map[string]prometheus.Counter{}
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	registerOnce.Do(func() {
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		registry.MustRegister(
			RequestCounter, RequestDuration, ActiveConnections,
			ResourcesStored, ResourcesDeleted, BytesRemovalFailures,
			PermissionDecisions, VerificationAttempts, SecurityEvents, NotificationsSent,
		)

		for _, name := range config.CustomMetrics {
			if _, err = Custom(name); err != nil {
				return
			}
		}
	})

	return err
}

// Custom 返回按名称注册的自定义计数器，不存在时创建.
func Custom(name string) (prometheus.Counter, error) {
	customMu.Lock()
	defer customMu.Unlock()

	if c, ok := custom[name]; ok {
		return c, nil
	}

	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: "custom counter " + name})
	if err := registry.Register(c); err != nil {
		return nil, err
	}

	custom[name] = c

	return c, nil
}

// StartMetricsServer 在给定 engine 上挂载 /metrics 与可选的 pprof 端点.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
