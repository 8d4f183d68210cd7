// Package app 组装存储、service、调度器与 HTTP 引擎.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/photoarchive/pkg/cache"
	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/internal/auth"
	"github.com/yeisme/photoarchive/pkg/internal/handle"
	"github.com/yeisme/photoarchive/pkg/internal/jobs"
	"github.com/yeisme/photoarchive/pkg/internal/notify"
	"github.com/yeisme/photoarchive/pkg/internal/permission"
	"github.com/yeisme/photoarchive/pkg/internal/repository"
	"github.com/yeisme/photoarchive/pkg/internal/router"
	"github.com/yeisme/photoarchive/pkg/internal/service"
	"github.com/yeisme/photoarchive/pkg/internal/storage"
	"github.com/yeisme/photoarchive/pkg/log"
	"github.com/yeisme/photoarchive/pkg/metrics"
	"github.com/yeisme/photoarchive/pkg/middleware"
	"github.com/yeisme/photoarchive/pkg/scheduler"
)

const (
	// verifyCacheNamespace 验证码失败计数在 KV 中的前缀.
	verifyCacheNamespace = "verify"
	shutdownTimeout      = 10 * time.Second
	// maxMultipartMemory 表单解析时保存在内存中的上限，超出部分落到临时文件.
	maxMultipartMemory = 8 << 20
)

// Services 业务层依赖集合.
type Services struct {
	Accounts     *service.AccountService
	Verification *service.VerificationService
	Resources    *service.ResourceService
	Tokens       *auth.TokenManager
	AccountRepo  repository.AccountRepository
}

// NewServices 基于已初始化的存储构造全部 service.
func NewServices(cfg *configs.AppConfig, mgr *storage.Manager) (*Services, error) {
	sender, err := notify.New(cfg.Mail)
	if err != nil {
		return nil, fmt.Errorf("init notify: %w", err)
	}

	accounts := repository.NewAccountRepository(mgr.DB.DB)
	resources := repository.NewResourceRepository(mgr.DB.DB)
	events := service.NewEventSink(mgr.MQ.Publisher(), cfg.Events, log.Component("events"))
	eval := permission.NewEvaluator(accounts, resources, cfg.Files)
	tokens := auth.NewTokenManager(cfg.Auth)

	resourceSvc := service.NewResourceService(resources, eval, mgr.Blob, cfg.Files, events)
	verification := service.NewVerificationService(accounts, cfg.Verification, cfg.Mail, sender,
		cache.NewCache(mgr.KV, verifyCacheNamespace), events)

	return &Services{
		Accounts: service.NewAccountService(service.AccountDeps{
			Accounts:     accounts,
			Resources:    resourceSvc,
			Verification: verification,
			Tokens:       tokens,
			Sender:       sender,
			Events:       events,
			Config:       cfg,
		}),
		Verification: verification,
		Resources:    resourceSvc,
		Tokens:       tokens,
		AccountRepo:  accounts,
	}, nil
}

// App 运行中的应用.
type App struct {
	Engine    *gin.Engine
	Storage   *storage.Manager
	Scheduler *scheduler.Scheduler
	Services  *Services

	server *http.Server
	config *configs.AppConfig
}

// New 初始化存储、service、定时任务与路由. 出错时释放已创建的资源.
func New(ctx context.Context, cfg *configs.AppConfig) (a *App, err error) {
	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	mgr, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = mgr.Close()
		}
	}()

	svcs, err := NewServices(cfg, mgr)
	if err != nil {
		return nil, err
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(sched, svcs.Resources); err != nil {
		_ = sched.Stop()
		return nil, err
	}

	engine := NewEngine(cfg, mgr, sched, svcs)

	return &App{
		Engine:    engine,
		Storage:   mgr,
		Scheduler: sched,
		Services:  svcs,
		config:    cfg,
		server: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           engine,
			ReadHeaderTimeout: cfg.Server.GetTimeoutDuration(),
			WriteTimeout:      cfg.Server.GetTimeoutDuration(),
		},
	}, nil
}

// NewEngine 创建 gin 引擎并挂载中间件与路由.
func NewEngine(cfg *configs.AppConfig, mgr *storage.Manager, sched *scheduler.Scheduler, svcs *Services) *gin.Engine {
	engine := gin.New()
	engine.MaxMultipartMemory = maxMultipartMemory

	engine.Use(middleware.Default(cfg)...)
	engine.Use(
		middleware.StorageMiddleware(mgr),
		middleware.SchedulerMiddleware(sched),
	)

	if cfg.Metrics.Enabled {
		_ = metrics.StartMetricsServer(cfg.Metrics, engine)
	}

	var swagger *configs.ServerConfig
	if cfg.Server.Debug {
		swagger = &cfg.Server
	}

	router.Register(engine, router.Options{
		Handlers: &handle.Handlers{
			Accounts:       svcs.Accounts,
			Verification:   svcs.Verification,
			Resources:      svcs.Resources,
			MaxUploadBytes: cfg.Files.MaxUploadBytes(),
		},
		Auth:        middleware.AuthMiddleware(svcs.Tokens, svcs.AccountRepo),
		AdminGroups: []string{cfg.Verification.AdminGroup},
		Swagger:     swagger,
	})

	return engine
}

// Run 启动 HTTP 服务与调度器，ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	a.Scheduler.Start()

	g.Go(func() error {
		log.Logger().Info().Str("addr", a.server.Addr).Msg("HTTP server listening")

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close 停止调度器并关闭存储连接.
func (a *App) Close() error {
	return errors.Join(a.Scheduler.Stop(), a.Storage.Close())
}
