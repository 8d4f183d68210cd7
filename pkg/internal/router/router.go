// Package router 把 handle 中的处理器绑定到 gin 路由.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/internal/handle"
	"github.com/yeisme/photoarchive/pkg/middleware"
	"github.com/yeisme/photoarchive/pkg/rule"
)

// Options 路由依赖，由 app 层组装.
type Options struct {
	Handlers *handle.Handlers
	// Auth 认证中间件，通常为 middleware.AuthMiddleware
	Auth gin.HandlerFunc
	// AdminGroups 可访问 /admin 的权限组
	AdminGroups []string
	// Swagger 非 nil 时挂载 /swagger
	Swagger *configs.ServerConfig
}

// Register 注册全部路由：
//
//	/api/v1/accounts  注册、登录
//	/api/v1/verify    账号验证
//	/api/v1/me        个人资料
//	/api/v1/resources 资源
//	/api/v1/health    健康检查
//	/api/v1/admin     管理接口
//	/static/*path     公开资源
func Register(e *gin.Engine, opts Options) {
	// binding 校验改用 rule 标签
	rule.Engine()

	v1 := e.Group("/api/v1")

	RegisterAccountRoutes(v1, opts.Handlers, opts.Auth)
	RegisterVerifyRoutes(v1, opts.Handlers, opts.Auth)
	RegisterResourceRoutes(v1.Group("", opts.Auth), opts.Handlers)
	RegisterHealthCheckRoute(v1)
	RegisterSchedulerRoutes(v1.Group("/admin", opts.Auth, middleware.RequireGroup(opts.AdminGroups...)))

	e.GET("/static/*path", opts.Handlers.StaticFile)
	e.HEAD("/static/*path", opts.Handlers.StaticFile)

	if opts.Swagger != nil {
		RegisterSwaggerRoute(e, *opts.Swagger)
	}
}

// RegisterAccountRoutes 注册账号相关路由.
func RegisterAccountRoutes(g *gin.RouterGroup, h *handle.Handlers, auth gin.HandlerFunc) {
	accounts := g.Group("/accounts")
	{
		accounts.POST("/register", h.Register)
		accounts.POST("/login", h.Login)
	}

	me := g.Group("/me", auth)
	{
		me.GET("", h.Me)
		me.PATCH("", h.UpdateMe)
		me.PUT("/avatar", h.UploadAvatar)
		me.POST("/deactivate", h.Deactivate)
	}
}

// RegisterVerifyRoutes 注册验证路由. 链接验证不需要登录.
func RegisterVerifyRoutes(g *gin.RouterGroup, h *handle.Handlers, auth gin.HandlerFunc) {
	verify := g.Group("/verify")
	{
		verify.GET("/:identifier", h.VerifyLink)
		verify.POST("", auth, h.VerifyCode)
		verify.POST("/resend", auth, h.ResendVerification)
	}
}

// RegisterResourceRoutes 注册资源路由，g 需已挂载认证中间件.
func RegisterResourceRoutes(g *gin.RouterGroup, h *handle.Handlers) {
	resources := g.Group("/resources")
	{
		resources.POST("", h.CreateResource)

		single := resources.Group("/:id")
		{
			single.GET("", h.ReadResource)
			single.PUT("", h.UpdateResource)
			single.DELETE("", h.DeleteResource)
		}
	}
}
