package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photoarchive/pkg/internal/handle"
)

// RegisterSchedulerRoutes 注册调度器管理路由，g 需已挂载认证与权限组中间件.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	jobs := g.Group("/scheduler/jobs")
	{
		jobs.GET("", handle.SchedulerJobs)
		jobs.GET("/:name", handle.SchedulerJob)
		jobs.POST("/:name/run", handle.SchedulerRunJob)
	}
}
