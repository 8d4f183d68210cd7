package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photoarchive/pkg/scheduler"
)

const schedulerKey = "scheduler"

// SchedulerMiddleware 让管理接口可以取到运行中的调度器.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(schedulerKey, sched)
		c.Next()
	}
}

// GetScheduler 未挂载 SchedulerMiddleware 时返回 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	v, ok := c.Get(schedulerKey)
	if !ok {
		return nil
	}

	sched, _ := v.(*scheduler.Scheduler)

	return sched
}
