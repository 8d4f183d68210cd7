package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photoarchive/pkg/errcode"
	"github.com/yeisme/photoarchive/pkg/internal/types"
	"github.com/yeisme/photoarchive/pkg/middleware"
	"github.com/yeisme/photoarchive/pkg/scheduler"
)

// SchedulerJobs 返回所有定时任务的状态.
//
//	@Summary	定时任务列表
//	@Tags		管理
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	types.JobsResponse
//	@Failure	403	{object}	types.ErrorResponse
//	@Router		/api/v1/admin/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		respondError(c, errcode.Internal(errors.New("scheduler not configured")))
		return
	}

	c.JSON(http.StatusOK, types.JobsResponse{Jobs: sched.GetJobInfos()})
}

// SchedulerJob 返回单个任务.
//
//	@Summary	定时任务详情
//	@Tags		管理
//	@Produce	json
//	@Security	BearerAuth
//	@Param		name	path		string	true	"任务名"
//	@Success	200		{object}	scheduler.JobInfo
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/api/v1/admin/scheduler/jobs/{name} [get]
func SchedulerJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		respondError(c, errcode.Internal(errors.New("scheduler not configured")))
		return
	}

	info, err := sched.GetJobInfoByName(c.Param("name"))
	if err != nil {
		respondError(c, jobError(err))
		return
	}

	c.JSON(http.StatusOK, info)
}

// SchedulerRunJob 立即执行一次任务.
//
//	@Summary	立即执行任务
//	@Tags		管理
//	@Produce	json
//	@Security	BearerAuth
//	@Param		name	path		string	true	"任务名"
//	@Success	202		{object}	types.MessageResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/api/v1/admin/scheduler/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		respondError(c, errcode.Internal(errors.New("scheduler not configured")))
		return
	}

	if err := sched.RunNow(c.Param("name")); err != nil {
		respondError(c, jobError(err))
		return
	}

	c.JSON(http.StatusAccepted, types.MessageResponse{Message: "job triggered"})
}

func jobError(err error) error {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		return errcode.NotFound("job not found")
	}

	return errcode.Internal(err)
}
