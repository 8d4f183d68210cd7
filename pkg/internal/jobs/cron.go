// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/photoarchive/pkg/log"
	"github.com/yeisme/photoarchive/pkg/scheduler"
)

// OrphanSweeper 清理已删除资源遗留字节的能力，由 service.ResourceService 实现.
type OrphanSweeper interface {
	SweepOrphanBytes(ctx context.Context, limit int) (int, error)
}

// RegisterCronJobs 配置业务定时任务：
//   - 每 30 分钟清理一次删除或替换时未能移除的文件字节
func RegisterCronJobs(sched *scheduler.Scheduler, sweeper OrphanSweeper) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if sweeper == nil {
		return errors.New("orphan sweeper is nil")
	}

	if err := sched.AddCron(JobOrphanBytesSweep, CronOrphanBytesSweep, OrphanBytesSweep(sweeper, SweepBatchSize)); err != nil {
		return fmt.Errorf("register %s: %w", JobOrphanBytesSweep, err)
	}

	return nil
}

// OrphanBytesSweep 返回单批清理任务. 删除失败的记录留到下一轮.
func OrphanBytesSweep(sweeper OrphanSweeper, batch int) scheduler.JobFunc {
	return func(ctx context.Context) error {
		l := log.Component("jobs").With().Str("job", JobOrphanBytesSweep).Logger()

		n, err := sweeper.SweepOrphanBytes(ctx, batch)
		if err != nil {
			l.Error().Err(err).Int("processed", n).Msg("orphan sweep failed")
			return err
		}

		if n > 0 {
			l.Info().Int("processed", n).Msg("orphan bytes swept")
		}

		return nil
	}
}
