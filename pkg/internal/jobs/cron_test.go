package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/photoarchive/pkg/scheduler"
)

type fakeSweeper struct {
	calls atomic.Int32
	limit atomic.Int32
	err   error
}

func (f *fakeSweeper) SweepOrphanBytes(_ context.Context, limit int) (int, error) {
	f.calls.Add(1)
	f.limit.Store(int32(limit))

	return 3, f.err
}

func TestRegisterCronJobs(t *testing.T) {
	s, err := scheduler.NewScheduler()
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Stop() })

	sweeper := &fakeSweeper{}
	require.NoError(t, RegisterCronJobs(s, sweeper))

	info, err := s.GetJobInfoByName(JobOrphanBytesSweep)
	require.NoError(t, err)
	assert.Equal(t, CronOrphanBytesSweep, info.CronExpr)

	s.Start()
	require.NoError(t, s.RunNow(JobOrphanBytesSweep))

	assert.Eventually(t, func() bool { return sweeper.calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(SweepBatchSize), sweeper.limit.Load())
}

func TestRegisterCronJobsRejectsNil(t *testing.T) {
	s, err := scheduler.NewScheduler()
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Stop() })

	assert.Error(t, RegisterCronJobs(nil, &fakeSweeper{}))
	assert.Error(t, RegisterCronJobs(s, nil))
}

func TestOrphanBytesSweepPropagatesError(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db down")}

	err := OrphanBytesSweep(sweeper, 10)(context.Background())

	require.Error(t, err)
	assert.Equal(t, int32(10), sweeper.limit.Load())
}
