package scheduler_test

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

func TestSchedulerRunNow(t *testing.T) {
	s, err := scheduler.NewScheduler()
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Stop() })

	var calls atomic.Int32

	require.NoError(t, s.AddCron("count", "0 0 1 1 *", func(context.Context) error {
		calls.Add(1)
		return nil
	}))
	require.Error(t, s.AddCron("count", "* * * * *", func(context.Context) error { return nil }))

	s.Start()
	require.NoError(t, s.RunNow("count"))

	assert.Eventually(t, func() bool {
		info, err := s.GetJobInfoByName("count")
		return err == nil && info.Runs == 1 && !info.LastSuccess.IsZero()
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSchedulerRecordsFailure(t *testing.T) {
	s, err := scheduler.NewScheduler()
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Stop() })

	require.NoError(t, s.AddCron("broken", "0 0 1 1 *", func(context.Context) error {
		return errors.New("boom")
	}))

	s.Start()
	require.NoError(t, s.RunNow("broken"))

	assert.Eventually(t, func() bool {
		info, _ := s.GetJobInfoByName("broken")
		return info.Status == scheduler.StatusError && info.Error == "boom"
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, s.RemoveJobByName("broken"))
	assert.Empty(t, s.GetJobInfos())
	assert.Error(t, s.RunNow("broken"))
}
