package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	mu    sync.Mutex
	calls int
}

func (c *countingRefresher) RefreshPrices(ctx context.Context) (*UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return &UpdateResult{Failed: map[string]error{}}, nil
}

func (c *countingRefresher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestSchedulerStartStop(t *testing.T) {
	ref := &countingRefresher{}
	sched := NewScheduler(ref, time.Hour)

	sched.Start()
	assert.True(t, sched.IsRunning())
	assert.Equal(t, 1, ref.count(), "first refresh runs immediately")

	// A second Start while running is a no-op
	sched.Start()
	assert.Equal(t, 1, ref.count())

	sched.Stop()
	require.Eventually(t, func() bool { return !sched.IsRunning() },
		time.Second, 10*time.Millisecond)

	// A second Stop must not panic on the already-closed channel
	sched.Stop()
}

func TestSchedulerRestartsAfterStop(t *testing.T) {
	ref := &countingRefresher{}
	sched := NewScheduler(ref, time.Hour)

	sched.Start()
	sched.Stop()
	require.Eventually(t, func() bool { return !sched.IsRunning() },
		time.Second, 10*time.Millisecond)

	sched.Start()
	assert.True(t, sched.IsRunning())
	assert.Equal(t, 2, ref.count())
	sched.Stop()
}

func TestSchedulerRefreshNow(t *testing.T) {
	ref := &countingRefresher{}
	sched := NewScheduler(ref, time.Hour)

	require.NoError(t, sched.RefreshNow())
	assert.Equal(t, 1, ref.count())
	assert.False(t, sched.IsRunning())
}
