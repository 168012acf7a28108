package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock shared by a scheduler and its tasks.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestScheduler() (*Scheduler, *fakeClock) {
	clock := newFakeClock()
	s := New(nil)
	s.clock = clock.Now
	return s, clock
}

// TestTask_DueImmediatelyAfterRegister verifies a task with no run yet is
// due on the first tick, and only settles into its interval after running
func TestTask_DueImmediatelyAfterRegister(t *testing.T) {
	// Arrange
	s, clock := newTestScheduler()
	task := NewTask("noop", 30*time.Minute, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, s.Register(task))

	// Assert
	assert.True(t, task.IsDue(clock.Now()), "a never-run task is due right away")

	task.Execute(context.Background())
	assert.False(t, task.IsDue(clock.Now()), "after a run the interval applies")
	clock.Advance(29 * time.Minute)
	assert.False(t, task.IsDue(clock.Now()))
	clock.Advance(1 * time.Minute)
	assert.True(t, task.IsDue(clock.Now()))
}

// TestTask_FailureWaitsFullInterval verifies a failing execution still
// advances the next due time
func TestTask_FailureWaitsFullInterval(t *testing.T) {
	// Arrange
	s, clock := newTestScheduler()
	task := NewTask("flaky", 30*time.Minute, func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	})
	require.NoError(t, s.Register(task))
	clock.Advance(30 * time.Minute)

	// Act
	result := task.Execute(context.Background())

	// Assert
	assert.False(t, result.Success)
	assert.Equal(t, "boom", result.Message)
	assert.False(t, task.IsDue(clock.Now()), "failure must not make the task immediately due again")
	clock.Advance(30 * time.Minute)
	assert.True(t, task.IsDue(clock.Now()))

	st := task.status()
	assert.Equal(t, int64(1), st.ExecutionCount)
	assert.Equal(t, int64(1), st.FailureCount)
}

// TestTask_PanicBecomesFailure verifies a panicking runner is absorbed
func TestTask_PanicBecomesFailure(t *testing.T) {
	task := NewTask("explosive", time.Minute, func(ctx context.Context) (string, error) {
		panic("nil map write")
	})

	result := task.Execute(context.Background())

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "panic")
	assert.Equal(t, int64(1), task.status().FailureCount)
}

// TestScheduler_RunNow verifies manual execution ignores schedule and
// disabled state and lands in the history
func TestScheduler_RunNow(t *testing.T) {
	// Arrange
	s, _ := newTestScheduler()
	calls := 0
	task := NewTask("manual", time.Hour, func(ctx context.Context) (string, error) {
		calls++
		return "done", nil
	})
	require.NoError(t, s.Register(task))
	require.NoError(t, s.SetTaskEnabled("manual", false))

	// Act
	result, err := s.RunNow(context.Background(), "manual")

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "done", result.Message)
	assert.Equal(t, 1, calls)

	st := s.Status()
	require.Len(t, st.RecentExecutions, 1)
	assert.Equal(t, "manual", st.RecentExecutions[0].TaskName)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

// TestScheduler_RunDueSequential verifies the tick handler executes every
// due task once and reschedules it
func TestScheduler_RunDueSequential(t *testing.T) {
	// Arrange
	s, clock := newTestScheduler()
	var order []string
	mk := func(name string) *Task {
		return NewTask(name, 30*time.Minute, func(ctx context.Context) (string, error) {
			order = append(order, name)
			return "ok", nil
		})
	}
	require.NoError(t, s.Register(mk("first")))
	require.NoError(t, s.Register(mk("second")))
	require.NoError(t, s.Register(NewTask("later", 2*time.Hour, func(ctx context.Context) (string, error) {
		order = append(order, "later")
		return "ok", nil
	})))

	// Act
	s.runDue(context.Background()) // first tick, every never-run task is due
	clock.Advance(31 * time.Minute)
	s.runDue(context.Background())
	s.runDue(context.Background()) // nothing is due twice in a row

	// Assert
	assert.Equal(t, []string{"first", "second", "later", "first", "second"}, order,
		"due tasks run in registration order, undue tasks are skipped")
	assert.Len(t, s.Status().RecentExecutions, 5)
}

// TestScheduler_HistoryCapped verifies old executions are discarded
func TestScheduler_HistoryCapped(t *testing.T) {
	s, _ := newTestScheduler()
	for i := 0; i < historyLimit+50; i++ {
		s.recordResult(Result{TaskName: fmt.Sprintf("t%d", i), Success: true})
	}

	s.mu.Lock()
	n := len(s.history)
	first := s.history[0].TaskName
	s.mu.Unlock()

	assert.Equal(t, historyLimit, n)
	assert.Equal(t, "t50", first, "oldest entries are dropped first")

	st := s.Status()
	assert.Len(t, st.RecentExecutions, recentExecutions)
	assert.Equal(t, fmt.Sprintf("t%d", historyLimit+49), st.RecentExecutions[recentExecutions-1].TaskName)
}

// TestScheduler_StartStopIdempotent verifies double start/stop are no-ops
func TestScheduler_StartStopIdempotent(t *testing.T) {
	s, _ := newTestScheduler()
	s.tick = 10 * time.Millisecond

	s.Start()
	assert.True(t, s.Running())
	s.Start() // ignored

	s.Stop()
	assert.False(t, s.Running())
	s.Stop() // ignored
}

// TestScheduler_LoopExecutesDueTasks verifies the background loop picks up a
// due task
func TestScheduler_LoopExecutesDueTasks(t *testing.T) {
	// Arrange
	s, clock := newTestScheduler()
	s.tick = 5 * time.Millisecond
	ran := make(chan struct{}, 1)
	task := NewTask("background", 30*time.Minute, func(ctx context.Context) (string, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return "ok", nil
	})
	require.NoError(t, s.Register(task))
	clock.Advance(31 * time.Minute)

	// Act
	s.Start()
	defer s.Stop()

	// Assert
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not execute the due task")
	}
}

// TestScheduler_RegisterDuplicate verifies duplicate names are rejected
func TestScheduler_RegisterDuplicate(t *testing.T) {
	s, _ := newTestScheduler()
	require.NoError(t, s.Register(NewTask("dup", time.Minute, func(ctx context.Context) (string, error) { return "", nil })))

	err := s.Register(NewTask("dup", time.Minute, func(ctx context.Context) (string, error) { return "", nil }))
	assert.ErrorIs(t, err, ErrTaskExists)

	require.NoError(t, s.Unregister("dup"))
	assert.ErrorIs(t, s.Unregister("dup"), ErrTaskNotFound)
}

// TestScheduler_SetTaskInterval verifies an interval change reschedules the
// next run from the current time.
func TestScheduler_SetTaskInterval(t *testing.T) {
	// Arrange
	s, clock := newTestScheduler()
	task := NewTask("noop", 30*time.Minute, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, s.Register(task))

	// Act
	require.NoError(t, s.SetTaskInterval("noop", 10*time.Minute))

	// Assert
	clock.Advance(9 * time.Minute)
	assert.False(t, task.IsDue(clock.Now()))
	clock.Advance(1 * time.Minute)
	assert.True(t, task.IsDue(clock.Now()))

	assert.ErrorIs(t, s.SetTaskInterval("missing", time.Minute), ErrTaskNotFound)
}
