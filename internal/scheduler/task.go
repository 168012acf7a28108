// Package scheduler runs the periodic platform jobs in-process: named tasks
// with fixed intervals, executed sequentially by a single background
// goroutine, with bounded execution history for the control API.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Result records one task execution.
type Result struct {
	TaskName  string        `json:"task_name"`
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Runner is the work a task performs. The returned string is a short
// human-readable summary carried into the execution history.
type Runner func(ctx context.Context) (string, error)

// Task is a named periodic job. Configuration (name, interval, runner) is
// fixed at construction; execution state is guarded by the task's own mutex
// so Status snapshots never race a running execution.
type Task struct {
	Name     string
	Interval time.Duration
	Runner   Runner

	clock func() time.Time

	mu             sync.Mutex
	enabled        bool
	lastRun        time.Time
	nextRun        time.Time
	executionCount int64
	failureCount   int64
	lastResult     *Result
}

// NewTask creates an enabled task. A task with no recorded run yet is due
// immediately, so registered tasks execute on the first scheduler tick.
func NewTask(name string, interval time.Duration, runner Runner) *Task {
	return &Task{
		Name:     name,
		Interval: interval,
		Runner:   runner,
		enabled:  true,
		clock:    time.Now,
	}
}

// IsDue reports whether the task should execute at now.
func (t *Task) IsDue(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled && !now.Before(t.nextRun)
}

// SetEnabled toggles whether the scheduler loop picks this task up. RunNow
// ignores the flag.
func (t *Task) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

// SetInterval changes the execution interval and reschedules the next run
// one new interval from now.
func (t *Task) SetInterval(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Interval = interval
	t.nextRun = t.clock().Add(interval)
}

// Execute runs the task once. The next due time advances by one interval
// whether the run succeeds, fails, or panics, so a broken task waits its
// full interval instead of hot-looping.
func (t *Task) Execute(ctx context.Context) Result {
	start := t.clock()

	var summary string
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		summary, err = t.Runner(ctx)
	}()

	result := Result{
		TaskName:  t.Name,
		Success:   err == nil,
		Message:   summary,
		Duration:  t.clock().Sub(start),
		Timestamp: start,
	}
	if err != nil {
		result.Message = err.Error()
	}

	t.mu.Lock()
	t.lastRun = start
	t.nextRun = start.Add(t.Interval)
	t.executionCount++
	if err != nil {
		t.failureCount++
	}
	last := result
	t.lastResult = &last
	t.mu.Unlock()

	return result
}

// TaskStatus is a point-in-time snapshot of one task's state.
type TaskStatus struct {
	Name           string        `json:"name"`
	Enabled        bool          `json:"enabled"`
	Interval       time.Duration `json:"interval"`
	LastRun        *time.Time    `json:"last_run,omitempty"`
	NextRun        *time.Time    `json:"next_run,omitempty"`
	ExecutionCount int64         `json:"execution_count"`
	FailureCount   int64         `json:"failure_count"`
	LastResult     *Result       `json:"last_result,omitempty"`
}

func (t *Task) status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := TaskStatus{
		Name:           t.Name,
		Enabled:        t.enabled,
		Interval:       t.Interval,
		ExecutionCount: t.executionCount,
		FailureCount:   t.failureCount,
		LastResult:     t.lastResult,
	}
	if !t.lastRun.IsZero() {
		lr := t.lastRun
		st.LastRun = &lr
	}
	if !t.nextRun.IsZero() {
		nr := t.nextRun
		st.NextRun = &nr
	}
	return st
}
