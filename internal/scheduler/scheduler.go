package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// tickInterval is how often the loop checks for due tasks.
	tickInterval = 60 * time.Second

	// historyLimit caps the retained execution history.
	historyLimit = 1000

	// stopTimeout bounds how long Stop waits for the loop goroutine.
	stopTimeout = 5 * time.Second

	// recentExecutions is how many history entries Status returns.
	recentExecutions = 10
)

// Sentinel errors for task lookups.
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskExists   = errors.New("task already registered")
)

// Status is a point-in-time snapshot of the scheduler for the control API.
type Status struct {
	Running          bool         `json:"running"`
	TaskCount        int          `json:"task_count"`
	Tasks            []TaskStatus `json:"tasks"`
	RecentExecutions []Result     `json:"recent_executions"`
}

// Scheduler owns the task registry and the background execution loop. All
// registry, history, and lifecycle state is guarded by one mutex; per-task
// execution state is guarded by each task. Due tasks execute sequentially
// within a tick, never concurrently with each other.
type Scheduler struct {
	logger *slog.Logger
	clock  func() time.Time
	tick   time.Duration

	mu      sync.Mutex
	tasks   map[string]*Task
	order   []string
	history []Result
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a stopped scheduler with an empty registry.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger: logger,
		clock:  time.Now,
		tick:   tickInterval,
		tasks:  make(map[string]*Task),
	}
}

// Register adds a task to the registry. The task runs on the first tick
// after Start and then settles into its interval.
func (s *Scheduler) Register(task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.Name]; exists {
		return fmt.Errorf("Register: %w: %q", ErrTaskExists, task.Name)
	}
	task.clock = s.clock
	s.tasks[task.Name] = task
	s.order = append(s.order, task.Name)
	s.logger.Info("task registered",
		slog.String("task", task.Name),
		slog.Duration("interval", task.Interval))
	return nil
}

// Unregister removes a task from the registry.
func (s *Scheduler) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[name]; !exists {
		return fmt.Errorf("Unregister: %w: %q", ErrTaskNotFound, name)
	}
	delete(s.tasks, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetTaskEnabled toggles whether the loop picks up the named task.
func (s *Scheduler) SetTaskEnabled(name string, enabled bool) error {
	s.mu.Lock()
	task, exists := s.tasks[name]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("SetTaskEnabled: %w: %q", ErrTaskNotFound, name)
	}
	task.SetEnabled(enabled)
	return nil
}

// SetTaskInterval changes how often the named task runs.
func (s *Scheduler) SetTaskInterval(name string, interval time.Duration) error {
	s.mu.Lock()
	task, exists := s.tasks[name]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("SetTaskInterval: %w: %q", ErrTaskNotFound, name)
	}
	task.SetInterval(interval)
	return nil
}

// Start launches the background loop. Starting a running scheduler is a
// logged no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn("scheduler already running, start ignored")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stopCh, s.done)
	s.logger.Info("scheduler started", slog.Duration("tick", s.tick))
}

// Stop signals the loop and waits for it to drain, bounded by stopTimeout.
// Stopping a stopped scheduler is a logged no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Warn("scheduler not running, stop ignored")
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
	case <-time.After(stopTimeout):
		s.logger.Warn("scheduler loop did not drain before timeout",
			slog.Duration("timeout", stopTimeout))
	}
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow executes the named task immediately, regardless of its schedule or
// enabled flag, and records the result in the history. Safe to call while
// the loop is running.
func (s *Scheduler) RunNow(ctx context.Context, name string) (Result, error) {
	s.mu.Lock()
	task, exists := s.tasks[name]
	s.mu.Unlock()
	if !exists {
		return Result{}, fmt.Errorf("RunNow: %w: %q", ErrTaskNotFound, name)
	}

	result := task.Execute(ctx)
	s.recordResult(result)
	return result, nil
}

// Status returns a snapshot of the scheduler and every registered task,
// with the most recent executions last.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]TaskStatus, 0, len(s.order))
	for _, name := range s.order {
		tasks = append(tasks, s.tasks[name].status())
	}

	n := len(s.history)
	recent := n
	if recent > recentExecutions {
		recent = recentExecutions
	}
	history := make([]Result, recent)
	copy(history, s.history[n-recent:])

	return Status{
		Running:          s.running,
		TaskCount:        len(tasks),
		Tasks:            tasks,
		RecentExecutions: history,
	}
}

func (s *Scheduler) loop(stopCh, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.runDue(context.Background())
		}
	}
}

// runDue executes every due task sequentially. Task panics are absorbed by
// Task.Execute, so one broken task cannot take the loop down.
func (s *Scheduler) runDue(ctx context.Context) {
	now := s.clock()

	s.mu.Lock()
	due := make([]*Task, 0, len(s.order))
	for _, name := range s.order {
		if task := s.tasks[name]; task.IsDue(now) {
			due = append(due, task)
		}
	}
	s.mu.Unlock()

	for _, task := range due {
		result := task.Execute(ctx)
		s.recordResult(result)
	}
}

func (s *Scheduler) recordResult(result Result) {
	s.mu.Lock()
	s.history = append(s.history, result)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
	s.mu.Unlock()

	recordExecution(result)
	if result.Success {
		s.logger.Info("task executed",
			slog.String("task", result.TaskName),
			slog.Duration("duration", result.Duration),
			slog.String("message", result.Message))
	} else {
		s.logger.Error("task failed",
			slog.String("task", result.TaskName),
			slog.Duration("duration", result.Duration),
			slog.String("error", result.Message))
	}
}
