// Package schedulerctl exposes the scheduler control endpoints: status
// snapshot, start/stop, and manual task execution.
package schedulerctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"alerthub/internal/handler/http/auth"
	"alerthub/internal/handler/http/respond"
	"alerthub/internal/scheduler"
)

// StatusHandler handles GET /scheduler/status.
type StatusHandler struct {
	Scheduler *scheduler.Scheduler
}

func (h StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.Scheduler.Status())
}

// ControlRequest is the body of POST /scheduler/control.
type ControlRequest struct {
	Action string `json:"action"` // start|stop
}

// ControlHandler handles POST /scheduler/control. Start and stop are
// idempotent; repeating an action reports the unchanged state.
type ControlHandler struct {
	Scheduler *scheduler.Scheduler
}

func (h ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	switch req.Action {
	case "start":
		h.Scheduler.Start()
	case "stop":
		h.Scheduler.Stop()
	default:
		respond.SafeError(w, http.StatusBadRequest,
			fmt.Errorf("invalid action %q (must be start or stop)", req.Action))
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"action":  req.Action,
		"running": h.Scheduler.Running(),
	})
}

// RunTaskRequest is the body of POST /scheduler/run-task.
type RunTaskRequest struct {
	Task string `json:"task"`
}

// RunTaskHandler handles POST /scheduler/run-task: execute a registered task
// immediately, regardless of its schedule, and return its result.
type RunTaskHandler struct {
	Scheduler *scheduler.Scheduler
}

func (h RunTaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req RunTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Task == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("task name is required"))
		return
	}

	result, err := h.Scheduler.RunNow(r.Context(), req.Task)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, scheduler.ErrTaskNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// Register mounts the scheduler control routes. Every route requires an
// admin token.
func Register(mux *http.ServeMux, s *scheduler.Scheduler) {
	mux.Handle("GET /scheduler/status", auth.Authz(StatusHandler{Scheduler: s}))
	mux.Handle("POST /scheduler/control", auth.Authz(ControlHandler{Scheduler: s}))
	mux.Handle("POST /scheduler/run-task", auth.Authz(RunTaskHandler{Scheduler: s}))
}
