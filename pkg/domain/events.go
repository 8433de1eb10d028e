package domain

import (
	"context"
	"time"
)

// StateEvent describes entry to or exit from a state.
type StateEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Execution string    `json:"execution"`
	StateName string    `json:"state_name"`
	StateType string    `json:"state_type"`
	Input     any       `json:"input,omitempty"`
	Output    any       `json:"output,omitempty"`
}

// RetryEvent describes one retry of a Task or Parallel state.
type RetryEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Execution string        `json:"execution"`
	StateName string        `json:"state_name"`
	Error     string        `json:"error"`
	Attempt   int           `json:"attempt"`
	Delay     time.Duration `json:"delay"`
}

// ExecutionEvent describes an execution reaching a terminal status.
type ExecutionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Execution string    `json:"execution"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Cause     string    `json:"cause,omitempty"`
}

// LifecycleHooks defines optional callbacks for engine observability.
// Nil callbacks are skipped. Hooks run synchronously on the driver's
// goroutine; keep them fast.
type LifecycleHooks struct {
	OnStateEnter   func(context.Context, *StateEvent)
	OnStateExit    func(context.Context, *StateEvent)
	OnTaskRetry    func(context.Context, *RetryEvent)
	OnExecutionEnd func(context.Context, *ExecutionEvent)
}
