package domain

import (
	"time"
)

// Status is the lifecycle phase of an execution.
type Status string

const (
	StatusRunning   Status = "Running"
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
)

// HistoryEntry records one state visit. Entries are appended strictly in
// visitation order.
type HistoryEntry struct {
	StateName string    `json:"state_name"`
	Input     any       `json:"input"`
	Output    any       `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// Execution is the mutable record of one state machine run.
//
// Mutation is confined to the driver and the state currently executing;
// no two states execute against the same record concurrently. Parallel
// branches each own a child record.
type Execution struct {
	// Name uniquely identifies the execution within the host.
	Name string

	// Status is Running until a terminal state or an uncaught error.
	Status Status

	// CurrentState is the name of the state about to run (or running).
	// Empty once the execution is terminal.
	CurrentState string

	// Input is the immutable snapshot captured at start.
	Input any

	// Output is the current data value, updated after every state.
	Output any

	// Error and Cause are set when Status becomes Failed.
	Error string
	Cause string

	// History lists every state visited, in order.
	History []HistoryEntry

	StartTime time.Time
	EndTime   time.Time

	// Attempts counts executor invocations and per-retry-entry retries,
	// keyed by state name (invocations) and "name#retry-i" (retries).
	// Runtime scratch; not part of the snapshot.
	Attempts map[string]int `json:"-"`

	// NextOverride is the catch redirection slot: a Catch match announces
	// its target here and the driver reads and clears it after the state
	// returns. Runtime scratch; not part of the snapshot.
	NextOverride string `json:"-"`
}

// NewExecution creates a Running execution positioned at startAt.
func NewExecution(name string, input any, startAt string) *Execution {
	return &Execution{
		Name:         name,
		Status:       StatusRunning,
		CurrentState: startAt,
		Input:        input,
		StartTime:    time.Now().UTC(),
		Attempts:     make(map[string]int),
	}
}

// Running reports whether the execution can still advance.
func (e *Execution) Running() bool { return e.Status == StatusRunning }

// Record appends a history entry for a completed state visit.
func (e *Execution) Record(stateName string, input, output any) {
	e.History = append(e.History, HistoryEntry{
		StateName: stateName,
		Input:     input,
		Output:    output,
		Timestamp: time.Now().UTC(),
	})
}

// Succeed marks the execution terminal with the given final output.
func (e *Execution) Succeed(output any) {
	e.Status = StatusSucceeded
	e.Output = output
	e.CurrentState = ""
	e.EndTime = time.Now().UTC()
}

// Fail marks the execution terminal with an error class and cause.
func (e *Execution) Fail(errName, cause string) {
	e.Status = StatusFailed
	e.Error = errName
	e.Cause = cause
	e.CurrentState = ""
	e.EndTime = time.Now().UTC()
}

// Snapshot is the serialized form of an execution (§6 of the language
// contract): stable JSON field names, wall-clock timing in seconds.
type Snapshot struct {
	Name          string         `json:"name"`
	Status        Status         `json:"status"`
	CurrentState  string         `json:"current_state"`
	Input         any            `json:"input"`
	Output        any            `json:"output"`
	Error         string         `json:"error,omitempty"`
	Cause         string         `json:"cause,omitempty"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       *time.Time     `json:"end_time,omitempty"`
	ExecutionTime float64        `json:"execution_time"`
	History       []HistoryEntry `json:"history"`
}

// Snapshot captures the serializable view of the execution.
func (e *Execution) Snapshot() *Snapshot {
	snap := &Snapshot{
		Name:         e.Name,
		Status:       e.Status,
		CurrentState: e.CurrentState,
		Input:        e.Input,
		Output:       e.Output,
		Error:        e.Error,
		Cause:        e.Cause,
		StartTime:    e.StartTime,
		History:      e.History,
	}
	if !e.EndTime.IsZero() {
		end := e.EndTime
		snap.EndTime = &end
		snap.ExecutionTime = end.Sub(e.StartTime).Seconds()
	} else {
		snap.ExecutionTime = time.Since(e.StartTime).Seconds()
	}
	return snap
}

// Restore rebuilds a mutable execution from a snapshot, e.g. for stepping
// a stored Running execution. Attempt counters reset: retries only happen
// inside a single state visit, so they never span a restore.
func (s *Snapshot) Restore() *Execution {
	exec := &Execution{
		Name:         s.Name,
		Status:       s.Status,
		CurrentState: s.CurrentState,
		Input:        s.Input,
		Output:       s.Output,
		Error:        s.Error,
		Cause:        s.Cause,
		History:      s.History,
		StartTime:    s.StartTime,
		Attempts:     make(map[string]int),
	}
	if s.EndTime != nil {
		exec.EndTime = *s.EndTime
	}
	return exec
}
