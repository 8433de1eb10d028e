package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionLifecycle(t *testing.T) {
	exec := NewExecution("run-1", map[string]any{"k": "v"}, "Start")

	assert.True(t, exec.Running())
	assert.Equal(t, "Start", exec.CurrentState)
	assert.False(t, exec.StartTime.IsZero())
	assert.True(t, exec.EndTime.IsZero())

	exec.Record("Start", map[string]any{"k": "v"}, "out")
	require.Len(t, exec.History, 1)
	assert.Equal(t, "Start", exec.History[0].StateName)

	exec.Succeed("out")
	assert.Equal(t, StatusSucceeded, exec.Status)
	assert.False(t, exec.Running())
	assert.False(t, exec.EndTime.IsZero())
	assert.Empty(t, exec.CurrentState)
}

func TestExecutionFail(t *testing.T) {
	exec := NewExecution("run-2", nil, "Start")
	exec.Fail("RuntimeError", "boom")

	assert.Equal(t, StatusFailed, exec.Status)
	assert.Equal(t, "RuntimeError", exec.Error)
	assert.Equal(t, "boom", exec.Cause)
	assert.False(t, exec.EndTime.IsZero())
}

func TestSnapshotFormat(t *testing.T) {
	exec := NewExecution("run-3", map[string]any{"in": 1.0}, "Start")
	exec.Record("Start", map[string]any{"in": 1.0}, "done")
	exec.Succeed("done")

	snap := exec.Snapshot()
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "run-3", decoded["name"])
	assert.Equal(t, "Succeeded", decoded["status"])
	assert.Contains(t, decoded, "start_time")
	assert.Contains(t, decoded, "end_time")
	assert.Contains(t, decoded, "execution_time")

	history, ok := decoded["history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 1)
	entry := history[0].(map[string]any)
	assert.Equal(t, "Start", entry["state_name"])
	assert.Contains(t, entry, "timestamp")
}

func TestSnapshotRestore(t *testing.T) {
	exec := NewExecution("run-4", map[string]any{"in": 1.0}, "Start")
	exec.Attempts["Start"] = 2
	exec.Record("Start", nil, nil)

	restored := exec.Snapshot().Restore()
	assert.Equal(t, exec.Name, restored.Name)
	assert.Equal(t, exec.CurrentState, restored.CurrentState)
	assert.Equal(t, StatusRunning, restored.Status)
	assert.Len(t, restored.History, 1)
	// Attempt counters are runtime scratch and reset on restore.
	assert.Empty(t, restored.Attempts)
	assert.True(t, restored.EndTime.IsZero())

	exec.Succeed("x")
	terminal := exec.Snapshot().Restore()
	assert.Equal(t, StatusSucceeded, terminal.Status)
	assert.False(t, terminal.EndTime.IsZero())
}

func TestSnapshotExecutionTime(t *testing.T) {
	exec := NewExecution("run-5", nil, "S")
	exec.StartTime = time.Now().UTC().Add(-2 * time.Second)
	exec.Succeed(nil)

	snap := exec.Snapshot()
	assert.GreaterOrEqual(t, snap.ExecutionTime, 2.0)
}
