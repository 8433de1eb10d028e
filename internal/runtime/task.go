package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/statelyhq/stately/pkg/domain"
)

// taskState invokes an opaque resource through the host executor and
// threads the result through the data-flow pipeline, under the state's
// retry, catch, timeout and heartbeat policies.
type taskState struct {
	def *domain.StateDef
}

func newTaskState(def *domain.StateDef) (state, error) {
	field := "States." + def.Name
	if def.Resource == "" {
		return nil, &domain.DefinitionError{Field: field + ".Resource", Message: "is required"}
	}
	if def.TimeoutSeconds < 0 {
		return nil, &domain.DefinitionError{Field: field + ".TimeoutSeconds", Message: "must be a positive integer"}
	}
	if def.HeartbeatSeconds < 0 {
		return nil, &domain.DefinitionError{Field: field + ".HeartbeatSeconds", Message: "must be a positive integer"}
	}
	if def.TimeoutSeconds > 0 && def.HeartbeatSeconds > 0 && def.HeartbeatSeconds >= def.TimeoutSeconds {
		return nil, &domain.DefinitionError{Field: field + ".HeartbeatSeconds", Message: "must be strictly less than TimeoutSeconds"}
	}
	return &taskState{def: def}, nil
}

func (s *taskState) Def() *domain.StateDef { return s.def }
func (s *taskState) Terminal() bool        { return s.def.End }

func (s *taskState) Next(any) (string, error) { return s.def.Next, nil }

func (s *taskState) Execute(ctx context.Context, env *Env, input any) (any, error) {
	effective := ApplyInputPath(input, s.def)

	for {
		raw, err := s.invoke(ctx, env, effective)
		if err == nil {
			selected := EvalTemplate(s.def.ResultSelector, raw)
			placed := ApplyResultPath(input, selected, s.def.ResultPath, s.def.ResultPathNull)
			return ApplyOutputPath(placed, s.def), nil
		}

		// The caller going away is not a task failure; stop retrying.
		if ctx.Err() != nil {
			return nil, err
		}

		if delay, ok := matchRetry(s.def.Retry, env.Exec, s.def.Name, err); ok {
			env.retry(ctx, s.def.Name, err, delay)
			if sleepErr := sleepCtx(ctx, delay); sleepErr != nil {
				return nil, err
			}
			continue
		}

		if caught, ok := matchCatch(s.def.Catch, err); ok {
			return applyCatch(env, s.def, caught, input, err), nil
		}

		return nil, err
	}
}

// applyCatch builds the {Error, Cause} object, places it into the input
// via the effective result path, and announces the catch target through
// the execution's next-state override slot.
func applyCatch(env *Env, def *domain.StateDef, caught *domain.CatchDef, input any, err error) any {
	errObj := map[string]any{
		"Error": domain.ErrorName(err),
		"Cause": domain.ErrorCause(err),
	}
	path, pathNull := resultPathFor(def, caught)
	placed := ApplyResultPath(input, errObj, path, pathNull)
	env.Exec.NextOverride = caught.Next
	env.Engine.logger.Debug("catch matched",
		"state", def.Name,
		"err", domain.ErrorName(err),
		"next", caught.Next)
	return placed
}

// invoke runs one executor attempt: parameter templating, the optional
// deadline, and the heartbeat monitor.
func (s *taskState) invoke(ctx context.Context, env *Env, effective any) (any, error) {
	params := EvalTemplate(s.def.Parameters, effective)
	env.Exec.Attempts[s.def.Name]++

	runCtx := ctx
	if s.def.TimeoutSeconds > 0 || s.def.HeartbeatSeconds > 0 {
		timeout := DefaultTaskTimeout
		if s.def.TimeoutSeconds > 0 {
			timeout = time.Duration(s.def.TimeoutSeconds) * time.Second
		}
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if s.def.HeartbeatSeconds > 0 {
		stop := s.startHeartbeat(runCtx, env)
		defer stop()
	}

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := s.callExecutor(runCtx, env, params)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-runCtx.Done():
		// The invocation is abandoned, not awaited further.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewTimeoutError(fmt.Sprintf(
			"task %q did not complete within %ds", s.def.Name, s.def.TimeoutSeconds))
	}
}

func (s *taskState) callExecutor(ctx context.Context, env *Env, params any) (any, error) {
	if env.Engine.executor == nil {
		return s.simulatedResult(params), nil
	}
	return env.Engine.executor.ExecuteTask(ctx, s.def.Resource, params, s.def.Credentials)
}

// simulatedResult is the canonical stub emitted when no executor is
// registered with the engine.
func (s *taskState) simulatedResult(params any) map[string]any {
	return map[string]any{
		"task_result":    "completed",
		"resource":       s.def.Resource,
		"input_received": params,
		"timestamp":      time.Now().Unix(),
		"execution_id":   uuid.NewString(),
		"simulated":      true,
	}
}

// startHeartbeat launches the periodic debug monitor. The returned stop
// function must run on every exit path.
func (s *taskState) startHeartbeat(ctx context.Context, env *Env) func() {
	interval := time.Duration(s.def.HeartbeatSeconds) * time.Second
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				env.Engine.logger.Debug("task heartbeat",
					"execution", env.Exec.Name,
					"state", s.def.Name,
					"resource", s.def.Resource)
				env.Engine.metrics.TaskHeartbeat()
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}

// sleepCtx blocks for d or until ctx is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
