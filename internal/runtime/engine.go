package runtime

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/statelyhq/stately/internal/logging"
	"github.com/statelyhq/stately/internal/metrics"
	"github.com/statelyhq/stately/pkg/domain"
	"github.com/statelyhq/stately/pkg/ports"
)

// Engine is the execution driver: it owns advancing executions through
// the machine's states, enforcing transitions, and recording history and
// terminal status. One Engine may drive any number of executions; each
// execution advances sequentially.
type Engine struct {
	machine  *StateMachine
	logger   *slog.Logger
	executor ports.TaskExecutor
	hooks    domain.LifecycleHooks
	metrics  *metrics.Recorder
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger states and the driver log through.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExecutor sets the host task executor. Without one, Task states
// synthesize simulated results.
func WithExecutor(executor ports.TaskExecutor) EngineOption {
	return func(e *Engine) { e.executor = executor }
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) { e.hooks = hooks }
}

// WithMetrics attaches a Prometheus recorder.
func WithMetrics(rec *metrics.Recorder) EngineOption {
	return func(e *Engine) { e.metrics = rec }
}

// NewEngine builds a driver for the given machine.
func NewEngine(machine *StateMachine, opts ...EngineOption) *Engine {
	e := &Engine{
		machine: machine,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Machine returns the machine this engine drives.
func (e *Engine) Machine() *StateMachine { return e.machine }

// forMachine derives an engine for a nested machine (a Parallel branch)
// sharing this engine's logger, executor, hooks and metrics.
func (e *Engine) forMachine(machine *StateMachine) *Engine {
	child := *e
	child.machine = machine
	return &child
}

// StartExecution captures the input snapshot and positions a new Running
// execution at StartAt. An empty name is replaced with a generated
// time-plus-random-hex identifier.
func (e *Engine) StartExecution(input any, name string) *domain.Execution {
	if name == "" {
		name = generateName()
	}
	exec := domain.NewExecution(name, deepCopy(input), e.machine.def.StartAt)
	exec.Output = deepCopy(input)
	e.logger.Info("execution started", "execution", name, "start_at", e.machine.def.StartAt)
	return exec
}

// RunNext advances the execution by one state. Failures are recorded on
// the execution (status, error, cause); the returned error mirrors them
// for callers that want control flow.
func (e *Engine) RunNext(ctx context.Context, exec *domain.Execution) error {
	if !exec.Running() {
		return fmt.Errorf("execution %q is not running", exec.Name)
	}

	stateName := exec.CurrentState
	st, ok := e.machine.states[stateName]
	if !ok {
		err := domain.NewStatesError(domain.ErrorNameStateNotFound,
			fmt.Sprintf("transition to unknown state %q", stateName))
		e.fail(ctx, exec, err)
		return err
	}

	def := st.Def()
	stateInput := exec.Output
	started := time.Now()

	e.metrics.StateEntered(def.Type)
	e.emitStateEnter(ctx, exec, def, stateInput)
	e.logger.Debug("entering state", "execution", exec.Name, "state", stateName, "type", def.Type)

	env := &Env{Engine: e, Exec: exec}
	output, err := st.Execute(ctx, env, stateInput)

	e.metrics.StateDuration(def.Type, time.Since(started))

	if err != nil {
		// A failing state may still return a value (Fail passes its input
		// through) for the history record.
		exec.Record(stateName, stateInput, output)
		e.emitStateExit(ctx, exec, def, stateInput, output)
		e.fail(ctx, exec, err)
		return err
	}

	exec.Output = output
	exec.Record(stateName, stateInput, output)
	e.emitStateExit(ctx, exec, def, stateInput, output)

	if st.Terminal() {
		exec.Succeed(output)
		e.metrics.ExecutionEnded(string(exec.Status))
		e.emitExecutionEnd(ctx, exec)
		e.logger.Info("execution succeeded", "execution", exec.Name, "final_state", stateName)
		return nil
	}

	next, err := e.nextState(exec, st, output)
	if err != nil {
		e.fail(ctx, exec, err)
		return err
	}
	exec.CurrentState = next
	return nil
}

// nextState resolves the following state: a pending catch override wins
// over the state's own transition.
func (e *Engine) nextState(exec *domain.Execution, st state, output any) (string, error) {
	if exec.NextOverride != "" {
		next := exec.NextOverride
		exec.NextOverride = ""
		return next, nil
	}

	next, err := st.Next(output)
	if err != nil {
		return "", err
	}
	if next == "" {
		return "", domain.NewStatesError(domain.ErrorNameNoNextState,
			fmt.Sprintf("state %q has no Next and no catch override", st.Def().Name))
	}
	return next, nil
}

// RunAll loops RunNext until the execution leaves Running. The context
// cancels the whole run.
func (e *Engine) RunAll(ctx context.Context, exec *domain.Execution) error {
	for exec.Running() {
		if err := ctx.Err(); err != nil {
			e.fail(ctx, exec, err)
			return err
		}
		if err := e.RunNext(ctx, exec); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) fail(ctx context.Context, exec *domain.Execution, err error) {
	exec.Fail(domain.ErrorName(err), domain.ErrorCause(err))
	e.metrics.ExecutionEnded(string(exec.Status))
	e.emitExecutionEnd(ctx, exec)
	e.logger.Warn("execution failed",
		"execution", exec.Name,
		"err", exec.Error,
		"cause", exec.Cause)
}

// retry reports one retry attempt through the logger, metrics and hooks.
func (env *Env) retry(ctx context.Context, stateName string, err error, delay time.Duration) {
	e := env.Engine
	e.metrics.TaskRetry()
	e.logger.Debug("retrying state",
		"execution", env.Exec.Name,
		"state", stateName,
		"err", domain.ErrorName(err),
		"delay", delay)
	if e.hooks.OnTaskRetry != nil {
		e.hooks.OnTaskRetry(ctx, &domain.RetryEvent{
			Timestamp: time.Now().UTC(),
			Execution: env.Exec.Name,
			StateName: stateName,
			Error:     domain.ErrorName(err),
			Attempt:   env.Exec.Attempts[stateName],
			Delay:     delay,
		})
	}
}

func (e *Engine) emitStateEnter(ctx context.Context, exec *domain.Execution, def *domain.StateDef, input any) {
	if e.hooks.OnStateEnter == nil {
		return
	}
	e.hooks.OnStateEnter(ctx, &domain.StateEvent{
		Timestamp: time.Now().UTC(),
		Execution: exec.Name,
		StateName: def.Name,
		StateType: def.Type,
		Input:     input,
	})
}

func (e *Engine) emitStateExit(ctx context.Context, exec *domain.Execution, def *domain.StateDef, input, output any) {
	if e.hooks.OnStateExit == nil {
		return
	}
	e.hooks.OnStateExit(ctx, &domain.StateEvent{
		Timestamp: time.Now().UTC(),
		Execution: exec.Name,
		StateName: def.Name,
		StateType: def.Type,
		Input:     input,
		Output:    output,
	})
}

func (e *Engine) emitExecutionEnd(ctx context.Context, exec *domain.Execution) {
	if e.hooks.OnExecutionEnd == nil {
		return
	}
	e.hooks.OnExecutionEnd(ctx, &domain.ExecutionEvent{
		Timestamp: time.Now().UTC(),
		Execution: exec.Name,
		Status:    exec.Status,
		Error:     exec.Error,
		Cause:     exec.Cause,
	})
}

// generateName builds an execution identifier from the wall clock and
// four random bytes.
func generateName() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("exec-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("exec-%s-%s", time.Now().UTC().Format("20060102T150405"), hex.EncodeToString(buf))
}
