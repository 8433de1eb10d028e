package stately

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/statelyhq/stately/internal/compiler"
	"github.com/statelyhq/stately/internal/loader"
	"github.com/statelyhq/stately/internal/logging"
	"github.com/statelyhq/stately/internal/metrics"
	"github.com/statelyhq/stately/internal/presentation/graph"
	"github.com/statelyhq/stately/internal/runtime"
	"github.com/statelyhq/stately/pkg/domain"
	"github.com/statelyhq/stately/pkg/ports"
)

// Engine is the high-level entry point for the Stately library. It wraps
// the internal runtime and provides a simplified API for consumers.
type Engine struct {
	machine *runtime.StateMachine
	driver  *runtime.Engine
	store   ports.ExecutionStore
	logger  *slog.Logger
}

type config struct {
	logger   *slog.Logger
	executor ports.TaskExecutor
	store    ports.ExecutionStore
	hooks    domain.LifecycleHooks
	registry prometheus.Registerer
}

// Option configures an Engine.
type Option func(*config)

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithTaskExecutor registers the host callback invoked by Task states.
func WithTaskExecutor(executor ports.TaskExecutor) Option {
	return func(c *config) { c.executor = executor }
}

// WithTaskExecutorFunc registers a plain function as the task executor.
func WithTaskExecutorFunc(fn ports.TaskExecutorFunc) Option {
	return func(c *config) { c.executor = fn }
}

// WithStore persists execution snapshots when an execution starts, after
// every single-state advance (RunNext, Step), and when RunAll or Execute
// returns. States run inside one RunAll or Execute are not persisted
// individually.
func WithStore(store ports.ExecutionStore) Option {
	return func(c *config) { c.store = store }
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) { c.hooks = hooks }
}

// WithMetrics registers Prometheus collectors with the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) { c.registry = reg }
}

// New builds an Engine from an already-parsed definition document.
func New(doc map[string]any, opts ...Option) (*Engine, error) {
	machine, err := compiler.Build(doc)
	if err != nil {
		return nil, err
	}
	return newEngine(machine, opts...), nil
}

// NewFromDef builds an Engine from a typed definition tree.
func NewFromDef(def *domain.StateMachineDef, opts ...Option) (*Engine, error) {
	machine, err := runtime.NewStateMachine(def)
	if err != nil {
		return nil, err
	}
	return newEngine(machine, opts...), nil
}

// NewFromFile builds an Engine from a YAML or JSON definition file.
func NewFromFile(path string, opts ...Option) (*Engine, error) {
	doc, err := loader.FromFile(path)
	if err != nil {
		return nil, err
	}
	return New(doc, opts...)
}

func newEngine(machine *runtime.StateMachine, opts ...Option) *Engine {
	cfg := &config{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	driverOpts := []runtime.EngineOption{
		runtime.WithLogger(cfg.logger),
		runtime.WithExecutor(cfg.executor),
		runtime.WithHooks(cfg.hooks),
	}
	if cfg.registry != nil {
		driverOpts = append(driverOpts, runtime.WithMetrics(metrics.New(cfg.registry)))
	}

	return &Engine{
		machine: machine,
		driver:  runtime.NewEngine(machine, driverOpts...),
		store:   cfg.store,
		logger:  cfg.logger,
	}
}

// Definition exposes the validated definition tree.
func (e *Engine) Definition() *domain.StateMachineDef { return e.machine.Def() }

// StartExecution captures input and creates a Running execution. The
// snapshot is persisted when a store is configured.
func (e *Engine) StartExecution(ctx context.Context, input any, name string) (*domain.Execution, error) {
	exec := e.driver.StartExecution(input, name)
	if err := e.persist(ctx, exec); err != nil {
		return nil, err
	}
	return exec, nil
}

// RunNext advances an execution by one state and persists the result.
func (e *Engine) RunNext(ctx context.Context, exec *domain.Execution) error {
	stepErr := e.driver.RunNext(ctx, exec)
	if err := e.persist(ctx, exec); err != nil {
		return err
	}
	return stepErr
}

// RunAll drives an execution to a terminal status.
func (e *Engine) RunAll(ctx context.Context, exec *domain.Execution) error {
	runErr := e.driver.RunAll(ctx, exec)
	if err := e.persist(ctx, exec); err != nil {
		return err
	}
	return runErr
}

// Execute starts a fresh execution, runs it to completion, and returns
// its snapshot. The execution's own failure is reported in the snapshot,
// not as the error.
func (e *Engine) Execute(ctx context.Context, input any, name string) (*domain.Snapshot, error) {
	exec, err := e.StartExecution(ctx, input, name)
	if err != nil {
		return nil, err
	}
	_ = e.driver.RunAll(ctx, exec)
	if err := e.persist(ctx, exec); err != nil {
		return nil, err
	}
	return exec.Snapshot(), nil
}

// Step loads a stored Running execution, advances it one state, persists
// and returns the new snapshot. Requires a store.
func (e *Engine) Step(ctx context.Context, name string) (*domain.Snapshot, error) {
	if e.store == nil {
		return nil, fmt.Errorf("no execution store configured")
	}
	snap, err := e.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	exec := snap.Restore()
	if !exec.Running() {
		return nil, fmt.Errorf("execution %q is not running", name)
	}
	_ = e.driver.RunNext(ctx, exec)
	if err := e.persist(ctx, exec); err != nil {
		return nil, err
	}
	return exec.Snapshot(), nil
}

// Get returns a stored execution snapshot. Requires a store.
func (e *Engine) Get(ctx context.Context, name string) (*domain.Snapshot, error) {
	if e.store == nil {
		return nil, fmt.Errorf("no execution store configured")
	}
	return e.store.Load(ctx, name)
}

// List returns the stored execution names. Requires a store.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	if e.store == nil {
		return nil, fmt.Errorf("no execution store configured")
	}
	return e.store.List(ctx)
}

// MermaidGraph renders the machine as a Mermaid flowchart, optionally
// overlaying a snapshot's visited and current states.
func (e *Engine) MermaidGraph(snap *domain.Snapshot) string {
	var overlay *graph.Overlay
	if snap != nil {
		overlay = &graph.Overlay{CurrentState: snap.CurrentState}
		for _, entry := range snap.History {
			overlay.VisitedStates = append(overlay.VisitedStates, entry.StateName)
		}
	}
	return graph.GenerateMermaid(e.machine.Def(), overlay)
}

func (e *Engine) persist(ctx context.Context, exec *domain.Execution) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(ctx, exec.Name, exec.Snapshot()); err != nil {
		return fmt.Errorf("persisting execution %q: %w", exec.Name, err)
	}
	return nil
}
