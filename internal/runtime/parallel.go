package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/statelyhq/stately/pkg/domain"
)

// parallelState fans its effective input out to every branch machine and
// collects the branch outputs in declared order. Retry/Catch apply with
// the same semantics as Task.
type parallelState struct {
	def      *domain.StateDef
	branches []*StateMachine
}

func newParallelState(def *domain.StateDef) (state, error) {
	field := "States." + def.Name
	if len(def.Branches) == 0 {
		return nil, &domain.DefinitionError{Field: field + ".Branches", Message: "must not be empty"}
	}

	branches := make([]*StateMachine, len(def.Branches))
	for i, branchDef := range def.Branches {
		sm, err := NewStateMachine(branchDef)
		if err != nil {
			return nil, &domain.DefinitionError{
				Field:   fmt.Sprintf("%s.Branches[%d]", field, i),
				Message: err.Error(),
			}
		}
		branches[i] = sm
	}
	return &parallelState{def: def, branches: branches}, nil
}

func (s *parallelState) Def() *domain.StateDef    { return s.def }
func (s *parallelState) Terminal() bool           { return s.def.End }
func (s *parallelState) Next(any) (string, error) { return s.def.Next, nil }

func (s *parallelState) Execute(ctx context.Context, env *Env, input any) (any, error) {
	effective := ApplyInputPath(input, s.def)

	for {
		raw, err := s.runBranches(ctx, env, effective)
		if err == nil {
			selected := EvalTemplate(s.def.ResultSelector, raw)
			placed := ApplyResultPath(input, selected, s.def.ResultPath, s.def.ResultPathNull)
			return ApplyOutputPath(placed, s.def), nil
		}

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

// runBranches executes every branch as an independent child execution
// sharing the parent's logger and executor. Results are ordered by branch
// index regardless of completion order. The first failure cancels the
// remaining branches and surfaces as BranchFailed with the originating
// cause; outputs of branches that completed anyway are discarded.
func (s *parallelState) runBranches(ctx context.Context, env *Env, effective any) ([]any, error) {
	branchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]any, len(s.branches))

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for i, machine := range s.branches {
		wg.Add(1)
		go func(i int, machine *StateMachine) {
			defer wg.Done()

			child := env.Engine.forMachine(machine)
			name := fmt.Sprintf("%s.%s-branch-%d", env.Exec.Name, s.def.Name, i)
			exec := child.StartExecution(deepCopy(effective), name)
			child.RunAll(branchCtx, exec)

			if exec.Status == domain.StatusFailed {
				// Record before cancelling so siblings failing on the
				// cancellation cannot replace the originating cause.
				once.Do(func() {
					firstErr = domain.NewStatesError(domain.ErrorNameBranchFailed,
						fmt.Sprintf("branch %d: %s: %s", i, exec.Error, exec.Cause))
				})
				cancel()
				return
			}
			results[i] = exec.Output
		}(i, machine)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
