package runtime

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/statelyhq/stately/pkg/domain"
)

// DefaultTaskTimeout bounds a heartbeat-monitored task that sets no
// explicit TimeoutSeconds of its own.
const DefaultTaskTimeout = 3600 * time.Second

// state is the common contract of the seven state variants: validated at
// construction, executed to produce a new data value, and consulted for
// the following transition.
type state interface {
	// Def exposes the underlying definition.
	Def() *domain.StateDef

	// Execute runs the state over the current data value and returns the
	// state's output. A returned error that the state did not consume via
	// Retry/Catch fails the execution.
	Execute(ctx context.Context, env *Env, input any) (any, error)

	// Next returns the name of the following state, given the state's
	// output. Terminal states return "".
	Next(output any) (string, error)

	// Terminal reports whether the execution ends after this state.
	Terminal() bool
}

// Env is the capability bag a state executes against: the engine (logger,
// executor, hooks, metrics, machine for Parallel fan-out) and the mutable
// execution record.
type Env struct {
	Engine *Engine
	Exec   *domain.Execution
}

// StateMachine is a validated, executable machine: the definition plus
// the constructed state objects. States reference each other by name only;
// resolution always goes through the states map.
type StateMachine struct {
	def    *domain.StateMachineDef
	states map[string]state
}

// NewStateMachine constructs the executable machine from a definition,
// validating every state and every transition target. All violations
// surface as *domain.DefinitionError.
func NewStateMachine(def *domain.StateMachineDef) (*StateMachine, error) {
	if def == nil {
		return nil, &domain.DefinitionError{Message: "definition is nil"}
	}
	if def.StartAt == "" {
		return nil, &domain.DefinitionError{Field: "StartAt", Message: "is required"}
	}
	if len(def.States) == 0 {
		return nil, &domain.DefinitionError{Field: "States", Message: "must not be empty"}
	}
	if _, ok := def.States[def.StartAt]; !ok {
		return nil, &domain.DefinitionError{Field: "StartAt", Message: fmt.Sprintf("names unknown state %q", def.StartAt)}
	}

	sm := &StateMachine{def: def, states: make(map[string]state, len(def.States))}
	for name, sd := range def.States {
		sd.Name = name
		st, err := newState(sd)
		if err != nil {
			return nil, err
		}
		sm.states[name] = st
	}

	if err := sm.validateTargets(); err != nil {
		return nil, err
	}
	return sm, nil
}

// Def returns the underlying definition.
func (sm *StateMachine) Def() *domain.StateMachineDef { return sm.def }

// validateTargets checks that every Next, Default and Catch.Next resolves
// in the States map.
func (sm *StateMachine) validateTargets() error {
	check := func(field, target string) error {
		if target == "" {
			return nil
		}
		if _, ok := sm.states[target]; !ok {
			return &domain.DefinitionError{Field: field, Message: fmt.Sprintf("names unknown state %q", target)}
		}
		return nil
	}

	for name, st := range sm.states {
		def := st.Def()
		if err := check("States."+name+".Next", def.Next); err != nil {
			return err
		}
		if err := check("States."+name+".Default", def.Default); err != nil {
			return err
		}
		for i, rule := range def.Choices {
			if err := check(fmt.Sprintf("States.%s.Choices[%d].Next", name, i), rule.Next); err != nil {
				return err
			}
		}
		for i, c := range def.Catch {
			if err := check(fmt.Sprintf("States.%s.Catch[%d].Next", name, i), c.Next); err != nil {
				return err
			}
		}
	}
	return nil
}

// newState dispatches on Type and validates the variant's fields.
func newState(def *domain.StateDef) (state, error) {
	if err := validateTransitionFields(def); err != nil {
		return nil, err
	}

	switch def.Type {
	case domain.StateTypeTask:
		return newTaskState(def)
	case domain.StateTypeChoice:
		return newChoiceState(def)
	case domain.StateTypeWait:
		return newWaitState(def)
	case domain.StateTypeParallel:
		return newParallelState(def)
	case domain.StateTypePass:
		return &passState{def: def}, nil
	case domain.StateTypeSucceed:
		return &succeedState{def: def}, nil
	case domain.StateTypeFail:
		return newFailState(def)
	default:
		return nil, &domain.DefinitionError{
			Field:   "States." + def.Name + ".Type",
			Message: fmt.Sprintf("unknown state type %q", def.Type),
		}
	}
}

// validateTransitionFields enforces the Next/End mutual exclusion
// invariant per state type.
func validateTransitionFields(def *domain.StateDef) error {
	field := "States." + def.Name

	switch def.Type {
	case domain.StateTypeTask, domain.StateTypePass, domain.StateTypeWait, domain.StateTypeParallel:
		hasNext := def.Next != ""
		if hasNext == def.End {
			return &domain.DefinitionError{Field: field, Message: "exactly one of Next or End must be set"}
		}
	case domain.StateTypeChoice:
		if def.Next != "" || def.End {
			return &domain.DefinitionError{Field: field, Message: "Choice states use Choices/Default, not Next or End"}
		}
	case domain.StateTypeSucceed, domain.StateTypeFail:
		if def.Next != "" || def.End {
			return &domain.DefinitionError{Field: field, Message: def.Type + " states are terminal and take neither Next nor End"}
		}
	}

	return validateErrorPolicies(def, field)
}

func validateErrorPolicies(def *domain.StateDef, field string) error {
	for i, r := range def.Retry {
		if len(r.ErrorEquals) == 0 {
			return &domain.DefinitionError{Field: fmt.Sprintf("%s.Retry[%d].ErrorEquals", field, i), Message: "must not be empty"}
		}
		if r.IntervalSeconds < 0 {
			return &domain.DefinitionError{Field: fmt.Sprintf("%s.Retry[%d].IntervalSeconds", field, i), Message: "must be >= 0"}
		}
		if r.MaxAttempts < 0 {
			return &domain.DefinitionError{Field: fmt.Sprintf("%s.Retry[%d].MaxAttempts", field, i), Message: "must be >= 0"}
		}
		if r.BackoffRate < 1.0 {
			return &domain.DefinitionError{Field: fmt.Sprintf("%s.Retry[%d].BackoffRate", field, i), Message: "must be >= 1.0"}
		}
		if r.MaxDelaySeconds < 0 {
			return &domain.DefinitionError{Field: fmt.Sprintf("%s.Retry[%d].MaxDelay", field, i), Message: "must be >= 0"}
		}
	}
	for i, c := range def.Catch {
		if len(c.ErrorEquals) == 0 {
			return &domain.DefinitionError{Field: fmt.Sprintf("%s.Catch[%d].ErrorEquals", field, i), Message: "must not be empty"}
		}
		if c.Next == "" {
			return &domain.DefinitionError{Field: fmt.Sprintf("%s.Catch[%d].Next", field, i), Message: "is required"}
		}
	}
	return nil
}

// parseSeconds normalizes a Wait Seconds value: a non-negative integer,
// possibly expressed as a numeric string.
func parseSeconds(v any) (int, error) {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative seconds %d", n)
		}
		return n, nil
	case int64:
		return parseSeconds(int(n))
	case float64:
		return parseSeconds(int(n))
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("seconds %q is not numeric", n)
		}
		return parseSeconds(int(parsed))
	default:
		return 0, fmt.Errorf("seconds has unsupported type %T", v)
	}
}
