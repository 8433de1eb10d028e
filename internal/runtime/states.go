package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/statelyhq/stately/pkg/domain"
)

// choiceState selects the next state by evaluating its predicate tree.
// It never modifies data: Execute is the identity.
type choiceState struct {
	def *domain.StateDef
}

func newChoiceState(def *domain.StateDef) (state, error) {
	field := "States." + def.Name
	if len(def.Choices) == 0 {
		return nil, &domain.DefinitionError{Field: field + ".Choices", Message: "must not be empty"}
	}
	for i, rule := range def.Choices {
		if rule.Next == "" {
			return nil, &domain.DefinitionError{Field: fmt.Sprintf("%s.Choices[%d].Next", field, i), Message: "is required"}
		}
		if err := validateRule(rule, fmt.Sprintf("%s.Choices[%d]", field, i)); err != nil {
			return nil, err
		}
	}
	return &choiceState{def: def}, nil
}

func validateRule(rule *domain.ChoiceRule, field string) error {
	connectives := 0
	if len(rule.And) > 0 {
		connectives++
		for i, sub := range rule.And {
			if err := validateRule(sub, fmt.Sprintf("%s.And[%d]", field, i)); err != nil {
				return err
			}
		}
	}
	if len(rule.Or) > 0 {
		connectives++
		for i, sub := range rule.Or {
			if err := validateRule(sub, fmt.Sprintf("%s.Or[%d]", field, i)); err != nil {
				return err
			}
		}
	}
	if rule.Not != nil {
		connectives++
		if err := validateRule(rule.Not, field+".Not"); err != nil {
			return err
		}
	}

	if connectives > 1 {
		return &domain.DefinitionError{Field: field, Message: "at most one of And, Or, Not may be set"}
	}
	if connectives == 1 {
		if rule.Variable != "" || rule.Comparator != "" {
			return &domain.DefinitionError{Field: field, Message: "connectives cannot carry Variable or a comparator"}
		}
		return nil
	}

	if rule.Variable == "" {
		return &domain.DefinitionError{Field: field + ".Variable", Message: "is required"}
	}
	if rule.Comparator == "" {
		return &domain.DefinitionError{Field: field, Message: "a comparator is required"}
	}
	return nil
}

func (s *choiceState) Def() *domain.StateDef { return s.def }
func (s *choiceState) Terminal() bool        { return false }

func (s *choiceState) Execute(_ context.Context, _ *Env, input any) (any, error) {
	return input, nil
}

// Next iterates choices in declared order; the first match wins. With no
// match and no Default, the execution fails with NoChoiceMatched.
func (s *choiceState) Next(output any) (string, error) {
	for _, rule := range s.def.Choices {
		if EvalRule(rule, output) {
			return rule.Next, nil
		}
	}
	if s.def.Default != "" {
		return s.def.Default, nil
	}
	return "", domain.NewStatesError(domain.ErrorNameNoChoiceMatched,
		fmt.Sprintf("no choice rule matched in state %q and no Default is set", s.def.Name))
}

// waitState suspends the execution for a configured duration, then passes
// its input through unchanged.
type waitState struct {
	def     *domain.StateDef
	seconds int
	target  time.Time
}

func newWaitState(def *domain.StateDef) (state, error) {
	field := "States." + def.Name

	configured := 0
	for _, set := range []bool{def.SecondsSet, def.Timestamp != "", def.SecondsPath != "", def.TimestampPath != ""} {
		if set {
			configured++
		}
	}
	if configured != 1 {
		return nil, &domain.DefinitionError{
			Field:   field,
			Message: "exactly one of Seconds, Timestamp, SecondsPath, TimestampPath must be set",
		}
	}

	st := &waitState{def: def}
	if def.SecondsSet {
		secs, err := parseSeconds(def.Seconds)
		if err != nil {
			return nil, &domain.DefinitionError{Field: field + ".Seconds", Message: err.Error()}
		}
		st.seconds = secs
	}
	if def.Timestamp != "" {
		target, err := parseTimestamp(def.Timestamp)
		if err != nil {
			return nil, &domain.DefinitionError{Field: field + ".Timestamp", Message: err.Error()}
		}
		st.target = target
	}
	return st, nil
}

func (s *waitState) Def() *domain.StateDef    { return s.def }
func (s *waitState) Terminal() bool           { return s.def.End }
func (s *waitState) Next(any) (string, error) { return s.def.Next, nil }

func (s *waitState) Execute(ctx context.Context, env *Env, input any) (any, error) {
	duration, err := s.duration(input)
	if err != nil {
		return nil, err
	}

	if duration > 0 {
		env.Engine.logger.Debug("waiting",
			"execution", env.Exec.Name,
			"state", s.def.Name,
			"duration", duration)
		if err := sleepCtx(ctx, duration); err != nil {
			return nil, err
		}
	}
	return input, nil
}

func (s *waitState) duration(input any) (time.Duration, error) {
	switch {
	case s.def.SecondsSet:
		return time.Duration(s.seconds) * time.Second, nil
	case s.def.Timestamp != "":
		return untilTimestamp(s.target), nil
	case s.def.SecondsPath != "":
		v := Resolve(input, s.def.SecondsPath)
		secs, err := parseSeconds(v)
		if err != nil {
			return 0, domain.NewStatesError(domain.ErrorNameInvalidWaitConfig,
				fmt.Sprintf("SecondsPath %q: %v", s.def.SecondsPath, err))
		}
		return time.Duration(secs) * time.Second, nil
	default:
		v := Resolve(input, s.def.TimestampPath)
		str, ok := v.(string)
		if !ok {
			return 0, domain.NewStatesError(domain.ErrorNameInvalidWaitConfig,
				fmt.Sprintf("TimestampPath %q did not resolve to a string", s.def.TimestampPath))
		}
		target, err := parseTimestamp(str)
		if err != nil {
			return 0, domain.NewStatesError(domain.ErrorNameInvalidWaitConfig, err.Error())
		}
		return untilTimestamp(target), nil
	}
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not ISO-8601", s)
	}
	return t, nil
}

func untilTimestamp(target time.Time) time.Duration {
	d := time.Until(target)
	if d < 0 {
		return 0
	}
	return d
}

// passState emits its literal Result (when set) or the effective input,
// routed through the data-flow pipeline.
type passState struct {
	def *domain.StateDef
}

func (s *passState) Def() *domain.StateDef    { return s.def }
func (s *passState) Terminal() bool           { return s.def.End }
func (s *passState) Next(any) (string, error) { return s.def.Next, nil }

func (s *passState) Execute(_ context.Context, _ *Env, input any) (any, error) {
	effective := ApplyInputPath(input, s.def)
	if s.def.Parameters != nil {
		effective = EvalTemplate(s.def.Parameters, effective)
	}

	raw := effective
	if s.def.ResultSet {
		raw = s.def.Result
	}

	placed := ApplyResultPath(input, raw, s.def.ResultPath, s.def.ResultPathNull)
	return ApplyOutputPath(placed, s.def), nil
}

// succeedState terminates the execution successfully, shaping its final
// output through input-path and output-path only.
type succeedState struct {
	def *domain.StateDef
}

func (s *succeedState) Def() *domain.StateDef    { return s.def }
func (s *succeedState) Terminal() bool           { return true }
func (s *succeedState) Next(any) (string, error) { return "", nil }

func (s *succeedState) Execute(_ context.Context, _ *Env, input any) (any, error) {
	effective := ApplyInputPath(input, s.def)
	return ApplyOutputPath(effective, s.def), nil
}

// failState terminates the execution with its configured error and cause.
// Input passes through unchanged for the history record.
type failState struct {
	def *domain.StateDef
}

func newFailState(def *domain.StateDef) (state, error) {
	field := "States." + def.Name
	if def.Error == "" {
		return nil, &domain.DefinitionError{Field: field + ".Error", Message: "is required"}
	}
	if def.Cause == "" {
		return nil, &domain.DefinitionError{Field: field + ".Cause", Message: "is required"}
	}
	return &failState{def: def}, nil
}

func (s *failState) Def() *domain.StateDef    { return s.def }
func (s *failState) Terminal() bool           { return true }
func (s *failState) Next(any) (string, error) { return "", nil }

func (s *failState) Execute(_ context.Context, _ *Env, input any) (any, error) {
	return input, domain.NewStatesError(s.def.Error, s.def.Cause)
}
