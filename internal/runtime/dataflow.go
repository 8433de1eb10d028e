package runtime

import (
	"github.com/statelyhq/stately/pkg/domain"
)

// The data-flow pipeline threads a value through a state:
//
//	effective := ApplyInputPath(input, def)
//	params := EvalTemplate(def.Parameters, effective)
//	raw := <state behavior>
//	selected := EvalTemplate(def.ResultSelector, raw)
//	placed := ApplyResultPath(input, selected, path)
//	output := ApplyOutputPath(placed, def)

// ApplyInputPath computes the effective input. An absent InputPath leaves
// the input unchanged; a set path resolves against the input, with a
// missing value becoming an empty object.
func ApplyInputPath(input any, def *domain.StateDef) any {
	if def.InputPath == nil {
		return input
	}
	resolved := Resolve(input, *def.InputPath)
	if resolved == nil {
		return map[string]any{}
	}
	return resolved
}

// EvalTemplate deep-walks a Parameters/ResultSelector template: objects
// and arrays recurse, strings run through the intrinsic evaluator with
// data as the resolution root, everything else passes through. A nil
// template returns data unchanged.
func EvalTemplate(template any, data any) any {
	if template == nil {
		return data
	}
	return evalTemplateValue(template, data)
}

func evalTemplateValue(node any, data any) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = evalTemplateValue(val, data)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = evalTemplateValue(val, data)
		}
		return out
	case string:
		return EvalString(v, data)
	default:
		return v
	}
}

// ApplyResultPath places a state result into the original input.
// An explicit null discards the result and preserves the input; "$" or an
// absent path replaces the input with the result; any deeper path
// deep-merges the result into a copy of the input at that location.
func ApplyResultPath(input, result any, path *string, pathNull bool) any {
	if pathNull {
		return input
	}
	if path == nil || *path == "$" {
		return result
	}
	return Apply(input, *path, result)
}

// ApplyOutputPath shapes the final output. An absent OutputPath passes the
// value through; a set path makes the value the subtree at that path in an
// otherwise empty object.
func ApplyOutputPath(value any, def *domain.StateDef) any {
	if def.OutputPath == nil {
		return value
	}
	if *def.OutputPath == "$" {
		return value
	}
	return Apply(map[string]any{}, *def.OutputPath, value)
}

// resultPathFor picks the effective result path for a catch entry: the
// entry's own ResultPath when present, the state's otherwise.
func resultPathFor(def *domain.StateDef, catch *domain.CatchDef) (*string, bool) {
	if catch.ResultPath != nil || catch.ResultPathNull {
		return catch.ResultPath, catch.ResultPathNull
	}
	return def.ResultPath, def.ResultPathNull
}
