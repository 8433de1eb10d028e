package runtime

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// Intrinsic function names, checked in scan order.
var intrinsicNames = []string{
	"States.Format",
	"States.StringToJson",
	"States.JsonToString",
	"States.Array",
	"States.MathRandom",
	"States.UUID",
}

// EvalString evaluates one parameter string against the current data value.
//
// The string is scanned for the first recognized intrinsic name; when none
// is present but the string is a path reference, the path is resolved
// against data. Everything else passes through as a literal. Intrinsic
// evaluation is best-effort: any parse or evaluation error yields the
// original literal, never an error.
func EvalString(s string, data any) any {
	name, pos := findIntrinsic(s)
	if name == "" {
		if IsPathRef(s) {
			return Resolve(data, s)
		}
		return s
	}

	argsText, ok := extractArgs(s[pos+len(name):])
	if !ok {
		return s
	}
	out, err := callIntrinsic(name, argsText, data)
	if err != nil {
		return s
	}
	return out
}

func findIntrinsic(s string) (string, int) {
	best, bestPos := "", -1
	for _, name := range intrinsicNames {
		if pos := strings.Index(s, name+"("); pos >= 0 && (bestPos < 0 || pos < bestPos) {
			best, bestPos = name, pos
		}
	}
	// States.UUID is commonly written without arguments but still needs
	// the parenthesized form; the "(" suffix above covers both.
	return best, bestPos
}

// extractArgs takes the text following the function name (starting at the
// opening parenthesis) and returns the raw argument list between balanced
// parentheses.
func extractArgs(rest string) (string, bool) {
	if !strings.HasPrefix(rest, "(") {
		return "", false
	}
	depth := 0
	inQuote := false
	for i, r := range rest {
		switch {
		case inQuote:
			if r == '\'' {
				inQuote = false
			}
		case r == '\'':
			inQuote = true
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth == 0 {
				return rest[1:i], true
			}
		}
	}
	return "", false
}

// splitArgs splits a raw argument list on top-level commas, respecting
// single quotes and nested parentheses.
func splitArgs(raw string) []string {
	var args []string
	depth := 0
	inQuote := false
	start := 0
	for i, r := range raw {
		switch {
		case inQuote:
			if r == '\'' {
				inQuote = false
			}
		case r == '\'':
			inQuote = true
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			args = append(args, strings.TrimSpace(raw[start:i]))
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(raw[start:]); tail != "" || len(args) > 0 {
		args = append(args, tail)
	}
	return args
}

// evalArg evaluates one argument expression: a quoted string, a path
// reference, a nested intrinsic call, or a JSON literal.
func evalArg(arg string, data any) (any, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, fmt.Errorf("empty argument")
	}
	if strings.HasPrefix(arg, "'") && strings.HasSuffix(arg, "'") && len(arg) >= 2 {
		return strings.ReplaceAll(arg[1:len(arg)-1], `\'`, "'"), nil
	}
	if IsPathRef(arg) {
		return Resolve(data, arg), nil
	}
	if name, pos := findIntrinsic(arg); name != "" && pos == 0 {
		argsText, ok := extractArgs(arg[len(name):])
		if !ok {
			return nil, fmt.Errorf("unbalanced call: %s", arg)
		}
		return callIntrinsic(name, argsText, data)
	}
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return nil, fmt.Errorf("unparseable argument %q: %w", arg, err)
	}
	return v, nil
}

func callIntrinsic(name, argsText string, data any) (any, error) {
	args := splitArgs(argsText)

	switch name {
	case "States.UUID":
		if len(args) != 0 {
			return nil, fmt.Errorf("States.UUID takes no arguments")
		}
		return uuid.NewString(), nil

	case "States.Format":
		if len(args) == 0 {
			return nil, fmt.Errorf("States.Format needs a format string")
		}
		fmtVal, err := evalArg(args[0], data)
		if err != nil {
			return nil, err
		}
		fmtStr, ok := fmtVal.(string)
		if !ok {
			return nil, fmt.Errorf("States.Format format is not a string")
		}
		out := fmtStr
		for _, arg := range args[1:] {
			v, err := evalArg(arg, data)
			if err != nil {
				return nil, err
			}
			out = strings.Replace(out, "{}", stringify(v), 1)
		}
		return out, nil

	case "States.StringToJson":
		if len(args) != 1 {
			return nil, fmt.Errorf("States.StringToJson takes one argument")
		}
		v, err := evalArg(args[0], data)
		if err != nil {
			return nil, err
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("States.StringToJson argument is not a string")
		}
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return parsed, nil

	case "States.JsonToString":
		if len(args) != 1 {
			return nil, fmt.Errorf("States.JsonToString takes one argument")
		}
		v, err := evalArg(args[0], data)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(encoded), nil

	case "States.Array":
		out := make([]any, 0, len(args))
		for _, arg := range args {
			v, err := evalArg(arg, data)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case "States.MathRandom":
		if len(args) != 2 {
			return nil, fmt.Errorf("States.MathRandom takes two arguments")
		}
		lo, err := intArg(args[0], data)
		if err != nil {
			return nil, err
		}
		hi, err := intArg(args[1], data)
		if err != nil {
			return nil, err
		}
		if hi < lo {
			return nil, fmt.Errorf("States.MathRandom bounds reversed")
		}
		return lo + rand.Intn(hi-lo+1), nil
	}

	return nil, fmt.Errorf("unknown intrinsic %s", name)
}

func intArg(arg string, data any) (int, error) {
	v, err := evalArg(arg, data)
	if err != nil {
		return 0, err
	}
	f, ok := asNumber(v)
	if !ok {
		return 0, fmt.Errorf("argument %q is not numeric", arg)
	}
	return int(f), nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}
