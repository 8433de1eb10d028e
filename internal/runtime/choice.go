package runtime

import (
	"github.com/statelyhq/stately/pkg/domain"
)

// EvalRule evaluates one predicate tree node against the input value.
// Connectives short-circuit; leaves resolve Variable and apply their
// comparator. Comparators never fail: a type mismatch yields false.
func EvalRule(rule *domain.ChoiceRule, input any) bool {
	switch {
	case len(rule.And) > 0:
		for _, sub := range rule.And {
			if !EvalRule(sub, input) {
				return false
			}
		}
		return true
	case len(rule.Or) > 0:
		for _, sub := range rule.Or {
			if EvalRule(sub, input) {
				return true
			}
		}
		return false
	case rule.Not != nil:
		return !EvalRule(rule.Not, input)
	}

	value := Resolve(input, rule.Variable)
	return compare(rule.Comparator, value, rule.Operand)
}

func compare(comparator string, value, operand any) bool {
	switch comparator {
	case "NumericEquals":
		return compareNumeric(value, operand, func(a, b float64) bool { return a == b })
	case "NumericLessThan":
		return compareNumeric(value, operand, func(a, b float64) bool { return a < b })
	case "NumericGreaterThan":
		return compareNumeric(value, operand, func(a, b float64) bool { return a > b })
	case "NumericLessThanEquals":
		return compareNumeric(value, operand, func(a, b float64) bool { return a <= b })
	case "NumericGreaterThanEquals":
		return compareNumeric(value, operand, func(a, b float64) bool { return a >= b })

	case "StringEquals":
		lhs, okL := value.(string)
		rhs, okR := operand.(string)
		return okL && okR && lhs == rhs

	case "BooleanEquals":
		lhs, okL := asBool(value)
		rhs, okR := asBool(operand)
		return okL && okR && lhs == rhs

	case "IsNull":
		return expectBool(operand, value == nil)
	case "IsPresent":
		return expectBool(operand, value != nil)
	case "IsString", "IsTimestamp":
		_, ok := value.(string)
		return expectBool(operand, ok)
	case "IsNumeric":
		_, ok := asNumber(value)
		return expectBool(operand, ok)
	case "IsBoolean":
		_, ok := asBool(value)
		return expectBool(operand, ok)
	case "IsArray":
		_, ok := value.([]any)
		return expectBool(operand, ok)
	case "IsObject":
		_, ok := value.(map[string]any)
		return expectBool(operand, ok)
	}

	return false
}

func compareNumeric(value, operand any, cmp func(a, b float64) bool) bool {
	lhs, okL := asNumber(value)
	rhs, okR := asNumber(operand)
	return okL && okR && cmp(lhs, rhs)
}

// expectBool applies the boolean operand of a type-test comparator:
// {IsPresent: false} matches when the test is false.
func expectBool(operand any, actual bool) bool {
	expected, ok := asBool(operand)
	if !ok {
		expected = true
	}
	return actual == expected
}
