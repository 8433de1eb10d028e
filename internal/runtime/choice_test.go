package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/statelyhq/stately/pkg/domain"
)

func leaf(variable, comparator string, operand any) *domain.ChoiceRule {
	return &domain.ChoiceRule{Variable: variable, Comparator: comparator, Operand: operand}
}

func TestEvalRuleComparators(t *testing.T) {
	input := map[string]any{
		"total":   150.0,
		"name":    "ada",
		"active":  true,
		"textnum": "42",
		"null":    nil,
		"items":   []any{1.0},
		"meta":    map[string]any{},
	}

	tests := []struct {
		name string
		rule *domain.ChoiceRule
		want bool
	}{
		{"NumericEquals true", leaf("$.total", "NumericEquals", 150), true},
		{"NumericEquals false", leaf("$.total", "NumericEquals", 151), false},
		{"NumericLessThan", leaf("$.total", "NumericLessThan", 200), true},
		{"NumericGreaterThan", leaf("$.total", "NumericGreaterThan", 100), true},
		{"NumericLessThanEquals boundary", leaf("$.total", "NumericLessThanEquals", 150), true},
		{"NumericGreaterThanEquals boundary", leaf("$.total", "NumericGreaterThanEquals", 150), true},
		{"Numeric string lhs coerces", leaf("$.textnum", "NumericEquals", 42), true},
		{"Numeric unparseable yields false", leaf("$.name", "NumericGreaterThan", 0), false},
		{"StringEquals true", leaf("$.name", "StringEquals", "ada"), true},
		{"StringEquals case sensitive", leaf("$.name", "StringEquals", "Ada"), false},
		{"StringEquals non-string false", leaf("$.total", "StringEquals", "150"), false},
		{"BooleanEquals native", leaf("$.active", "BooleanEquals", true), true},
		{"BooleanEquals coerces string", leaf("$.active", "BooleanEquals", "TRUE"), true},
		{"IsNull on null", leaf("$.null", "IsNull", true), true},
		{"IsNull on value", leaf("$.total", "IsNull", true), false},
		{"IsPresent true", leaf("$.total", "IsPresent", true), true},
		{"IsPresent missing", leaf("$.absent", "IsPresent", true), false},
		{"IsPresent negated", leaf("$.absent", "IsPresent", false), true},
		{"IsString", leaf("$.name", "IsString", true), true},
		{"IsNumeric native", leaf("$.total", "IsNumeric", true), true},
		{"IsNumeric numeric string", leaf("$.textnum", "IsNumeric", true), true},
		{"IsNumeric plain string", leaf("$.name", "IsNumeric", true), false},
		{"IsBoolean native", leaf("$.active", "IsBoolean", true), true},
		{"IsBoolean non-boolean string", leaf("$.name", "IsBoolean", true), false},
		{"IsTimestamp behaves as string test", leaf("$.name", "IsTimestamp", true), true},
		{"IsArray", leaf("$.items", "IsArray", true), true},
		{"IsObject", leaf("$.meta", "IsObject", true), true},
		{"Unknown comparator yields false", leaf("$.total", "Bogus", 1), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvalRule(tc.rule, input))
		})
	}
}

func TestEvalRuleConnectives(t *testing.T) {
	input := map[string]any{"a": 1.0, "b": 2.0}

	t.Run("And All Match", func(t *testing.T) {
		rule := &domain.ChoiceRule{And: []*domain.ChoiceRule{
			leaf("$.a", "NumericEquals", 1),
			leaf("$.b", "NumericEquals", 2),
		}}
		assert.True(t, EvalRule(rule, input))
	})

	t.Run("And Short Circuits", func(t *testing.T) {
		rule := &domain.ChoiceRule{And: []*domain.ChoiceRule{
			leaf("$.a", "NumericEquals", 99),
			leaf("$.b", "NumericEquals", 2),
		}}
		assert.False(t, EvalRule(rule, input))
	})

	t.Run("Or Any Match", func(t *testing.T) {
		rule := &domain.ChoiceRule{Or: []*domain.ChoiceRule{
			leaf("$.a", "NumericEquals", 99),
			leaf("$.b", "NumericEquals", 2),
		}}
		assert.True(t, EvalRule(rule, input))
	})

	t.Run("Not Inverts", func(t *testing.T) {
		rule := &domain.ChoiceRule{Not: leaf("$.a", "NumericEquals", 1)}
		assert.False(t, EvalRule(rule, input))
	})

	t.Run("Nested Tree", func(t *testing.T) {
		rule := &domain.ChoiceRule{And: []*domain.ChoiceRule{
			{Or: []*domain.ChoiceRule{
				leaf("$.a", "NumericEquals", 99),
				leaf("$.a", "NumericEquals", 1),
			}},
			{Not: leaf("$.b", "NumericGreaterThan", 10)},
		}}
		assert.True(t, EvalRule(rule, input))
	})
}
