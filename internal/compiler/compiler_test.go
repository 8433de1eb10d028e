package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statelyhq/stately/pkg/domain"
)

func TestDecodeRetryDefaults(t *testing.T) {
	def, err := Decode(map[string]any{
		"StartAt": "A",
		"States": map[string]any{
			"A": map[string]any{
				"Type": "Task", "Resource": "r",
				"Retry": []any{
					map[string]any{"ErrorEquals": []any{"States.ALL"}},
					map[string]any{
						"ErrorEquals":     []any{"States.Timeout"},
						"IntervalSeconds": 5,
						"MaxAttempts":     1,
						"BackoffRate":     1.5,
						"MaxDelay":        60,
					},
				},
				"End": true,
			},
		},
	})
	require.NoError(t, err)

	retries := def.States["A"].Retry
	require.Len(t, retries, 2)

	assert.Equal(t, domain.DefaultRetryIntervalSeconds, retries[0].IntervalSeconds)
	assert.Equal(t, domain.DefaultRetryMaxAttempts, retries[0].MaxAttempts)
	assert.Equal(t, domain.DefaultRetryBackoffRate, retries[0].BackoffRate)
	assert.Equal(t, domain.DefaultRetryMaxDelaySeconds, retries[0].MaxDelaySeconds)

	assert.Equal(t, 5, retries[1].IntervalSeconds)
	assert.Equal(t, 1, retries[1].MaxAttempts)
	assert.Equal(t, 1.5, retries[1].BackoffRate)
	assert.Equal(t, 60, retries[1].MaxDelaySeconds)
}

func TestDecodePathPresence(t *testing.T) {
	def, err := Decode(map[string]any{
		"StartAt": "A",
		"States": map[string]any{
			"A": map[string]any{
				"Type": "Task", "Resource": "r",
				"InputPath":  "$.in",
				"ResultPath": nil,
				"End":        true,
			},
			"B": map[string]any{
				"Type": "Task", "Resource": "r",
				"ResultPath": "$.out",
				"End":        true,
			},
		},
	})
	require.NoError(t, err)

	a := def.States["A"]
	require.NotNil(t, a.InputPath)
	assert.Equal(t, "$.in", *a.InputPath)
	assert.Nil(t, a.ResultPath)
	assert.True(t, a.ResultPathNull, "explicit null must be distinguished from absent")
	assert.Nil(t, a.OutputPath)
	assert.False(t, a.ResultSet)

	b := def.States["B"]
	require.NotNil(t, b.ResultPath)
	assert.Equal(t, "$.out", *b.ResultPath)
	assert.False(t, b.ResultPathNull)
}

func TestDecodeChoiceRules(t *testing.T) {
	def, err := Decode(map[string]any{
		"StartAt": "C",
		"States": map[string]any{
			"C": map[string]any{
				"Type": "Choice",
				"Choices": []any{
					map[string]any{
						"And": []any{
							map[string]any{"Variable": "$.a", "IsPresent": true},
							map[string]any{"Not": map[string]any{"Variable": "$.b", "StringEquals": "x"}},
						},
						"Next": "D",
					},
				},
				"Default": "D",
			},
			"D": map[string]any{"Type": "Succeed"},
		},
	})
	require.NoError(t, err)

	rules := def.States["C"].Choices
	require.Len(t, rules, 1)
	assert.Equal(t, "D", rules[0].Next)
	require.Len(t, rules[0].And, 2)
	assert.Equal(t, "IsPresent", rules[0].And[0].Comparator)
	require.NotNil(t, rules[0].And[1].Not)
	assert.Equal(t, "StringEquals", rules[0].And[1].Not.Comparator)
	assert.Equal(t, "x", rules[0].And[1].Not.Operand)
}

func TestDecodeMultipleComparatorsRejected(t *testing.T) {
	_, err := Decode(map[string]any{
		"StartAt": "C",
		"States": map[string]any{
			"C": map[string]any{
				"Type": "Choice",
				"Choices": []any{
					map[string]any{
						"Variable":      "$.a",
						"StringEquals":  "x",
						"NumericEquals": 1,
						"Next":          "D",
					},
				},
			},
			"D": map[string]any{"Type": "Succeed"},
		},
	})
	require.Error(t, err)
	var defErr *domain.DefinitionError
	assert.ErrorAs(t, err, &defErr)
}

func TestDecodeBranches(t *testing.T) {
	def, err := Decode(map[string]any{
		"StartAt": "P",
		"States": map[string]any{
			"P": map[string]any{
				"Type": "Parallel",
				"Branches": []any{
					map[string]any{
						"StartAt": "Inner",
						"States": map[string]any{
							"Inner": map[string]any{"Type": "Pass", "End": true},
						},
					},
				},
				"End": true,
			},
		},
	})
	require.NoError(t, err)

	branches := def.States["P"].Branches
	require.Len(t, branches, 1)
	assert.Equal(t, "Inner", branches[0].StartAt)
	assert.Contains(t, branches[0].States, "Inner")
}

func TestDecodeSecondsAndResultPresence(t *testing.T) {
	def, err := Decode(map[string]any{
		"StartAt": "W",
		"States": map[string]any{
			"W": map[string]any{"Type": "Wait", "Seconds": 0, "Next": "P"},
			"P": map[string]any{"Type": "Pass", "Result": nil, "End": true},
		},
	})
	require.NoError(t, err)

	w := def.States["W"]
	assert.True(t, w.SecondsSet)
	assert.Equal(t, 0, w.Seconds)

	// An explicit null Result still counts as a configured literal.
	p := def.States["P"]
	assert.True(t, p.ResultSet)
	assert.Nil(t, p.Result)
}

func TestDecodeTopLevel(t *testing.T) {
	t.Run("TimeoutSeconds Must Be Positive", func(t *testing.T) {
		_, err := Decode(map[string]any{
			"StartAt":        "A",
			"TimeoutSeconds": 0,
			"States": map[string]any{
				"A": map[string]any{"Type": "Succeed"},
			},
		})
		require.Error(t, err)
	})

	t.Run("Comment And Timeout Carried", func(t *testing.T) {
		def, err := Decode(map[string]any{
			"StartAt":        "A",
			"Comment":        "demo machine",
			"TimeoutSeconds": 300,
			"States": map[string]any{
				"A": map[string]any{"Type": "Succeed"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "demo machine", def.Comment)
		assert.Equal(t, 300, def.TimeoutSeconds)
	})
}
