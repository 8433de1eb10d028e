package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statelyhq/stately/internal/compiler"
)

func TestGenerateMermaid(t *testing.T) {
	def, err := compiler.Decode(map[string]any{
		"StartAt": "Check",
		"States": map[string]any{
			"Check": map[string]any{
				"Type": "Choice",
				"Choices": []any{
					map[string]any{"Variable": "$.n", "NumericGreaterThan": 10, "Next": "Big"},
				},
				"Default": "Small",
			},
			"Big": map[string]any{
				"Type":     "Task",
				"Resource": "arn:big",
				"Catch": []any{
					map[string]any{"ErrorEquals": []any{"States.ALL"}, "Next": "Small"},
				},
				"End": true,
			},
			"Small": map[string]any{"Type": "Succeed"},
		},
	})
	require.NoError(t, err)

	out := GenerateMermaid(def, nil)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `__start((start)) --> Check`)
	assert.Contains(t, out, `Check{"Check"}`)
	assert.Contains(t, out, `Big[["Big"]]`)
	assert.Contains(t, out, `Small(("Small"))`)
	assert.Contains(t, out, `Check -- "$.n NumericGreaterThan 10" --> Big`)
	assert.Contains(t, out, `Check -- "default" --> Small`)
	assert.Contains(t, out, `Big -. "States.ALL" .-> Small`)
}

func TestGenerateMermaidOverlay(t *testing.T) {
	def, err := compiler.Decode(map[string]any{
		"StartAt": "A",
		"States": map[string]any{
			"A": map[string]any{"Type": "Pass", "Next": "B"},
			"B": map[string]any{"Type": "Succeed"},
		},
	})
	require.NoError(t, err)

	out := GenerateMermaid(def, &Overlay{
		VisitedStates: []string{"A", "A"},
		CurrentState:  "B",
	})

	assert.Contains(t, out, "class A visited;")
	assert.Contains(t, out, "class B current;")
	// Duplicate visited entries collapse to one class line.
	assert.Equal(t, 1, strings.Count(out, "class A visited;"))
}

func TestGenerateMermaidBranches(t *testing.T) {
	def, err := compiler.Decode(map[string]any{
		"StartAt": "Fan",
		"States": map[string]any{
			"Fan": map[string]any{
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

	out := GenerateMermaid(def, nil)
	assert.Contains(t, out, "subgraph")
	assert.Contains(t, out, "Fan_b0_Inner")
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "my_state_2", sanitizeID("my state-2"))
	assert.Equal(t, "plain", sanitizeID("plain"))
}
