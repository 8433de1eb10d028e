package runtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalString(t *testing.T) {
	data := map[string]any{
		"user":  map[string]any{"name": "ada", "id": 7.0},
		"blob":  `{"k":"v"}`,
		"count": 3.0,
	}

	t.Run("Plain Literal Passes Through", func(t *testing.T) {
		assert.Equal(t, "hello", EvalString("hello", data))
	})

	t.Run("Path Reference Resolves", func(t *testing.T) {
		assert.Equal(t, "ada", EvalString("$.user.name", data))
	})

	t.Run("Root Reference Resolves", func(t *testing.T) {
		assert.Equal(t, data, EvalString("$", data))
	})

	t.Run("Format", func(t *testing.T) {
		out := EvalString("States.Format('Hello {}, you are {}', $.user.name, $.user.id)", data)
		assert.Equal(t, "Hello ada, you are 7", out)
	})

	t.Run("Format Encodes Non Strings As JSON", func(t *testing.T) {
		out := EvalString("States.Format('user={}', $.user)", data)
		assert.Contains(t, out, `"name":"ada"`)
	})

	t.Run("StringToJson", func(t *testing.T) {
		out := EvalString("States.StringToJson($.blob)", data)
		assert.Equal(t, map[string]any{"k": "v"}, out)
	})

	t.Run("JsonToString", func(t *testing.T) {
		out := EvalString("States.JsonToString($.user.name)", data)
		assert.Equal(t, `"ada"`, out)
	})

	t.Run("Array", func(t *testing.T) {
		out := EvalString("States.Array($.count, 'x', 1)", data)
		assert.Equal(t, []any{3.0, "x", float64(1)}, out)
	})

	t.Run("MathRandom Within Bounds", func(t *testing.T) {
		for range 50 {
			out := EvalString("States.MathRandom(5, 10)", data)
			n, ok := out.(int)
			require.True(t, ok, "expected int, got %T", out)
			assert.GreaterOrEqual(t, n, 5)
			assert.LessOrEqual(t, n, 10)
		}
	})

	t.Run("UUID Is Valid V4", func(t *testing.T) {
		out := EvalString("States.UUID()", data)
		s, ok := out.(string)
		require.True(t, ok)
		parsed, err := uuid.Parse(s)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())
	})

	t.Run("Nested Intrinsic", func(t *testing.T) {
		out := EvalString("States.JsonToString(States.Array(1, 2))", data)
		assert.Equal(t, "[1,2]", out)
	})

	t.Run("Parse Error Falls Back To Literal", func(t *testing.T) {
		literal := "States.Format('unterminated"
		assert.Equal(t, literal, EvalString(literal, data))
	})

	t.Run("Evaluation Error Falls Back To Literal", func(t *testing.T) {
		literal := "States.StringToJson($.user)"
		assert.Equal(t, literal, EvalString(literal, data))
	})

	t.Run("Bad Bounds Fall Back To Literal", func(t *testing.T) {
		literal := "States.MathRandom(10, 5)"
		assert.Equal(t, literal, EvalString(literal, data))
	})
}

func TestSplitArgs(t *testing.T) {
	assert.Equal(t, []string{"'a,b'", "$.x", "3"}, splitArgs("'a,b', $.x, 3"))
	assert.Equal(t, []string{"States.Array(1, 2)", "'z'"}, splitArgs("States.Array(1, 2), 'z'"))
	assert.Nil(t, splitArgs(""))
}
