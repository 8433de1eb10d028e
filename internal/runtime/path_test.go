package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	root := map[string]any{
		"order": map[string]any{
			"total": 150.0,
			"items": []any{
				map[string]any{"sku": "a-1"},
				map[string]any{"sku": "b-2"},
			},
		},
		"flag": nil,
	}

	t.Run("Root", func(t *testing.T) {
		assert.Equal(t, root, Resolve(root, "$"))
	})

	t.Run("Dotted Descent", func(t *testing.T) {
		assert.Equal(t, 150.0, Resolve(root, "$.order.total"))
	})

	t.Run("Array Index", func(t *testing.T) {
		assert.Equal(t, "b-2", Resolve(root, "$.order.items.1.sku"))
	})

	t.Run("Bare Path", func(t *testing.T) {
		assert.Equal(t, 150.0, Resolve(root, "order.total"))
	})

	t.Run("Missing Key Yields Nil", func(t *testing.T) {
		assert.Nil(t, Resolve(root, "$.order.missing"))
	})

	t.Run("Index Out Of Range Yields Nil", func(t *testing.T) {
		assert.Nil(t, Resolve(root, "$.order.items.9"))
	})

	t.Run("Descent Through Scalar Yields Nil", func(t *testing.T) {
		assert.Nil(t, Resolve(root, "$.order.total.deeper"))
	})

	t.Run("Explicit Null", func(t *testing.T) {
		assert.Nil(t, Resolve(root, "$.flag"))
	})
}

func TestApply(t *testing.T) {
	t.Run("Root Replaces", func(t *testing.T) {
		out := Apply(map[string]any{"a": 1}, "$", "replacement")
		assert.Equal(t, "replacement", out)
	})

	t.Run("Creates Intermediate Objects", func(t *testing.T) {
		out := Apply(map[string]any{}, "$.a.b.c", 42)
		assert.Equal(t, map[string]any{
			"a": map[string]any{"b": map[string]any{"c": 42}},
		}, out)
	})

	t.Run("Does Not Mutate Original", func(t *testing.T) {
		original := map[string]any{"a": map[string]any{"keep": true}}
		_ = Apply(original, "$.a.new", 1)
		assert.Equal(t, map[string]any{"a": map[string]any{"keep": true}}, original)
	})

	t.Run("Objects Deep Merge", func(t *testing.T) {
		original := map[string]any{
			"result": map[string]any{"old": 1, "nested": map[string]any{"x": 1}},
		}
		out := Apply(original, "$.result", map[string]any{
			"new":    2,
			"nested": map[string]any{"y": 2},
		})
		assert.Equal(t, map[string]any{
			"result": map[string]any{
				"old":    1,
				"new":    2,
				"nested": map[string]any{"x": 1, "y": 2},
			},
		}, out)
	})

	t.Run("Scalar Loses To New Subtree", func(t *testing.T) {
		out := Apply(map[string]any{"a": 7}, "$.a", map[string]any{"b": 1})
		assert.Equal(t, map[string]any{"a": map[string]any{"b": 1}}, out)
	})

	t.Run("Array Element", func(t *testing.T) {
		original := map[string]any{"items": []any{"x", "y"}}
		out := Apply(original, "$.items.1", "z")
		assert.Equal(t, map[string]any{"items": []any{"x", "z"}}, out)
		assert.Equal(t, []any{"x", "y"}, original["items"])
	})
}

// Round-trip law: getAt(setAt(v, p, x), p) == x for any well-formed path.
func TestPathRoundTrip(t *testing.T) {
	paths := []string{"$.a", "$.a.b.c", "$.deep.nested.leaf", "$.x.y"}
	roots := []any{
		map[string]any{},
		map[string]any{"a": 1},
		map[string]any{"a": map[string]any{"b": "old"}},
	}

	for _, p := range paths {
		for _, root := range roots {
			out := Apply(root, p, "sentinel")
			assert.Equal(t, "sentinel", Resolve(out, p), "path %s", p)
		}
	}
}
