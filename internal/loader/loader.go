// Package loader reads state machine definition documents from YAML or
// JSON text and files. YAML is processed in safe mode: documents decode
// into plain mappings, never arbitrary typed objects.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/statelyhq/stately/pkg/ports"
)

// FromJSON parses a JSON definition document.
func FromJSON(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON definition: %w", err)
	}
	return doc, nil
}

// FromYAML parses a YAML definition document. JSON being a YAML subset,
// this also accepts JSON text.
func FromYAML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML definition: %w", err)
	}
	return normalizeKeys(doc).(map[string]any), nil
}

// FromFile loads a definition document, picking the parser from the file
// extension (.json uses the JSON decoder, everything else YAML).
func FromFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FromJSON(data)
	}
	return FromYAML(data)
}

// FileSource adapts a file path to the DefinitionSource port.
func FileSource(path string) ports.DefinitionSource {
	return ports.DefinitionSourceFunc(func() (map[string]any, error) {
		return FromFile(path)
	})
}

// normalizeKeys rewrites any map[any]any nodes a YAML decoder may produce
// into map[string]any so the compiler sees one shape.
func normalizeKeys(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for k, val := range node {
			node[k] = normalizeKeys(val)
		}
		return node
	case map[any]any:
		out := make(map[string]any, len(node))
		for k, val := range node {
			out[fmt.Sprintf("%v", k)] = normalizeKeys(val)
		}
		return out
	case []any:
		for i, val := range node {
			node[i] = normalizeKeys(val)
		}
		return node
	default:
		return v
	}
}
