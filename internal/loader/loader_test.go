package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlDoc = `
StartAt: Greet
Comment: demo
States:
  Greet:
    Type: Pass
    Result:
      message: hello
    End: true
`

const jsonDoc = `{
  "StartAt": "Greet",
  "States": {
    "Greet": {"Type": "Pass", "End": true}
  }
}`

func TestFromYAML(t *testing.T) {
	doc, err := FromYAML([]byte(yamlDoc))
	require.NoError(t, err)

	assert.Equal(t, "Greet", doc["StartAt"])
	states, ok := doc["States"].(map[string]any)
	require.True(t, ok)
	greet, ok := states["Greet"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Pass", greet["Type"])
	assert.Equal(t, true, greet["End"])
	result, ok := greet["Result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", result["message"])
}

func TestFromYAMLAcceptsJSON(t *testing.T) {
	doc, err := FromYAML([]byte(jsonDoc))
	require.NoError(t, err)
	assert.Equal(t, "Greet", doc["StartAt"])
}

func TestFromJSON(t *testing.T) {
	doc, err := FromJSON([]byte(jsonDoc))
	require.NoError(t, err)
	assert.Equal(t, "Greet", doc["StartAt"])

	_, err = FromJSON([]byte("{not json"))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "machine.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlDoc), 0o644))
	jsonPath := filepath.Join(dir, "machine.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonDoc), 0o644))

	fromYAML, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "Greet", fromYAML["StartAt"])

	fromJSON, err := FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "Greet", fromJSON["StartAt"])

	_, err = FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "machine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	doc, err := FileSource(path).Definition()
	require.NoError(t, err)
	assert.Equal(t, "Greet", doc["StartAt"])
}
