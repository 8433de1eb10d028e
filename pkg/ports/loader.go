package ports

// DefinitionSource supplies a parsed state machine document: the root
// mapping with StartAt and States. Sources decouple the compiler from
// how documents are stored (files, embedded assets, request bodies).
type DefinitionSource interface {
	// Definition returns the parsed root mapping of the document.
	Definition() (map[string]any, error)
}

// DefinitionSourceFunc adapts a function to the DefinitionSource interface.
type DefinitionSourceFunc func() (map[string]any, error)

// Definition implements DefinitionSource.
func (f DefinitionSourceFunc) Definition() (map[string]any, error) { return f() }
