package cli

import (
	"fmt"
	"sort"

	"github.com/statelyhq/stately/internal/compiler"
	"github.com/statelyhq/stately/internal/loader"
)

// Validate compiles a definition file and reports its shape. A
// DefinitionError aborts with the offending field.
func Validate(path string) error {
	doc, err := loader.FromFile(path)
	if err != nil {
		return err
	}

	machine, err := compiler.Build(doc)
	if err != nil {
		return err
	}

	def := machine.Def()
	names := make([]string, 0, len(def.States))
	for name := range def.States {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("StartAt: %s\n", def.StartAt)
	fmt.Printf("States:  %d\n", len(def.States))
	for _, name := range names {
		sd := def.States[name]
		suffix := ""
		switch {
		case sd.End:
			suffix = " (end)"
		case sd.Type == "Succeed" || sd.Type == "Fail":
			suffix = " (terminal)"
		}
		fmt.Printf("  - %s: %s%s\n", name, sd.Type, suffix)
	}
	return nil
}
