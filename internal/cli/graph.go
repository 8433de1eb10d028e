package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/statelyhq/stately"
	"github.com/statelyhq/stately/pkg/domain"
)

// Graph prints the Mermaid flowchart for a definition file. With describe
// set, a rendered markdown summary of the machine precedes the chart.
func Graph(path string, describe bool) error {
	eng, err := stately.NewFromFile(path)
	if err != nil {
		return err
	}

	if describe {
		rendered, err := renderDescription(eng.Definition())
		if err != nil {
			return err
		}
		fmt.Println(rendered)
	}

	fmt.Println(eng.MermaidGraph(nil))
	return nil
}

// renderDescription builds a markdown summary of the machine and renders
// it for the terminal.
func renderDescription(def *domain.StateMachineDef) (string, error) {
	var sb strings.Builder
	sb.WriteString("# State Machine\n\n")
	if def.Comment != "" {
		sb.WriteString(def.Comment + "\n\n")
	}
	sb.WriteString(fmt.Sprintf("Starts at **%s** with %d states.\n\n", def.StartAt, len(def.States)))
	sb.WriteString("| State | Type | Transition |\n|---|---|---|\n")

	names := make([]string, 0, len(def.States))
	for name := range def.States {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sd := def.States[name]
		transition := sd.Next
		switch {
		case sd.End:
			transition = "end"
		case sd.Type == domain.StateTypeSucceed, sd.Type == domain.StateTypeFail:
			transition = "terminal"
		case sd.Type == domain.StateTypeChoice:
			transition = fmt.Sprintf("%d choices", len(sd.Choices))
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", name, sd.Type, transition))
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return "", err
	}
	return renderer.Render(sb.String())
}
