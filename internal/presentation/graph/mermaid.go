// Package graph renders state machine definitions as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/statelyhq/stately/pkg/domain"
)

// Overlay contains dynamic execution data to visualize on the graph.
type Overlay struct {
	VisitedStates []string
	CurrentState  string
}

// GenerateMermaid produces Mermaid flowchart syntax for a definition.
// Shapes follow state semantics:
//   - Choice: {Diamond}
//   - Task: [[Subroutine]]
//   - Wait: [/Parallelogram/]
//   - Succeed/Fail: ((Circle))
//   - Pass/Parallel: [Rectangle]
//
// Catch edges render dotted with the error list as label; an overlay
// highlights visited and current states.
func GenerateMermaid(def *domain.StateMachineDef, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    __start((start)) --> %s\n", sanitizeID(def.StartAt)))

	writeStates(&sb, def, "")

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.VisitedStates {
			id := sanitizeID(name)
			if id != "" && !seen[id] {
				seen[id] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", id))
			}
		}
		if overlay.CurrentState != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeID(overlay.CurrentState)))
		}
	}

	return sb.String()
}

func writeStates(sb *strings.Builder, def *domain.StateMachineDef, idPrefix string) {
	for name, sd := range def.States {
		id := sanitizeID(idPrefix + name)
		opener, closer := shapeFor(sd.Type)
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, name, closer))

		if sd.Next != "" {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", id, sanitizeID(idPrefix+sd.Next)))
		}
		for _, rule := range sd.Choices {
			label := strings.ReplaceAll(summarizeRule(rule), `"`, "'")
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", id, label, sanitizeID(idPrefix+rule.Next)))
		}
		if sd.Default != "" {
			sb.WriteString(fmt.Sprintf("    %s -- \"default\" --> %s\n", id, sanitizeID(idPrefix+sd.Default)))
		}
		for _, c := range sd.Catch {
			label := strings.Join(c.ErrorEquals, ",")
			sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> %s\n", id, label, sanitizeID(idPrefix+c.Next)))
		}

		for i, branch := range sd.Branches {
			branchPrefix := fmt.Sprintf("%s%s_b%d_", idPrefix, sanitizeID(name), i)
			sb.WriteString(fmt.Sprintf("    subgraph %sbranch%d [\"%s branch %d\"]\n", id, i, name, i))
			writeStates(sb, branch, branchPrefix)
			sb.WriteString("    end\n")
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", id, sanitizeID(branchPrefix+branch.StartAt)))
		}
	}
}

func shapeFor(stateType string) (string, string) {
	switch stateType {
	case domain.StateTypeChoice:
		return "{", "}"
	case domain.StateTypeTask:
		return "[[", "]]"
	case domain.StateTypeWait:
		return "[/", "/]"
	case domain.StateTypeSucceed, domain.StateTypeFail:
		return "((", "))"
	default:
		return "[", "]"
	}
}

// summarizeRule compresses a predicate tree into a short edge label.
func summarizeRule(rule *domain.ChoiceRule) string {
	switch {
	case len(rule.And) > 0:
		return fmt.Sprintf("and(%d)", len(rule.And))
	case len(rule.Or) > 0:
		return fmt.Sprintf("or(%d)", len(rule.Or))
	case rule.Not != nil:
		return "not " + summarizeRule(rule.Not)
	default:
		return fmt.Sprintf("%s %s %v", rule.Variable, rule.Comparator, rule.Operand)
	}
}

func sanitizeID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
