// Package compiler turns an already-parsed definition document into a
// validated, executable state machine. It decodes the document's mappings
// into typed definitions and delegates semantic validation to the runtime
// constructors; every violation surfaces as *domain.DefinitionError.
package compiler

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/statelyhq/stately/internal/runtime"
	"github.com/statelyhq/stately/pkg/domain"
)

// Build compiles a definition document into an executable machine.
func Build(doc map[string]any) (*runtime.StateMachine, error) {
	def, err := Decode(doc)
	if err != nil {
		return nil, err
	}
	return runtime.NewStateMachine(def)
}

// Decode converts the document into a typed definition tree without
// constructing states. Unknown top-level keys are ignored.
func Decode(doc map[string]any) (*domain.StateMachineDef, error) {
	if doc == nil {
		return nil, &domain.DefinitionError{Message: "document is empty"}
	}

	def := &domain.StateMachineDef{}
	def.StartAt, _ = doc["StartAt"].(string)
	def.Comment, _ = doc["Comment"].(string)

	if raw, ok := doc["TimeoutSeconds"]; ok {
		secs, ok := toInt(raw)
		if !ok || secs <= 0 {
			return nil, &domain.DefinitionError{Field: "TimeoutSeconds", Message: "must be a positive integer"}
		}
		def.TimeoutSeconds = secs
	}

	states, ok := doc["States"].(map[string]any)
	if !ok || len(states) == 0 {
		return nil, &domain.DefinitionError{Field: "States", Message: "must be a non-empty mapping"}
	}

	def.States = make(map[string]*domain.StateDef, len(states))
	for name, rawState := range states {
		stateDoc, ok := rawState.(map[string]any)
		if !ok {
			return nil, &domain.DefinitionError{Field: "States." + name, Message: "must be a mapping"}
		}
		sd, err := decodeState(name, stateDoc)
		if err != nil {
			return nil, err
		}
		def.States[name] = sd
	}
	return def, nil
}

// flatState covers the scalar fields mapstructure can decode directly.
// Fields whose absence is semantically distinct from their zero value
// (paths, Seconds, Result, End-vs-Next) are handled by hand afterwards.
type flatState struct {
	Type             string `mapstructure:"Type"`
	Comment          string `mapstructure:"Comment"`
	Next             string `mapstructure:"Next"`
	End              bool   `mapstructure:"End"`
	Resource         string `mapstructure:"Resource"`
	TimeoutSeconds   int    `mapstructure:"TimeoutSeconds"`
	HeartbeatSeconds int    `mapstructure:"HeartbeatSeconds"`
	Credentials      string `mapstructure:"Credentials"`
	Default          string `mapstructure:"Default"`
	Timestamp        string `mapstructure:"Timestamp"`
	SecondsPath      string `mapstructure:"SecondsPath"`
	TimestampPath    string `mapstructure:"TimestampPath"`
	Error            string `mapstructure:"Error"`
	Cause            string `mapstructure:"Cause"`
}

func decodeState(name string, doc map[string]any) (*domain.StateDef, error) {
	field := "States." + name

	var flat flatState
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &flat,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("building decoder: %w", err)
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, &domain.DefinitionError{Field: field, Message: err.Error()}
	}

	if flat.Type == "" {
		return nil, &domain.DefinitionError{Field: field + ".Type", Message: "is required"}
	}
	if raw, ok := doc["TimeoutSeconds"]; ok {
		if secs, okInt := toInt(raw); !okInt || secs <= 0 {
			return nil, &domain.DefinitionError{Field: field + ".TimeoutSeconds", Message: "must be a positive integer"}
		}
	}
	if raw, ok := doc["HeartbeatSeconds"]; ok {
		if secs, okInt := toInt(raw); !okInt || secs <= 0 {
			return nil, &domain.DefinitionError{Field: field + ".HeartbeatSeconds", Message: "must be a positive integer"}
		}
	}

	sd := &domain.StateDef{
		Name:             name,
		Type:             flat.Type,
		Comment:          flat.Comment,
		Next:             flat.Next,
		End:              flat.End,
		Resource:         flat.Resource,
		TimeoutSeconds:   flat.TimeoutSeconds,
		HeartbeatSeconds: flat.HeartbeatSeconds,
		Credentials:      flat.Credentials,
		Default:          flat.Default,
		Timestamp:        flat.Timestamp,
		SecondsPath:      flat.SecondsPath,
		TimestampPath:    flat.TimestampPath,
		Error:            flat.Error,
		Cause:            flat.Cause,
	}

	sd.InputPath, _ = decodePath(doc, "InputPath")
	sd.OutputPath, _ = decodePath(doc, "OutputPath")
	sd.ResultPath, sd.ResultPathNull = decodePath(doc, "ResultPath")

	if raw, ok := doc["Seconds"]; ok {
		sd.Seconds = raw
		sd.SecondsSet = true
	}
	if raw, ok := doc["Result"]; ok {
		sd.Result = raw
		sd.ResultSet = true
	}
	sd.Parameters = doc["Parameters"]
	sd.ResultSelector = doc["ResultSelector"]

	if sd.Retry, err = decodeRetries(field, doc["Retry"]); err != nil {
		return nil, err
	}
	if sd.Catch, err = decodeCatches(field, doc["Catch"]); err != nil {
		return nil, err
	}
	if sd.Choices, err = decodeChoices(field, doc["Choices"]); err != nil {
		return nil, err
	}
	if sd.Branches, err = decodeBranches(field, doc["Branches"]); err != nil {
		return nil, err
	}

	return sd, nil
}

// decodePath reads an optional path field, distinguishing absent, present
// (pointer) and explicit null (the null flag).
func decodePath(doc map[string]any, key string) (*string, bool) {
	raw, ok := doc[key]
	if !ok {
		return nil, false
	}
	if raw == nil {
		return nil, true
	}
	if s, ok := raw.(string); ok {
		return &s, false
	}
	return nil, false
}

func decodeRetries(field string, raw any) ([]domain.RetryDef, error) {
	if raw == nil {
		return nil, nil
	}
	entries, ok := asList(raw)
	if !ok {
		return nil, &domain.DefinitionError{Field: field + ".Retry", Message: "must be a list"}
	}

	out := make([]domain.RetryDef, 0, len(entries))
	for i, entry := range entries {
		doc, ok := entry.(map[string]any)
		if !ok {
			return nil, &domain.DefinitionError{Field: fmt.Sprintf("%s.Retry[%d]", field, i), Message: "must be a mapping"}
		}
		rd := domain.RetryDef{
			IntervalSeconds: intOr(doc, "IntervalSeconds", domain.DefaultRetryIntervalSeconds),
			MaxAttempts:     intOr(doc, "MaxAttempts", domain.DefaultRetryMaxAttempts),
			BackoffRate:     floatOr(doc, "BackoffRate", domain.DefaultRetryBackoffRate),
			MaxDelaySeconds: intOr(doc, "MaxDelay", domain.DefaultRetryMaxDelaySeconds),
		}
		var err error
		if rd.ErrorEquals, err = stringList(doc["ErrorEquals"]); err != nil {
			return nil, &domain.DefinitionError{Field: fmt.Sprintf("%s.Retry[%d].ErrorEquals", field, i), Message: err.Error()}
		}
		out = append(out, rd)
	}
	return out, nil
}

func decodeCatches(field string, raw any) ([]domain.CatchDef, error) {
	if raw == nil {
		return nil, nil
	}
	entries, ok := asList(raw)
	if !ok {
		return nil, &domain.DefinitionError{Field: field + ".Catch", Message: "must be a list"}
	}

	out := make([]domain.CatchDef, 0, len(entries))
	for i, entry := range entries {
		doc, ok := entry.(map[string]any)
		if !ok {
			return nil, &domain.DefinitionError{Field: fmt.Sprintf("%s.Catch[%d]", field, i), Message: "must be a mapping"}
		}
		cd := domain.CatchDef{}
		cd.Next, _ = doc["Next"].(string)
		cd.ResultPath, cd.ResultPathNull = decodePath(doc, "ResultPath")
		var err error
		if cd.ErrorEquals, err = stringList(doc["ErrorEquals"]); err != nil {
			return nil, &domain.DefinitionError{Field: fmt.Sprintf("%s.Catch[%d].ErrorEquals", field, i), Message: err.Error()}
		}
		out = append(out, cd)
	}
	return out, nil
}

func decodeChoices(field string, raw any) ([]*domain.ChoiceRule, error) {
	if raw == nil {
		return nil, nil
	}
	entries, ok := asList(raw)
	if !ok {
		return nil, &domain.DefinitionError{Field: field + ".Choices", Message: "must be a list"}
	}

	out := make([]*domain.ChoiceRule, 0, len(entries))
	for i, entry := range entries {
		doc, ok := entry.(map[string]any)
		if !ok {
			return nil, &domain.DefinitionError{Field: fmt.Sprintf("%s.Choices[%d]", field, i), Message: "must be a mapping"}
		}
		rule, err := decodeRule(fmt.Sprintf("%s.Choices[%d]", field, i), doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

func decodeRule(field string, doc map[string]any) (*domain.ChoiceRule, error) {
	rule := &domain.ChoiceRule{}
	rule.Next, _ = doc["Next"].(string)
	rule.Variable, _ = doc["Variable"].(string)

	var err error
	if rule.And, err = decodeSubRules(field+".And", doc["And"]); err != nil {
		return nil, err
	}
	if rule.Or, err = decodeSubRules(field+".Or", doc["Or"]); err != nil {
		return nil, err
	}
	if sub, ok := doc["Not"].(map[string]any); ok {
		if rule.Not, err = decodeRule(field+".Not", sub); err != nil {
			return nil, err
		}
	}

	for _, name := range domain.ComparatorNames {
		if operand, ok := doc[name]; ok {
			if rule.Comparator != "" {
				return nil, &domain.DefinitionError{Field: field, Message: "multiple comparators in one rule"}
			}
			rule.Comparator = name
			rule.Operand = operand
		}
	}
	return rule, nil
}

func decodeSubRules(field string, raw any) ([]*domain.ChoiceRule, error) {
	if raw == nil {
		return nil, nil
	}
	entries, ok := asList(raw)
	if !ok {
		return nil, &domain.DefinitionError{Field: field, Message: "must be a list"}
	}
	out := make([]*domain.ChoiceRule, 0, len(entries))
	for i, entry := range entries {
		doc, ok := entry.(map[string]any)
		if !ok {
			return nil, &domain.DefinitionError{Field: fmt.Sprintf("%s[%d]", field, i), Message: "must be a mapping"}
		}
		rule, err := decodeRule(fmt.Sprintf("%s[%d]", field, i), doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

func decodeBranches(field string, raw any) ([]*domain.StateMachineDef, error) {
	if raw == nil {
		return nil, nil
	}
	entries, ok := asList(raw)
	if !ok {
		return nil, &domain.DefinitionError{Field: field + ".Branches", Message: "must be a list"}
	}

	out := make([]*domain.StateMachineDef, 0, len(entries))
	for i, entry := range entries {
		doc, ok := entry.(map[string]any)
		if !ok {
			return nil, &domain.DefinitionError{Field: fmt.Sprintf("%s.Branches[%d]", field, i), Message: "must be a mapping"}
		}
		branch, err := Decode(doc)
		if err != nil {
			return nil, &domain.DefinitionError{Field: fmt.Sprintf("%s.Branches[%d]", field, i), Message: err.Error()}
		}
		out = append(out, branch)
	}
	return out, nil
}

func asList(raw any) ([]any, bool) {
	list, ok := raw.([]any)
	return list, ok
}

func stringList(raw any) ([]string, error) {
	entries, ok := asList(raw)
	if !ok || len(entries) == 0 {
		return nil, fmt.Errorf("must be a non-empty list of strings")
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		s, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("must contain only strings")
		}
		out = append(out, s)
	}
	return out, nil
}

func toInt(raw any) (int, bool) {
	switch n := raw.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func intOr(doc map[string]any, key string, fallback int) int {
	if raw, ok := doc[key]; ok {
		if n, ok := toInt(raw); ok {
			return n
		}
	}
	return fallback
}

func floatOr(doc map[string]any, key string, fallback float64) float64 {
	if raw, ok := doc[key]; ok {
		switch n := raw.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return fallback
}
