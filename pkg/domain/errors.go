package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error names surfaced on the execution record. These are the taxonomy
// strings a host sees in Execution.Error and matches in Retry/Catch lists.
const (
	ErrorNameDefinition        = "DefinitionError"
	ErrorNameStateNotFound     = "StateNotFound"
	ErrorNameNoNextState       = "NoNextState"
	ErrorNameNoChoiceMatched   = "NoChoiceMatched"
	ErrorNameTaskTimeout       = "TaskTimeout"
	ErrorNameTaskFailed        = "TaskFailed"
	ErrorNameBranchFailed      = "BranchFailed"
	ErrorNameInvalidWaitConfig = "InvalidWaitConfig"
)

// Wildcard error names recognized in Retry/Catch ErrorEquals lists.
const (
	MatchAll         = "States.ALL"
	MatchTimeout     = "States.Timeout"
	MatchTaskFailed  = "States.TaskFailed"
	MatchPermissions = "States.Permissions"
)

// DefinitionError reports a malformed definition at build time. It is fatal
// at construction and never raised during execution.
type DefinitionError struct {
	// Field locates the offending field, e.g. "States.Worker.Resource".
	Field   string
	Message string
}

func (e *DefinitionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", ErrorNameDefinition, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", ErrorNameDefinition, e.Message)
}

// ErrorName implements the Named interface.
func (e *DefinitionError) ErrorName() string { return ErrorNameDefinition }

// StatesError is an execution-time error carrying an explicit error class
// name. Task executors return (or wrap) one to control how Retry/Catch
// entries match; the engine uses it for every error in the §7 taxonomy.
type StatesError struct {
	// Name is the error class, e.g. "TaskTimeout" or a host-defined class
	// such as "RuntimeError".
	Name string

	// Cause is the human-readable message.
	Cause string

	// Err is an optional wrapped error.
	Err error
}

func (e *StatesError) Error() string {
	if e.Cause == "" {
		return e.Name
	}
	return e.Name + ": " + e.Cause
}

func (e *StatesError) Unwrap() error { return e.Err }

// ErrorName implements the Named interface.
func (e *StatesError) ErrorName() string { return e.Name }

// NewStatesError builds a classified execution error.
func NewStatesError(name, cause string) *StatesError {
	return &StatesError{Name: name, Cause: cause}
}

// NewTimeoutError builds the TaskTimeout sentinel for a breached deadline.
func NewTimeoutError(cause string) *StatesError {
	return &StatesError{Name: ErrorNameTaskTimeout, Cause: cause}
}

// Named is implemented by errors that carry an explicit class name.
type Named interface {
	ErrorName() string
}

// ErrorName extracts the class name of err. Errors without an explicit
// class are host failures and report as TaskFailed.
func ErrorName(err error) string {
	var named Named
	if errors.As(err, &named) {
		return named.ErrorName()
	}
	return ErrorNameTaskFailed
}

// ErrorCause extracts the message of err without its class prefix.
func ErrorCause(err error) string {
	var se *StatesError
	if errors.As(err, &se) {
		if se.Cause != "" {
			return se.Cause
		}
		return se.Name
	}
	return err.Error()
}

// IsTimeout reports whether err is the TaskTimeout sentinel.
func IsTimeout(err error) bool {
	return ErrorName(err) == ErrorNameTaskTimeout
}

// MatchesError reports whether a single ErrorEquals name matches err.
//
// Matching rules:
//   - States.ALL matches anything.
//   - States.Timeout matches only the TaskTimeout sentinel.
//   - States.TaskFailed matches any non-timeout error.
//   - States.Permissions matches errors whose message mentions "permission"
//     or whose class is States.Permissions.
//   - Any other literal matches on class equality or as a substring of the
//     message. The substring clause is deliberately broad; it mirrors the
//     behavior hosts depend on when executors return plain errors.
func MatchesError(name string, err error) bool {
	switch name {
	case MatchAll:
		return true
	case MatchTimeout:
		return IsTimeout(err)
	case MatchTaskFailed:
		return !IsTimeout(err)
	case MatchPermissions:
		if ErrorName(err) == MatchPermissions {
			return true
		}
		return strings.Contains(strings.ToLower(err.Error()), "permission")
	default:
		if ErrorName(err) == name {
			return true
		}
		return strings.Contains(err.Error(), name)
	}
}
