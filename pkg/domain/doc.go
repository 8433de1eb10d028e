// Package domain contains the core types of the Stately interpreter:
// state machine definitions, the execution record, the error taxonomy,
// and lifecycle events.
//
// Types here are pure data. Behavior (validation, execution, data flow)
// lives in internal/compiler and internal/runtime.
package domain
