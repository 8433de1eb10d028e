// Package ports declares the driven interfaces of the interpreter:
// the task executor boundary, execution snapshot persistence, and
// definition document sources. Adapters live in internal/adapters.
package ports
