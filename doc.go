// Package stately is a workflow interpreter for state machines written
// in the Amazon States Language dialect: JSON or YAML documents that
// describe a directed graph of typed states (Task, Choice, Wait,
// Parallel, Pass, Succeed, Fail) connected by transitions.
//
// The package root is a thin facade over the execution engine. A machine
// is compiled once from a definition document and can then drive any
// number of executions:
//
//	eng, err := stately.NewFromFile("order-flow.yaml",
//	    stately.WithLogger(logger),
//	    stately.WithTaskExecutorFunc(callLambda),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	snap, err := eng.Execute(ctx, map[string]any{"order": order}, "")
//
// Task states call out through the host-supplied executor; Retry and
// Catch policies, timeouts and heartbeats apply per state. Executions can
// be persisted step by step through an ExecutionStore (file and Redis
// adapters are included) and observed through lifecycle hooks and
// Prometheus metrics.
package stately
