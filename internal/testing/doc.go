// Package testing runs stem's unit and integration test groups and renders
// the report.
//
// # Architecture Overview
//
//	                ┌─────────────────┐
//	                │   run-tests     │ (CLI Command)
//	                │   (cmd/root.go) │
//	                └─────────┬───────┘
//	                          │
//	                ┌─────────▼───────┐
//	                │   TestRunner    │ (Sequencer)
//	                │ (test_runner.go)│
//	                └─────────┬───────┘
//	                          │
//	   ┌──────────────┬───────┴───────┬───────────────┐
//	   │              │               │               │
//	┌──▼─────────┐ ┌──▼──────────┐ ┌──▼─────────┐ ┌───▼────────┐
//	│ TorInstance│ │GroupExecutor│ │  Pipeline  │ │  Reporter  │
//	│  Manager   │ │ (go test)   │ │  (output)  │ │            │
//	└────────────┘ └─────────────┘ └────────────┘ └────────────┘
//
// # Core Components
//
// TestRunner walks through the phases of a run (see Phase). Unit groups run
// first without tor. Then, for every selected target that the installed tor
// supports, a TorInstance is started with the target's torrc options, every
// integration group is run against it and the instance is stopped again.
// A tor that fails to start is recorded as an error for its target and the
// run continues with the next one.
//
// TorInstanceManager launches tor in its own process group with a generated
// torrc, relays its log lines through pkg/logging under the "tor" subsystem
// and waits, with backoff, until it has bootstrapped and its control port or
// socket accepts connections.
//
// GroupExecutor runs one Group. The default implementation runs
// `go test -v` on the group's package, handing the instance details to the
// tests as STEM_TEST_* environment variables (see Environment.Vars).
//
// Group output passes through an output.Pipeline, which records failures in
// the run's ErrorTracker and renders the output for the TestReporter.
//
// # Group Ordering
//
// Groups declare the groups they build on. Execution order is the
// topological order of that graph, keeping declaration order where the
// dependencies allow it, so a broken foundation is reported before the
// groups that depend on it.
package testing
