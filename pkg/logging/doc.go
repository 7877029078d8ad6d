// Package logging provides the subsystem logger used by the test runner and
// the tor instances it manages.
//
// It is built on Go's slog package and extends the usual levels with the
// runlevels tor and the stem library use:
//
//	TRACE < DEBUG < INFO < NOTICE < WARN < ERROR
//
// # Modes
//
// CLI mode writes every enabled entry to a writer through a slog text handler:
//
//	logging.InitForCLI(logging.LevelWarn, os.Stderr)
//	logging.Warn("TorManager", "control port %d is busy", port)
//
// Buffer mode queues entries at or above a runlevel on a channel. The test
// runner drains that channel after each test group so log output appears next
// to the results it relates to:
//
//	entries := logging.InitForBuffer(logging.LevelNotice)
//	...
//	for _, entry := range logging.Drain(entries) {
//	    fmt.Println(entry)
//	}
//
// # Subsystems
//
// Entries carry a subsystem name, for example Config, Version, TorManager,
// TestRunner and tor (lines relayed from a tor process).
package logging
