// Package mock provides test doubles for the test orchestrator: a
// controllable clock for checking elapsed time and shell script binaries
// that stand in for tor and go in tests that exercise real processes.
package mock
