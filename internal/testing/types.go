package testing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/saturn597/stem/internal/output"
	"github.com/saturn597/stem/internal/target"
	"github.com/saturn597/stem/pkg/logging"
)

// GroupKind is the kind of a test group.
type GroupKind string

const (
	// GroupUnit groups run without tor.
	GroupUnit GroupKind = "unit"
	// GroupIntegration groups run against a live tor instance, once per target.
	GroupIntegration GroupKind = "integ"
)

// Phase is a step of a test run.
type Phase string

const (
	PhaseConfiguring        Phase = "CONFIGURING"
	PhaseRunningUnit        Phase = "RUNNING_UNIT"
	PhaseRunningIntegration Phase = "RUNNING_INTEGRATION"
	PhaseStartProcess       Phase = "START_PROCESS"
	PhaseExecuteGroups      Phase = "EXECUTE_GROUPS"
	PhaseStopProcess        Phase = "STOP_PROCESS"
	PhaseReporting          Phase = "REPORTING"
	PhaseDone               Phase = "DONE"
)

// Group is a Go package of tests.
type Group struct {
	// Name is the package path below the kind's test root, e.g. "util/system".
	Name string
	Kind GroupKind
	// DependsOn lists groups of the same kind that must run first.
	DependsOn []string
}

// Package returns the package pattern handed to go test.
func (g Group) Package() string {
	return "./test/" + string(g.Kind) + "/" + g.Name
}

// DisplayName is shown in the group's divider.
func (g Group) DisplayName() string {
	return "test/" + string(g.Kind) + "/" + g.Name
}

// ExecResult is the outcome of running one group.
type ExecResult struct {
	Output   string
	ExitCode int
	Duration time.Duration
}

// GroupExecutor runs a test group and returns its raw output. A failing test
// is a normal result; an error means the group could not be run at all.
type GroupExecutor interface {
	Execute(ctx context.Context, group Group, env Environment) (*ExecResult, error)
}

// StartRequest describes the tor instance to start for a target.
type StartRequest struct {
	Target     target.Target
	Options    []target.TorrcOption
	Attributes target.Attributes
}

// TorInstanceManager starts tor instances.
type TorInstanceManager interface {
	// Start launches tor and blocks until it is ready. On failure the
	// partially started instance is still returned, when there is one, and
	// must be stopped by the caller.
	Start(ctx context.Context, req StartRequest) (*TorInstance, error)
	// CleanupStale terminates tor processes left behind by earlier runs.
	CleanupStale()
}

// StartFailure records a target whose tor instance never became ready.
type StartFailure struct {
	Target target.Target
	Err    error
}

// RunResult summarises a complete run.
type RunResult struct {
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	Targets       []target.Target
	Skipped       []target.Skipped
	StartFailures []StartFailure
	Errors        []output.ErrorRecord
	Phases        []Phase
}

// Passed reports whether the run found no failures.
func (r *RunResult) Passed() bool {
	return len(r.Errors) == 0
}

// TestRunner executes a complete run.
type TestRunner interface {
	Run(ctx context.Context) (*RunResult, error)
}

// KeyValueSource is the configuration shown in the configuration dump.
type KeyValueSource = output.KeyValueSource

// TestReporter renders a run as it progresses.
type TestReporter interface {
	// ReportConfig prints the effective configuration.
	ReportConfig(src KeyValueSource)
	// ReportDivider prints a section (header) or group divider.
	ReportDivider(msg string, header bool)
	// ReportGroupOutput prints a group's rendered output.
	ReportGroupOutput(rendered string)
	// ReportLogs prints buffered log entries.
	ReportLogs(entries []logging.LogEntry)
	// ReportRunningTests is called once tor is ready for a target.
	ReportRunningTests(t target.Target)
	// ReportStartFailure is called when tor could not be started for a target.
	ReportStartFailure(t target.Target, err error)
	// ReportSectionEnd separates the unit and integration sections.
	ReportSectionEnd()
	// ReportResult prints skipped targets and the final verdict.
	ReportResult(result *RunResult)
}

// TestLogger provides centralized logging for test execution
type TestLogger interface {
	// Debug logs debug-level messages
	Debug(format string, args ...interface{})
	// Info logs info-level messages
	Info(format string, args ...interface{})
	// Error logs error-level messages
	Error(format string, args ...interface{})
	// IsDebugEnabled returns whether debug logging is enabled
	IsDebugEnabled() bool
}

// Environment describes what a group runs against. It is handed to the test
// binaries as STEM_TEST_* environment variables.
type Environment struct {
	TorPath    string
	Target     target.Target // empty for unit tests
	Instance   *TorInstance  // nil for unit tests
	Attributes target.Attributes
}

// Vars returns the environment variables for the test binary.
func (e Environment) Vars() []string {
	vars := []string{
		"STEM_TEST_TOR=" + e.TorPath,
		"STEM_TEST_ONLINE=" + strconv.FormatBool(e.Attributes.Online),
	}
	if e.Target != "" {
		vars = append(vars, "STEM_TEST_TARGET="+string(e.Target))
	}
	if inst := e.Instance; inst != nil {
		options := make([]string, len(inst.Options))
		for i, opt := range inst.Options {
			options[i] = string(opt)
		}
		vars = append(vars,
			"STEM_TEST_DATA_DIR="+inst.DataDir,
			"STEM_TEST_TORRC_OPTIONS="+strings.Join(options, ","),
		)
		if inst.ControlPort > 0 {
			vars = append(vars, fmt.Sprintf("STEM_TEST_CONTROL_PORT=%d", inst.ControlPort))
		}
		if inst.ControlSocket != "" {
			vars = append(vars, "STEM_TEST_CONTROL_SOCKET="+inst.ControlSocket)
		}
		if inst.ControlPassword != "" {
			vars = append(vars, "STEM_TEST_CONTROL_PASSWORD="+inst.ControlPassword)
		}
		if inst.CookiePath != "" {
			vars = append(vars, "STEM_TEST_COOKIE_PATH="+inst.CookiePath)
		}
	}
	return vars
}
