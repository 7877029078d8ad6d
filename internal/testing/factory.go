package testing

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/saturn597/stem/internal/config"
	"github.com/saturn597/stem/internal/output"
	"github.com/saturn597/stem/internal/version"
	"github.com/saturn597/stem/pkg/logging"
)

// TestFramework holds all components needed for a run
type TestFramework struct {
	Runner          TestRunner
	Reporter        TestReporter
	InstanceManager TorInstanceManager
	Executor        GroupExecutor
	Versions        *version.Detector
	Tracker         *output.ErrorTracker
	Logger          TestLogger
}

// NewTestFramework wires a runner for settings. The report is written to
// out and logs is flushed into it after every group when logging is
// buffered.
func NewTestFramework(settings *config.Settings, cfg ConfigSource, out io.Writer, logs <-chan logging.LogEntry) (*TestFramework, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings are required")
	}

	logger := NewLogger("TestRunner", settings.HasLogLevel() && settings.Level() <= logging.LevelDebug)
	formatter := output.NewFormatter(!settings.NoColor)

	detector := version.NewDetector(settings.TorPath)
	instanceManager := NewTorInstanceManager(settings, logger, isatty.IsTerminal(os.Stderr.Fd()))
	executor := NewGoTestExecutor(settings.GoBinary, settings.GoDir, settings.GoFlags, logger)
	reporter := NewTestReporter(out, formatter)
	tracker := output.NewErrorTracker()

	runner := NewTestRunner(settings, cfg, RunnerDeps{
		Versions:  detector,
		Executor:  executor,
		Instances: instanceManager,
		Reporter:  reporter,
		Pipeline:  output.DefaultPipeline(tracker, settings.GoModule, formatter),
		Logs:      logs,
		Logger:    logger,
	})

	return &TestFramework{
		Runner:          runner,
		Reporter:        reporter,
		InstanceManager: instanceManager,
		Executor:        executor,
		Versions:        detector,
		Tracker:         tracker,
		Logger:          logger,
	}, nil
}
