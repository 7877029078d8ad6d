package testing

import (
	"context"
	"fmt"

	"github.com/saturn597/stem/internal/config"
	"github.com/saturn597/stem/internal/output"
	"github.com/saturn597/stem/internal/target"
	"github.com/saturn597/stem/pkg/logging"
)

// ConfigSource is the configuration the runner reads targets from and
// prints. *config.Store satisfies it.
type ConfigSource interface {
	KeyValueSource
	target.BoolLookup
}

// RunnerDeps are the collaborators of a test runner.
type RunnerDeps struct {
	Versions  target.VersionSource
	Executor  GroupExecutor
	Instances TorInstanceManager
	Reporter  TestReporter
	Pipeline  *output.Pipeline
	// Logs is flushed into the report after every group. Nil when logging
	// is not buffered.
	Logs   <-chan logging.LogEntry
	Logger TestLogger
	// Clock defaults to the real clock.
	Clock Clock
}

// testRunner implements the TestRunner interface
type testRunner struct {
	settings  *config.Settings
	cfg       ConfigSource
	versions  target.VersionSource
	executor  GroupExecutor
	instances TorInstanceManager
	reporter  TestReporter
	pipeline  *output.Pipeline
	logs      <-chan logging.LogEntry
	logger    TestLogger
	clock     Clock
	phases    []Phase
}

// NewTestRunner creates a new test runner
func NewTestRunner(settings *config.Settings, cfg ConfigSource, deps RunnerDeps) TestRunner {
	r := &testRunner{
		settings:  settings,
		cfg:       cfg,
		versions:  deps.Versions,
		executor:  deps.Executor,
		instances: deps.Instances,
		reporter:  deps.Reporter,
		pipeline:  deps.Pipeline,
		logs:      deps.Logs,
		logger:    deps.Logger,
		clock:     deps.Clock,
	}
	if r.logger == nil {
		r.logger = NewSilentLogger()
	}
	if r.clock == nil {
		r.clock = RealClock{}
	}
	return r
}

// Run executes the selected unit and integration sections and reports the
// verdict. Failing tests are reported in the result, an error is only
// returned when the run could not be carried out at all.
func (r *testRunner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{StartTime: r.clock.Now()}

	r.enter(PhaseConfiguring)
	if r.settings.HasLogLevel() && r.settings.Level() <= logging.LevelInfo {
		r.reporter.ReportConfig(r.cfg)
	}

	if r.settings.Unit {
		if err := r.runUnitTests(ctx); err != nil {
			return nil, err
		}
	}

	if r.settings.Integ {
		if err := r.runIntegrationTests(ctx, result); err != nil {
			return nil, err
		}
	}

	r.enter(PhaseReporting)
	result.Duration = r.clock.Since(result.StartTime)
	result.EndTime = result.StartTime.Add(result.Duration)
	result.Errors = r.pipeline.Tracker().Records()
	r.reporter.ReportResult(result)

	r.enter(PhaseDone)
	result.Phases = append([]Phase(nil), r.phases...)
	return result, nil
}

// enter records a phase transition.
func (r *testRunner) enter(phase Phase) {
	r.phases = append(r.phases, phase)
	r.logger.Debug("Entering phase %s", phase)
}

func (r *testRunner) runUnitTests(ctx context.Context) error {
	r.enter(PhaseRunningUnit)

	groups, err := UnitGroups()
	if err != nil {
		return err
	}

	r.reporter.ReportDivider("UNIT TESTS", true)
	env := Environment{
		TorPath:    r.settings.TorPath,
		Attributes: target.ResolveAttributes(r.cfg),
	}
	for _, group := range groups {
		r.runGroup(ctx, group, env)
	}
	r.reporter.ReportSectionEnd()
	return nil
}

func (r *testRunner) runIntegrationTests(ctx context.Context, result *RunResult) error {
	r.enter(PhaseRunningIntegration)

	groups, err := IntegrationGroups()
	if err != nil {
		return err
	}

	r.reporter.ReportDivider("INTEGRATION TESTS", true)
	r.instances.CleanupStale()

	attrs := target.ResolveAttributes(r.cfg)
	selection := target.Gate(ctx, target.Resolve(r.cfg), r.versions)
	result.Targets = selection.Run
	result.Skipped = selection.Skipped

	for _, t := range selection.Run {
		if err := ctx.Err(); err != nil {
			r.pipeline.Tracker().Record(output.ErrorRecord{Group: "run", Target: string(t), Text: fmt.Sprintf("not run: %v", err)})
			continue
		}
		r.runTarget(ctx, t, groups, attrs, result)
	}
	return nil
}

// runTarget starts tor for t, runs every integration group against it and
// stops it again, whatever happened in between.
func (r *testRunner) runTarget(ctx context.Context, t target.Target, groups []Group, attrs target.Attributes, result *RunResult) {
	r.enter(PhaseStartProcess)
	logging.Notice("TestRunner", "Starting tor for target %s", t)

	inst, err := r.instances.Start(ctx, StartRequest{
		Target:     t,
		Options:    t.Info().Torrc,
		Attributes: attrs,
	})
	defer func() {
		r.enter(PhaseStopProcess)
		if inst != nil {
			if err := inst.Stop(); err != nil {
				logging.Warn("TestRunner", "Failed to stop tor for %s: %v", t, err)
			}
		}
		r.flushLogs()
	}()

	if err != nil {
		logging.Error("TestRunner", err, "Unable to start tor for %s", t)
		r.pipeline.Tracker().Record(output.ErrorRecord{
			Group:  "tor",
			Target: string(t),
			Text:   fmt.Sprintf("unable to start tor: %v", err),
		})
		result.StartFailures = append(result.StartFailures, StartFailure{Target: t, Err: err})
		r.reporter.ReportStartFailure(t, err)
		return
	}

	r.reporter.ReportRunningTests(t)
	r.enter(PhaseExecuteGroups)

	env := Environment{
		TorPath:    r.settings.TorPath,
		Target:     t,
		Instance:   inst,
		Attributes: attrs,
	}
	for _, group := range groups {
		r.runGroup(ctx, group, env)
	}
}

// runGroup prints a group's divider, runs it, prints its filtered output
// and flushes the logs it produced.
func (r *testRunner) runGroup(ctx context.Context, group Group, env Environment) {
	name := group.DisplayName()
	targetName := string(env.Target)
	r.reporter.ReportDivider(name, false)

	res, err := r.executor.Execute(ctx, group, env)
	if err != nil {
		logging.Error("TestRunner", err, "Unable to run %s", name)
		r.pipeline.Tracker().Record(output.ErrorRecord{Group: name, Target: targetName, Text: err.Error()})
		r.reporter.ReportGroupOutput("")
		r.flushLogs()
		return
	}

	rendered, found := r.pipeline.Process(name, targetName, res.Output)
	if res.ExitCode != 0 && found == 0 {
		r.pipeline.Tracker().Record(output.ErrorRecord{
			Group:  name,
			Target: targetName,
			Text:   fmt.Sprintf("exited with status %d", res.ExitCode),
		})
	}
	r.reporter.ReportGroupOutput(rendered)
	r.flushLogs()
}

func (r *testRunner) flushLogs() {
	if r.logs == nil {
		return
	}
	r.reporter.ReportLogs(logging.Drain(r.logs))
}
