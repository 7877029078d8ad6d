package testing

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturn597/stem/internal/config"
	"github.com/saturn597/stem/internal/output"
	"github.com/saturn597/stem/internal/target"
	"github.com/saturn597/stem/internal/testing/mock"
	"github.com/saturn597/stem/internal/version"
	"github.com/saturn597/stem/pkg/logging"
)

const passingOutput = "=== RUN   TestOK\n--- PASS: TestOK (0.00s)\nPASS\nok  \tgithub.com/saturn597/stem/test/unit/x\t0.002s\n"

type executed struct {
	group  string
	target target.Target
}

type fakeExecutor struct {
	calls     []executed
	outputs   map[string]*ExecResult
	errs      map[string]error
	onExecute func(group Group, env Environment)
}

func (f *fakeExecutor) Execute(ctx context.Context, group Group, env Environment) (*ExecResult, error) {
	f.calls = append(f.calls, executed{group: group.DisplayName(), target: env.Target})
	if f.onExecute != nil {
		f.onExecute(group, env)
	}
	if err := f.errs[group.DisplayName()]; err != nil {
		return nil, err
	}
	if res, ok := f.outputs[group.DisplayName()]; ok {
		return res, nil
	}
	return &ExecResult{Output: passingOutput}, nil
}

func (f *fakeExecutor) groups() []string {
	var names []string
	for _, call := range f.calls {
		names = append(names, call.group)
	}
	return names
}

type fakeManager struct {
	fail      map[target.Target]error
	requests  []StartRequest
	instances []*TorInstance
	cleaned   int
}

func (m *fakeManager) Start(ctx context.Context, req StartRequest) (*TorInstance, error) {
	m.requests = append(m.requests, req)
	inst := &TorInstance{Target: req.Target, Options: req.Options}
	m.instances = append(m.instances, inst)
	return inst, m.fail[req.Target]
}

func (m *fakeManager) CleanupStale() {
	m.cleaned++
}

type fakeVersions struct {
	version string
	err     error
}

func (f fakeVersions) Version(ctx context.Context) (*version.Version, error) {
	if f.err != nil {
		return nil, f.err
	}
	return version.MustParse(f.version), nil
}

type runnerFixture struct {
	settings *config.Settings
	store    *config.Store
	executor *fakeExecutor
	manager  *fakeManager
	versions fakeVersions
	clock    *mock.MockClock
	logs     chan logging.LogEntry
	out      bytes.Buffer
}

func newRunnerFixture(unit, integ bool) *runnerFixture {
	return &runnerFixture{
		settings: &config.Settings{
			Unit:     unit,
			Integ:    integ,
			TorPath:  "/usr/bin/tor",
			GoModule: config.DefaultModulePath,
		},
		store:    config.NewStore(),
		executor: &fakeExecutor{outputs: map[string]*ExecResult{}, errs: map[string]error{}},
		manager:  &fakeManager{fail: map[target.Target]error{}},
		versions: fakeVersions{version: "0.4.8.9"},
		clock:    mock.NewMockClock(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)),
	}
}

func (f *runnerFixture) run(t *testing.T) *RunResult {
	t.Helper()
	formatter := output.NewFormatter(false)
	deps := RunnerDeps{
		Versions:  f.versions,
		Executor:  f.executor,
		Instances: f.manager,
		Reporter:  NewTestReporter(&f.out, formatter),
		Pipeline:  output.DefaultPipeline(output.NewErrorTracker(), f.settings.GoModule, formatter),
		Clock:     f.clock,
	}
	if f.logs != nil {
		deps.Logs = f.logs
	}

	result, err := NewTestRunner(f.settings, f.store, deps).Run(context.Background())
	require.NoError(t, err)
	return result
}

func TestRunner_UnitTestsPass(t *testing.T) {
	f := newRunnerFixture(true, false)

	result := f.run(t)

	assert.True(t, result.Passed())
	assert.Equal(t, []Phase{PhaseConfiguring, PhaseRunningUnit, PhaseReporting, PhaseDone}, result.Phases)
	assert.Equal(t, []string{
		"test/unit/util/enum",
		"test/unit/util/system",
		"test/unit/version",
		"test/unit/socket/controlmessage",
		"test/unit/socket/controlline",
		"test/unit/connection/authentication",
		"test/unit/connection/protocolinfo",
	}, f.executor.groups())
	assert.Equal(t, 0, f.manager.cleaned, "unit tests never touch tor")

	report := f.out.String()
	assert.Contains(t, report, "UNIT TESTS")
	assert.Contains(t, report, "test/unit/util/enum")
	assert.Contains(t, report, "[SUCCESS]")
	assert.NotContains(t, report, "=== RUN")
	assert.NotContains(t, report, "INTEGRATION TESTS")
	assert.Contains(t, report, "TESTING PASSED (0 seconds)")
}

func TestRunner_FailuresAndElapsedTime(t *testing.T) {
	f := newRunnerFixture(true, false)
	f.executor.onExecute = func(Group, Environment) { f.clock.Advance(3 * time.Second) }
	f.executor.outputs["test/unit/version"] = &ExecResult{
		Output:   "=== RUN   TestParse\n--- FAIL: TestParse (0.00s)\n    version_test.go:12: boom\nFAIL\nFAIL\tgithub.com/saturn597/stem/test/unit/version\t0.003s\n",
		ExitCode: 1,
	}
	f.executor.outputs["test/unit/socket/controlline"] = &ExecResult{Output: "no tests\n", ExitCode: 2}
	f.executor.errs["test/unit/connection/protocolinfo"] = errors.New("go: not found")

	result := f.run(t)

	assert.False(t, result.Passed())
	assert.Equal(t, 21*time.Second, result.Duration)
	assert.Equal(t, []output.ErrorRecord{
		{Group: "test/unit/version", Text: "--- FAIL: TestParse (0.00s)"},
		{Group: "test/unit/socket/controlline", Text: "exited with status 2"},
		{Group: "test/unit/connection/protocolinfo", Text: "go: not found"},
	}, result.Errors)

	report := f.out.String()
	assert.Contains(t, report, "[FAILURE]")
	assert.Contains(t, report, "FAIL\ttest/unit/version")
	assert.Contains(t, report, "TESTING FAILED (21 seconds)\n"+
		"  test/unit/version: --- FAIL: TestParse (0.00s)\n"+
		"  test/unit/socket/controlline: exited with status 2\n"+
		"  test/unit/connection/protocolinfo: go: not found\n")
}

func TestRunner_IntegrationDefaultTarget(t *testing.T) {
	f := newRunnerFixture(false, true)

	result := f.run(t)

	assert.True(t, result.Passed())
	assert.Equal(t, 1, f.manager.cleaned)
	assert.Equal(t, []target.Target{target.RunOpen}, result.Targets)
	require.Len(t, f.manager.requests, 1)
	assert.Equal(t, []target.TorrcOption{target.OptionPort}, f.manager.requests[0].Options)
	assert.Equal(t, []Phase{
		PhaseConfiguring,
		PhaseRunningIntegration,
		PhaseStartProcess,
		PhaseExecuteGroups,
		PhaseStopProcess,
		PhaseReporting,
		PhaseDone,
	}, result.Phases)

	require.Len(t, f.executor.calls, len(integrationGroups))
	for _, call := range f.executor.calls {
		assert.Equal(t, target.RunOpen, call.target)
	}
	assert.Equal(t, "test/integ/util/conf", f.executor.calls[0].group)
	assert.Equal(t, "test/integ/control/controller", f.executor.calls[len(f.executor.calls)-1].group)

	require.Len(t, f.manager.instances, 1)
	assert.True(t, f.manager.instances[0].Stopped())
	assert.Contains(t, f.out.String(), "INTEGRATION TESTS")
	assert.Contains(t, f.out.String(), "Running tests...")
}

func TestRunner_StartFailureDoesNotAbortRun(t *testing.T) {
	f := newRunnerFixture(false, true)
	target.Enable(f.store, []target.Target{target.RunOpen, target.RunPassword})
	f.manager.fail[target.RunOpen] = errors.New("tor exited before it was ready")

	result := f.run(t)

	assert.False(t, result.Passed())
	assert.Equal(t, []Phase{
		PhaseConfiguring,
		PhaseRunningIntegration,
		PhaseStartProcess,
		PhaseStopProcess,
		PhaseStartProcess,
		PhaseExecuteGroups,
		PhaseStopProcess,
		PhaseReporting,
		PhaseDone,
	}, result.Phases)

	require.Len(t, result.StartFailures, 1)
	assert.Equal(t, target.RunOpen, result.StartFailures[0].Target)
	assert.Equal(t, []output.ErrorRecord{{
		Group:  "tor",
		Target: "RUN_OPEN",
		Text:   "unable to start tor: tor exited before it was ready",
	}}, result.Errors)

	for _, call := range f.executor.calls {
		assert.Equal(t, target.RunPassword, call.target)
	}
	for _, inst := range f.manager.instances {
		assert.True(t, inst.Stopped(), "instance for %s was not stopped", inst.Target)
	}

	report := f.out.String()
	assert.Contains(t, report, "Unable to start tor for RUN_OPEN: tor exited before it was ready")
	assert.Contains(t, report, "  [RUN_OPEN] tor: unable to start tor: tor exited before it was ready")
}

func TestRunner_SkipsTargetsTheInstalledTorCannotRun(t *testing.T) {
	f := newRunnerFixture(false, true)
	target.Enable(f.store, []target.Target{target.RunOpen, target.RunPtrace})
	f.versions = fakeVersions{version: "0.2.2.35"}

	result := f.run(t)

	assert.True(t, result.Passed(), "skipped targets are not failures")
	assert.Equal(t, []target.Target{target.RunOpen}, result.Targets)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, target.RunPtrace, result.Skipped[0].Target)
	assert.Contains(t, f.out.String(), "Unable to run target RUN_PTRACE, this requires tor version 0.2.3.9")
}

func TestRunner_VersionDetectionFailureSkipsGatedTargets(t *testing.T) {
	f := newRunnerFixture(false, true)
	f.store.Set("integ.target.run.all", "true")
	f.versions = fakeVersions{err: errors.New("exec: \"tor\": executable file not found")}

	result := f.run(t)

	assert.Equal(t, []target.Target{
		target.RunOpen,
		target.RunPassword,
		target.RunCookie,
		target.RunMultiple,
	}, result.Targets)
	assert.Len(t, result.Skipped, 3)
	assert.Contains(t, f.out.String(), "unable to determine the installed version")
}

func TestRunner_EnvironmentDescribesInstance(t *testing.T) {
	f := newRunnerFixture(true, true)
	f.store.Set("integ.target.online", "true")

	var envs []Environment
	f.executor.onExecute = func(_ Group, env Environment) { envs = append(envs, env) }
	f.run(t)

	require.Len(t, envs, len(unitGroups)+len(integrationGroups))
	unitEnv := envs[0]
	assert.Nil(t, unitEnv.Instance)
	assert.Empty(t, unitEnv.Target)
	assert.True(t, unitEnv.Attributes.Online)

	integEnv := envs[len(envs)-1]
	assert.Equal(t, target.RunOpen, integEnv.Target)
	require.NotNil(t, integEnv.Instance)
	assert.Equal(t, "/usr/bin/tor", integEnv.TorPath)
}

func TestRunner_FlushesLogsAfterEachGroup(t *testing.T) {
	f := newRunnerFixture(true, false)
	f.logs = make(chan logging.LogEntry, 16)
	f.executor.onExecute = func(group Group, _ Environment) {
		if group.Name == "version" {
			f.logs <- logging.LogEntry{
				Timestamp: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
				Level:     logging.LevelNotice,
				Subsystem: "tor",
				Message:   "Bootstrapped 100%: Done",
			}
		}
	}

	f.run(t)

	report := f.out.String()
	logLine := "10:00:00.000 [NOTICE] tor: Bootstrapped 100%: Done"
	require.Contains(t, report, logLine)
	assert.Less(t, bytes.Index(f.out.Bytes(), []byte(logLine)), bytes.Index(f.out.Bytes(), []byte("test/unit/socket/controlmessage")),
		"logs are flushed before the next group starts")
}

func TestRunner_PrintsConfigurationAtInfo(t *testing.T) {
	f := newRunnerFixture(true, false)
	f.settings.LogLevel = "INFO"
	f.store.Set("test.arg.log", "INFO")

	f.run(t)
	assert.Contains(t, f.out.String(), "test.arg.log")

	quiet := newRunnerFixture(true, false)
	quiet.settings.LogLevel = "NOTICE"
	quiet.store.Set("test.arg.log", "NOTICE")

	quiet.run(t)
	assert.NotContains(t, quiet.out.String(), "test.arg.log")
}
