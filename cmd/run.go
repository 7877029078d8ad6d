package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saturn597/stem/internal/config"
	"github.com/saturn597/stem/internal/target"
	"github.com/saturn597/stem/internal/testing"
	"github.com/saturn597/stem/pkg/logging"
	stemstrings "github.com/saturn597/stem/pkg/strings"
)

// runTests is the root command: it assembles the configuration, runs the
// selected tests and turns a failing run into TestsFailedError.
func runTests(cmd *cobra.Command, opts *rootOptions) error {
	out := cmd.OutOrStdout()

	targets, err := target.ParseList(stemstrings.SplitList(opts.targets))
	if err != nil {
		return &ArgumentError{Err: err}
	}
	if opts.logLevel != "" {
		if err := config.ValidateLogLevel(opts.logLevel); err != nil {
			return &ArgumentError{Err: err}
		}
	}

	store, err := buildStore(cmd, opts)
	if err != nil {
		return err
	}
	target.Enable(store, targets)

	settings, err := config.NewSettings(store)
	if err != nil {
		return &ArgumentError{Err: fmt.Errorf("invalid test configuration: %w", err)}
	}

	if err := settings.Validate(); err != nil {
		return &ArgumentError{Err: err}
	}
	if !settings.Unit && !settings.Integ {
		fmt.Fprint(out, "Nothing to run (for usage provide --help)\n\n")
		return nil
	}

	logs := initLogging(settings, cmd.ErrOrStderr())
	if logs != nil {
		defer logging.CloseBuffer()
	}
	logging.Debug("CLI", "Effective configuration:\n%s", store)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	framework, err := testing.NewTestFramework(settings, store, out, logs)
	if err != nil {
		return fmt.Errorf("failed to create test framework: %w", err)
	}

	result, err := framework.Runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("test run failed: %w", err)
	}
	if !result.Passed() {
		return &TestsFailedError{Failures: len(result.Errors)}
	}
	return nil
}

// buildStore layers the built-in defaults, the base settings file, the
// user's configuration and finally the command line flags. The base settings
// are found under test.go.dir, which the user's configuration may move.
func buildStore(cmd *cobra.Command, opts *rootOptions) (*config.Store, error) {
	user := config.NewStore()
	if opts.configPath != "" {
		if err := user.Load(opts.configPath); err != nil {
			return nil, &ArgumentError{Err: fmt.Errorf("Unable to load testing configuration at '%s': %v", opts.configPath, err)}
		}
	}

	store := config.NewStoreWithDefaults()
	basePath := config.BaseSettingsPath(user.Get(config.KeyGoDir, store.Get(config.KeyGoDir, "")))
	if _, err := store.LoadIfExists(basePath); err != nil {
		return nil, &ArgumentError{Err: fmt.Errorf("Unable to load testing configuration at '%s': %v", basePath, err)}
	}
	store.Merge(user)

	flags := cmd.Flags()
	if flags.Changed("unit") {
		store.Set(config.KeyUnit, strconv.FormatBool(opts.unit))
	}
	if flags.Changed("integ") {
		store.Set(config.KeyInteg, strconv.FormatBool(opts.integ))
	}
	if flags.Changed("log") {
		store.Set(config.KeyLog, opts.logLevel)
	}
	if flags.Changed("tor") {
		store.Set(config.KeyTor, opts.torPath)
	}
	if flags.Changed("no-color") {
		store.Set(config.KeyNoColor, strconv.FormatBool(opts.noColor))
	}
	return store, nil
}

// initLogging buffers log entries at the requested runlevel so they can be
// shown with the test results. Without a runlevel only warnings and errors
// are logged, straight to stderr.
func initLogging(settings *config.Settings, stderr io.Writer) <-chan logging.LogEntry {
	if settings.HasLogLevel() {
		return logging.InitForBuffer(settings.Level())
	}
	logging.InitForCLI(logging.LevelWarn, stderr)
	return nil
}
