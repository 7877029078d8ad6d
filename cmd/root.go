package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saturn597/stem/internal/target"
)

// Exit codes for run-tests.
const (
	// ExitCodeSuccess indicates the tests passed, or there was nothing to run.
	ExitCodeSuccess = 0
	// ExitCodeError indicates invalid arguments or configuration.
	ExitCodeError = 1
	// ExitCodeTestsFailed indicates the tests ran and something failed.
	ExitCodeTestsFailed = 2
)

// rootOptions holds the command line flags.
type rootOptions struct {
	unit       bool
	integ      bool
	configPath string
	targets    string
	logLevel   string
	torPath    string
	noColor    bool
}

// rootCmd represents the base command, run-tests itself.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "run-tests",
		Short: "Run stem's unit and integration tests",
		Long: `Runs stem's unit tests and, against live tor instances, its integration
tests, then summarises every failure.

Integration targets:
` + targetUsage(),
		Example: `  run-tests --unit --log notice
  run-tests --integ --targets RUN_COOKIE,RUN_PASSWORD
  run-tests --unit --integ --config ~/.stem/test.cfg`,
		Args: cobra.NoArgs,
		// Errors are printed by executeRoot, which knows how each kind reads.
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.unit, "unit", "u", false, "runs unit tests")
	flags.BoolVarP(&opts.integ, "integ", "i", false, "runs integration tests")
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a custom test configuration")
	flags.StringVarP(&opts.targets, "targets", "t", "", "comma separated list of extra targets for integ tests")
	flags.StringVarP(&opts.logLevel, "log", "l", "", "includes logging output with test results, runlevels:\n"+
		"  TRACE, DEBUG, INFO, NOTICE, WARN, ERROR")
	flags.StringVar(&opts.torPath, "tor", "tor", "tor binary to run integration tests against")
	flags.BoolVar(&opts.noColor, "no-color", false, "disables colored output")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// targetUsage lists every target with its description, names padded to the
// longest one.
func targetUsage() string {
	infos := target.All()
	width := 0
	for _, info := range infos {
		if len(info.Target) > width {
			width = len(info.Target)
		}
	}

	var sb strings.Builder
	for _, info := range infos {
		fmt.Fprintf(&sb, "    %-*s - %s\n", width, info.Target, info.Description)
	}
	return sb.String()
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs run-tests and exits with its exit code.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "run-tests version %s\n" .Version}}`)
	os.Exit(executeRoot(rootCmd, os.Args[1:]))
}

// executeRoot runs cmd with args, prints any error and returns the exit code.
func executeRoot(cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return ExitCodeSuccess
	}
	printError(cmd.ErrOrStderr(), err)
	return getExitCode(err)
}

// printError writes err the way users expect to see it. Test failures were
// already reported by the run itself.
func printError(w io.Writer, err error) {
	var failed *TestsFailedError
	if errors.As(err, &failed) {
		return
	}

	var usage *UsageError
	if errors.As(err, &usage) || isCobraUsageError(err) {
		fmt.Fprintf(w, "%s (for usage provide --help)\n", err)
		return
	}
	fmt.Fprintln(w, err)
}

// isCobraUsageError matches the argument errors cobra raises itself, which
// do not go through the flag error func.
func isCobraUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.HasPrefix(msg, "unknown flag")
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var failed *TestsFailedError
	if errors.As(err, &failed) {
		return ExitCodeTestsFailed
	}

	// Default to general error
	return ExitCodeError
}
