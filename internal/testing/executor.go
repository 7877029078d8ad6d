package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// integrationTag is the build tag integration test packages are guarded by.
const integrationTag = "integ"

// goTestExecutor runs groups with `go test -v`.
type goTestExecutor struct {
	goBinary string
	dir      string
	flags    []string
	logger   TestLogger
}

// NewGoTestExecutor returns an executor that runs `goBinary test` in dir,
// adding flags to every invocation.
func NewGoTestExecutor(goBinary, dir string, flags []string, logger TestLogger) GroupExecutor {
	return &goTestExecutor{
		goBinary: goBinary,
		dir:      dir,
		flags:    flags,
		logger:   logger,
	}
}

// Args returns the go command line for a group, without the binary.
func (e *goTestExecutor) Args(group Group) []string {
	args := []string{"test", "-v", "-count=1"}
	if group.Kind == GroupIntegration {
		args = append(args, "-tags", integrationTag)
	}
	args = append(args, e.flags...)
	return append(args, group.Package())
}

// Execute runs the group. A non-zero exit status is returned in the result,
// only a failure to launch go at all is an error.
func (e *goTestExecutor) Execute(ctx context.Context, group Group, env Environment) (*ExecResult, error) {
	args := e.Args(group)
	cmd := exec.CommandContext(ctx, e.goBinary, args...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), env.Vars()...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	e.logger.Debug("Running %s %v in %s\n", e.goBinary, args, e.dir)
	started := time.Now()
	err := cmd.Run()
	result := &ExecResult{
		Output:   out.String(),
		Duration: time.Since(started),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", e.goBinary, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	e.logger.Debug("%s finished in %s with exit status %d\n", group.DisplayName(), result.Duration.Round(time.Millisecond), result.ExitCode)
	return result, nil
}
