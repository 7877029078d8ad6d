package testing

import (
	"fmt"
	"io"
	"strings"

	"github.com/saturn597/stem/internal/output"
	"github.com/saturn597/stem/internal/target"
	"github.com/saturn597/stem/pkg/logging"
)

// testReporter implements the TestReporter interface
type testReporter struct {
	out       io.Writer
	formatter output.Formatter
}

// NewTestReporter creates a reporter writing to out.
func NewTestReporter(out io.Writer, formatter output.Formatter) TestReporter {
	return &testReporter{
		out:       out,
		formatter: formatter,
	}
}

func (r *testReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// ReportConfig prints the effective configuration as a table.
func (r *testReporter) ReportConfig(src KeyValueSource) {
	r.printf("%s\n", r.formatter.ConfigTable(src))
}

func (r *testReporter) ReportDivider(msg string, header bool) {
	r.printf("%s", r.formatter.Divider(msg, header))
}

// ReportGroupOutput prints a group's output followed by a blank line.
func (r *testReporter) ReportGroupOutput(rendered string) {
	rendered = strings.TrimRight(rendered, "\n")
	if rendered != "" {
		r.printf("%s\n", rendered)
	}
	r.printf("\n")
}

func (r *testReporter) ReportLogs(entries []logging.LogEntry) {
	if len(entries) == 0 {
		return
	}
	for _, entry := range entries {
		r.printf("%s\n", r.formatter.Format(entry.String(), output.LogColors))
	}
	r.printf("\n")
}

func (r *testReporter) ReportRunningTests(t target.Target) {
	r.printf("%s\n\n", r.formatter.Format("Running tests...", output.StatusColors))
}

func (r *testReporter) ReportStartFailure(t target.Target, err error) {
	msg := fmt.Sprintf("Unable to start tor for %s: %v", t, err)
	r.printf("%s\n\n", r.formatter.Format(msg, output.FailureColors))
}

func (r *testReporter) ReportSectionEnd() {
	r.printf("\n")
}

// ReportResult prints the skipped targets and the verdict with every
// recorded error.
func (r *testReporter) ReportResult(result *RunResult) {
	for _, skipped := range result.Skipped {
		r.printf("%s\n", r.formatter.Format(skippedMessage(skipped), output.FailureColors))
	}
	if len(result.Skipped) > 0 {
		r.printf("\n")
	}

	seconds := int(result.Duration.Seconds())
	if result.Passed() {
		r.printf("%s\n\n", r.formatter.Format(fmt.Sprintf("TESTING PASSED (%d seconds)", seconds), output.SuccessColors))
		return
	}

	r.printf("%s\n", r.formatter.Format(fmt.Sprintf("TESTING FAILED (%d seconds)", seconds), output.FailureColors))
	for _, record := range result.Errors {
		r.printf("%s\n", r.formatter.Format("  "+record.String(), output.FailureColors))
	}
	r.printf("\n")
}

func skippedMessage(s target.Skipped) string {
	needed := "unknown"
	if s.Needed != nil {
		needed = s.Needed.String()
	}
	msg := fmt.Sprintf("Unable to run target %s, this requires tor version %s", s.Target, needed)
	if s.Reason != nil {
		msg += fmt.Sprintf(" (unable to determine the installed version: %v)", s.Reason)
	}
	return msg
}
