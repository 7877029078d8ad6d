package output

import (
	"fmt"
	"regexp"
	"strings"
)

// ErrorRecord is one failure, kept to be repeated in the final summary.
type ErrorRecord struct {
	Group  string
	Target string // empty for unit tests
	Text   string
}

// String renders the record for the summary.
func (r ErrorRecord) String() string {
	if r.Target != "" {
		return fmt.Sprintf("[%s] %s: %s", r.Target, r.Group, r.Text)
	}
	return fmt.Sprintf("%s: %s", r.Group, r.Text)
}

// ErrorTracker accumulates failures over the whole run in the order they
// were found. Records are never removed.
type ErrorTracker struct {
	records []ErrorRecord
}

// NewErrorTracker returns an empty tracker.
func NewErrorTracker() *ErrorTracker {
	return &ErrorTracker{}
}

// Record appends records.
func (t *ErrorTracker) Record(records ...ErrorRecord) {
	t.records = append(t.records, records...)
}

// HasErrorOccurred reports whether anything has been recorded.
func (t *ErrorTracker) HasErrorOccurred() bool {
	return len(t.records) > 0
}

// Records returns a copy of the records, first found first.
func (t *ErrorTracker) Records() []ErrorRecord {
	records := make([]ErrorRecord, len(t.records))
	copy(records, t.records)
	return records
}

// Len returns the number of records.
func (t *ErrorTracker) Len() int {
	return len(t.records)
}

// packageFailure matches "FAIL	example.com/pkg [build failed]" and the setup variant.
var packageFailure = regexp.MustCompile(`^FAIL\s+\S+\s+\[(build|setup) failed\]$`)

// ExtractErrors returns a record for every failure in raw go test output:
// failed tests and subtests, panics, and packages that could not be built.
func ExtractErrors(group, target, raw string) []ErrorRecord {
	var records []ErrorRecord
	for _, line := range splitLines(raw) {
		trimmed := strings.TrimSpace(line)
		switch {
		case Classify(line) == LineFail,
			strings.HasPrefix(trimmed, "panic:"),
			packageFailure.MatchString(trimmed):
			records = append(records, ErrorRecord{Group: group, Target: target, Text: trimmed})
		}
	}
	return records
}
