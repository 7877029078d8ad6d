package output

import (
	"strings"
)

// LineKind classifies a line of test output.
type LineKind int

const (
	LineContent LineKind = iota
	LinePass
	LineFail
	LineSkip
)

// String returns a human readable kind.
func (k LineKind) String() string {
	switch k {
	case LinePass:
		return "PASS"
	case LineFail:
		return "FAIL"
	case LineSkip:
		return "SKIP"
	default:
		return "CONTENT"
	}
}

// Label is the marker AlignResults puts at the end of a result line.
func (k LineKind) Label() string {
	switch k {
	case LinePass:
		return "SUCCESS"
	case LineFail:
		return "FAILURE"
	case LineSkip:
		return "SKIPPED"
	default:
		return ""
	}
}

var resultPrefixes = map[LineKind]string{
	LinePass: "--- PASS: ",
	LineFail: "--- FAIL: ",
	LineSkip: "--- SKIP: ",
}

// Classify determines the kind of a raw line. Subtest results are indented
// and classified the same way as top level ones.
func Classify(line string) LineKind {
	trimmed := strings.TrimLeft(line, " \t")
	for kind, prefix := range resultPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return kind
		}
	}
	return LineContent
}

// splitResult separates a result line into its indentation and the test
// name with duration, e.g. "    ", "TestFoo/bar (0.01s)".
func splitResult(kind LineKind, line string) (string, string, bool) {
	prefix, ok := resultPrefixes[kind]
	if !ok {
		return "", "", false
	}
	trimmed := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(trimmed)]
	return indent, strings.TrimPrefix(trimmed, prefix), true
}

// splitLines breaks text into lines without a trailing empty entry.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
