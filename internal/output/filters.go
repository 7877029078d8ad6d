package output

import (
	"fmt"
	"strings"

	"github.com/saturn597/stem/pkg/logging"
)

// ResultColumn is the column result labels are aligned to.
const ResultColumn = 61

// Filter transforms one line of output. Returning false drops the line.
type Filter func(kind LineKind, line string) (string, bool)

// Apply runs the filters over every line of text. The kind of a line is
// determined from the raw text, before any filter runs.
func Apply(text string, filters ...Filter) string {
	lines := splitLines(text)
	if len(lines) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, raw := range lines {
		kind := Classify(raw)
		line, keep := raw, true
		for _, filter := range filters {
			line, keep = runFilter(filter, kind, line)
			if !keep {
				break
			}
		}
		if keep {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// runFilter keeps the line unchanged when a filter panics.
func runFilter(filter Filter, kind LineKind, line string) (result string, keep bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Warn("Output", "Filter failed on %q: %v", line, r)
			result, keep = line, true
		}
	}()
	return filter(kind, line)
}

var noisePrefixes = []string{"=== RUN", "=== PAUSE", "=== CONT", "=== NAME"}

// StripModule drops go test's progress lines and removes the module path
// from package names, so "github.com/saturn597/stem/test/unit/version"
// reads "test/unit/version".
func StripModule(modulePath string) Filter {
	prefix := strings.TrimSuffix(modulePath, "/") + "/"
	return func(kind LineKind, line string) (string, bool) {
		trimmed := strings.TrimLeft(line, " \t")
		for _, noise := range noisePrefixes {
			if strings.HasPrefix(trimmed, noise) {
				return line, false
			}
		}
		if modulePath == "" {
			return line, true
		}
		return strings.ReplaceAll(line, prefix, ""), true
	}
}

// AlignResults rewrites result lines so the outcome sits in a fixed column:
//
//	--- PASS: TestFoo (0.01s)  →  TestFoo (0.01s)      ...      [SUCCESS]
func AlignResults(kind LineKind, line string) (string, bool) {
	indent, name, ok := splitResult(kind, line)
	if !ok {
		return line, true
	}
	return fmt.Sprintf("%-*s[%s]", ResultColumn, indent+name, kind.Label()), true
}

// Colorize colors result lines by outcome.
func Colorize(f Formatter) Filter {
	return func(kind LineKind, line string) (string, bool) {
		colors, ok := lineColors[kind]
		if !ok {
			return line, true
		}
		return f.Format(line, colors), true
	}
}
