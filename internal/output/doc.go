// Package output turns raw `go test -v` output into the report shown to the
// user and collects the failures that decide the final verdict.
//
// Raw text from a test group goes through two independent steps:
//
//  1. ExtractErrors reads the raw text and returns an ErrorRecord for every
//     failed test, panic and package that failed to build. These go to the
//     ErrorTracker.
//  2. Apply runs the cosmetic filters line by line, in order:
//     StripModule drops "=== RUN" noise and shortens package paths,
//     AlignResults lines results up in a column, Colorize adds color.
//
// Extraction never sees the output of the cosmetic filters, so adding,
// removing or reordering filters cannot change which failures are recorded.
// A filter that panics leaves its input line unchanged.
package output
