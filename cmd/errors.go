package cmd

import "fmt"

// UsageError is a malformed command line.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// ArgumentError is a well formed command line or configuration with a value
// that cannot be used.
type ArgumentError struct {
	Err error
}

func (e *ArgumentError) Error() string {
	return e.Err.Error()
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// TestsFailedError reports a run that completed with failures.
type TestsFailedError struct {
	Failures int
}

func (e *TestsFailedError) Error() string {
	return fmt.Sprintf("testing failed with %d error(s)", e.Failures)
}
