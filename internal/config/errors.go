package config

import (
	"fmt"
)

// FileError is returned when a configuration file cannot be read or parsed.
type FileError struct {
	Path string
	Line int // 0 when the error is not tied to a line
	Err  error
}

// Error implements the error interface
func (fe *FileError) Error() string {
	if fe.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", fe.Path, fe.Line, fe.Err)
	}
	return fmt.Sprintf("%s: %v", fe.Path, fe.Err)
}

// Unwrap returns the underlying cause.
func (fe *FileError) Unwrap() error {
	return fe.Err
}

// ValidationError represents a semantic problem with the loaded settings.
// Its message is meant to be shown to the user as is.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return ve.Message
}
