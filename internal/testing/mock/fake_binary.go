package mock

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// FakeBinary writes an executable shell script named name into a temporary
// directory and returns its path. The test is skipped where scripts cannot
// be executed.
func FakeBinary(t testing.TB, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script binaries are not supported on windows")
	}

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatalf("failed to write fake %s: %v", name, err)
	}
	return path
}
