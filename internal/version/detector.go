package version

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/saturn597/stem/pkg/logging"
)

const detectTimeout = 30 * time.Second

// CommandRunner runs a binary and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

func execRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// Detector finds the version of a tor binary. The binary is queried at most
// once, later calls return the cached result (including a cached error).
type Detector struct {
	torPath string
	run     CommandRunner

	once    sync.Once
	version *Version
	err     error
	calls   int
}

// NewDetector returns a detector for the tor binary at torPath.
func NewDetector(torPath string) *Detector {
	return NewDetectorWithRunner(torPath, execRunner)
}

// NewDetectorWithRunner returns a detector that uses run instead of executing tor.
func NewDetectorWithRunner(torPath string, run CommandRunner) *Detector {
	return &Detector{torPath: torPath, run: run}
}

// Version returns the detected version.
func (d *Detector) Version(ctx context.Context) (*Version, error) {
	d.once.Do(func() {
		d.calls++
		d.version, d.err = d.detect(ctx)
		if d.err != nil {
			logging.Warn("Version", "Unable to determine the version of %s: %v", d.torPath, d.err)
			return
		}
		logging.Debug("Version", "Detected tor version %s", d.version)
	})
	return d.version, d.err
}

// Calls reports how many times the binary was queried.
func (d *Detector) Calls() int {
	return d.calls
}

func (d *Detector) detect(ctx context.Context) (*Version, error) {
	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	out, err := d.run(ctx, d.torPath, "--version")
	if err != nil {
		return nil, fmt.Errorf("'%s --version' failed: %w", d.torPath, err)
	}
	return ParseVersionOutput(out)
}

// ParseVersionOutput extracts the version from the output of "tor --version",
// whose last line reads "Tor version 0.2.3.9-alpha-dev (git-1234)." or similar.
func ParseVersionOutput(out string) (*Version, error) {
	const prefix = "Tor version "

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(line, prefix), ".")
		return Parse(raw)
	}
	return nil, fmt.Errorf("unexpected response from 'tor --version': %q", strings.TrimSpace(out))
}
