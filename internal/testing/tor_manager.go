package testing

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/saturn597/stem/internal/config"
	"github.com/saturn597/stem/internal/target"
	"github.com/saturn597/stem/pkg/logging"
)

const (
	// dataDirPattern names the temporary data directories, stale process
	// cleanup looks for it.
	dataDirPattern = "stem-test-*"

	// killWait bounds the wait for exit after SIGKILL.
	killWait = 5 * time.Second

	dialTimeout = time.Second
)

// torLogLine matches "Oct 19 12:00:00.000 [notice] Bootstrapped 5% ..." and
// captures the level and message.
var torLogLine = regexp.MustCompile(`\[(debug|info|notice|warn|err)\] (.*)$`)

var bootstrapLine = regexp.MustCompile(`Bootstrapped (\d+)%`)

var torLevels = map[string]logging.LogLevel{
	"debug":  logging.LevelDebug,
	"info":   logging.LevelInfo,
	"notice": logging.LevelNotice,
	"warn":   logging.LevelWarn,
	"err":    logging.LevelError,
}

// logCapture captures stdout and stderr from a process, handing every
// line to onLine as it arrives.
type logCapture struct {
	stdoutBuf    *bytes.Buffer
	stderrBuf    *bytes.Buffer
	stdoutReader *io.PipeReader
	stderrReader *io.PipeReader
	stdoutWriter *io.PipeWriter
	stderrWriter *io.PipeWriter
	onLine       func(line string)
	readers      errgroup.Group
	mu           sync.RWMutex
	closeOnce    sync.Once
	closeErr     error
}

// newLogCapture creates a new log capture instance
func newLogCapture(onLine func(line string)) *logCapture {
	lc := &logCapture{
		stdoutBuf: &bytes.Buffer{},
		stderrBuf: &bytes.Buffer{},
		onLine:    onLine,
	}

	lc.stdoutReader, lc.stdoutWriter = io.Pipe()
	lc.stderrReader, lc.stderrWriter = io.Pipe()

	lc.readers.Go(func() error { return lc.captureOutput(lc.stdoutReader, lc.stdoutBuf) })
	lc.readers.Go(func() error { return lc.captureOutput(lc.stderrReader, lc.stderrBuf) })

	return lc
}

func (lc *logCapture) captureOutput(reader *io.PipeReader, buffer *bytes.Buffer) error {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()
		lc.mu.Lock()
		buffer.WriteString(line + "\n")
		lc.mu.Unlock()
		if lc.onLine != nil {
			lc.onLine(line)
		}
	}
	if err := scanner.Err(); err != nil {
		reader.CloseWithError(err)
		return fmt.Errorf("failed reading tor output: %w", err)
	}
	return nil
}

// close closes the capture pipes and waits for the readers to finish.
func (lc *logCapture) close() error {
	lc.closeOnce.Do(func() {
		lc.stdoutWriter.Close()
		lc.stderrWriter.Close()
		lc.closeErr = lc.readers.Wait()
	})
	return lc.closeErr
}

// output returns everything captured so far, stdout first.
func (lc *logCapture) output() string {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.stdoutBuf.String() + lc.stderrBuf.String()
}

// TorInstance is a running (or partially started) tor process.
type TorInstance struct {
	ID              string
	Target          target.Target
	Options         []target.TorrcOption
	DataDir         string
	TorrcPath       string
	ControlPort     int    // 0 without a control port
	ControlSocket   string // empty without a control socket
	ControlPassword string // empty without password authentication
	CookiePath      string // empty without cookie authentication
	StartTime       time.Time

	cmd         *exec.Cmd
	capture     *logCapture
	exited      chan struct{}
	waitErr     error
	stopTimeout time.Duration
	keepDataDir bool

	progressMu sync.Mutex
	progress   int

	stopOnce sync.Once
	stopErr  error
	stopped  bool
}

// HasOption reports whether the torrc enables opt.
func (i *TorInstance) HasOption(opt target.TorrcOption) bool {
	for _, o := range i.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// Pid returns the process id, or 0 when tor was never launched.
func (i *TorInstance) Pid() int {
	if i.cmd == nil || i.cmd.Process == nil {
		return 0
	}
	return i.cmd.Process.Pid
}

// BootstrapProgress returns the highest bootstrap percentage tor reported.
func (i *TorInstance) BootstrapProgress() int {
	i.progressMu.Lock()
	defer i.progressMu.Unlock()
	return i.progress
}

// Output returns everything tor printed so far.
func (i *TorInstance) Output() string {
	if i.capture == nil {
		return ""
	}
	return i.capture.output()
}

// Stopped reports whether Stop has completed.
func (i *TorInstance) Stopped() bool {
	return i.stopped
}

// hasExited reports whether the process is gone.
func (i *TorInstance) hasExited() bool {
	if i.exited == nil {
		return true
	}
	select {
	case <-i.exited:
		return true
	default:
		return false
	}
}

// handleLine relays a tor log line and tracks bootstrap progress.
func (i *TorInstance) handleLine(line string) {
	match := torLogLine.FindStringSubmatch(line)
	if match == nil {
		logging.Debug("tor", "%s", line)
		return
	}
	logging.Log(torLevels[match[1]], "tor", "%s", match[2])

	if progress := bootstrapLine.FindStringSubmatch(match[2]); progress != nil {
		percent, err := strconv.Atoi(progress[1])
		if err != nil {
			return
		}
		i.progressMu.Lock()
		if percent > i.progress {
			i.progress = percent
		}
		i.progressMu.Unlock()
	}
}

// Stop terminates tor and removes its data directory. It is safe to call
// more than once and on a partially started instance.
func (i *TorInstance) Stop() error {
	i.stopOnce.Do(func() {
		i.stopErr = i.stop()
		i.stopped = true
	})
	return i.stopErr
}

func (i *TorInstance) stop() error {
	var result *multierror.Error

	if pid := i.Pid(); pid != 0 {
		if err := i.shutdown(pid); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if i.capture != nil {
		if err := i.capture.close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if i.DataDir != "" {
		if i.keepDataDir {
			logging.Info("TorManager", "Keeping data directory %s", i.DataDir)
		} else if err := os.RemoveAll(i.DataDir); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to remove data directory: %w", err))
		}
	}
	return result.ErrorOrNil()
}

// shutdown sends SIGTERM to tor's process group, escalating to SIGKILL when
// it has not exited within the stop timeout.
func (i *TorInstance) shutdown(pid int) error {
	if i.hasExited() {
		return nil
	}

	logging.Debug("TorManager", "Stopping tor for %s (PID: %d)", i.Target, pid)
	if err := killProcessGroup(pid, syscall.SIGTERM); err != nil {
		logging.Debug("TorManager", "Failed to send SIGTERM to process group %d: %v", pid, err)
	}

	select {
	case <-i.exited:
		// tor is reaped, take down anything it left in its group
		if err := signalProcessGroup(pid, syscall.SIGKILL); err != nil {
			logging.Debug("TorManager", "Failed to clean up process group %d: %v", pid, err)
		}
		return nil
	case <-time.After(i.stopTimeout):
	}

	logging.Warn("TorManager", "tor (PID: %d) ignored SIGTERM for %s, killing it", pid, i.stopTimeout)
	if err := killProcessGroup(pid, syscall.SIGKILL); err != nil {
		return err
	}
	select {
	case <-i.exited:
		return nil
	case <-time.After(killWait):
		return fmt.Errorf("tor (PID: %d) did not exit after SIGKILL", pid)
	}
}

// torInstanceManager implements the TorInstanceManager interface
type torInstanceManager struct {
	torPath     string
	settings    *config.Settings
	logger      TestLogger
	showSpinner bool
	spinnerOut  io.Writer
}

// NewTorInstanceManager creates a manager that launches the tor binary named in settings.
func NewTorInstanceManager(settings *config.Settings, logger TestLogger, showSpinner bool) TorInstanceManager {
	return &torInstanceManager{
		torPath:     settings.TorPath,
		settings:    settings,
		logger:      logger,
		showSpinner: showSpinner,
		spinnerOut:  os.Stderr,
	}
}

// Start launches tor for req and waits until it is ready.
func (m *torInstanceManager) Start(ctx context.Context, req StartRequest) (*TorInstance, error) {
	dataDir, err := os.MkdirTemp("", dataDirPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	inst := &TorInstance{
		ID:          uuid.New().String(),
		Target:      req.Target,
		Options:     req.Options,
		DataDir:     dataDir,
		TorrcPath:   filepath.Join(dataDir, "torrc"),
		StartTime:   time.Now(),
		stopTimeout: m.settings.StopTimeout,
		keepDataDir: m.settings.KeepDataDir,
	}
	if inst.HasOption(target.OptionPort) {
		inst.ControlPort = m.settings.ControlPort
	}
	if inst.HasOption(target.OptionSocket) {
		inst.ControlSocket = filepath.Join(dataDir, "control")
	}
	if inst.HasOption(target.OptionPassword) {
		inst.ControlPassword = m.settings.ControlPassword
	}
	if inst.HasOption(target.OptionCookie) {
		inst.CookiePath = filepath.Join(dataDir, "control_auth_cookie")
	}

	// tor is started from the parent directory and told about its data
	// directory by name alone
	dataDirectory, workDir := dataDir, ""
	if req.Attributes.Relative {
		workDir = filepath.Dir(dataDir)
		dataDirectory = filepath.Base(dataDir)
	}

	data, err := newTorrcData(inst, dataDirectory, m.settings.SocksPort)
	if err != nil {
		return inst, err
	}
	torrc, err := renderTorrc(data)
	if err != nil {
		return inst, err
	}
	if err := os.WriteFile(inst.TorrcPath, []byte(torrc), 0600); err != nil {
		return inst, fmt.Errorf("failed to write torrc: %w", err)
	}
	m.logger.Debug("Wrote torrc for %s to %s:\n%s", req.Target, inst.TorrcPath, torrc)

	if err := m.startProcess(inst, workDir); err != nil {
		return inst, err
	}
	logging.Info("TorManager", "Started tor for %s (PID: %d)", req.Target, inst.Pid())

	if err := m.waitForReady(ctx, inst); err != nil {
		return inst, err
	}
	logging.Info("TorManager", "tor for %s is ready after %s", req.Target, time.Since(inst.StartTime).Round(time.Millisecond))
	return inst, nil
}

func (m *torInstanceManager) startProcess(inst *TorInstance, workDir string) error {
	cmd := exec.Command(m.torPath, "-f", inst.TorrcPath)
	cmd.Dir = workDir
	configureProcAttr(cmd)

	capture := newLogCapture(inst.handleLine)
	cmd.Stdout = capture.stdoutWriter
	cmd.Stderr = capture.stderrWriter

	m.logger.Debug("Starting command: %s -f %s\n", m.torPath, inst.TorrcPath)
	if err := cmd.Start(); err != nil {
		capture.close()
		return fmt.Errorf("failed to start %s: %w", m.torPath, err)
	}

	inst.cmd = cmd
	inst.capture = capture
	inst.exited = make(chan struct{})
	go func() {
		inst.waitErr = cmd.Wait()
		close(inst.exited)
	}()
	return nil
}

// waitForReady blocks until tor has bootstrapped far enough and its control
// interface accepts connections, bounded by the start timeout.
func (m *torInstanceManager) waitForReady(ctx context.Context, inst *TorInstance) error {
	readyCtx, cancel := context.WithTimeout(ctx, m.settings.StartTimeout)
	defer cancel()

	if m.showSpinner {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(m.spinnerOut))
		s.Suffix = fmt.Sprintf(" Starting tor for %s...", inst.Target)
		s.Start()
		defer s.Stop()
	}

	if err := m.retry(readyCtx, func() error {
		if inst.hasExited() {
			return backoff.Permanent(exitError(inst))
		}
		if progress := inst.BootstrapProgress(); progress < m.settings.BootstrapPercent {
			return fmt.Errorf("bootstrapped %d%%, waiting for %d%%", progress, m.settings.BootstrapPercent)
		}
		return nil
	}); err != nil {
		return err
	}

	if inst.ControlSocket != "" {
		if err := waitForFile(readyCtx, inst.ControlSocket); err != nil {
			if inst.hasExited() {
				return exitError(inst)
			}
			return err
		}
	}

	return m.retry(readyCtx, func() error {
		if inst.hasExited() {
			return backoff.Permanent(exitError(inst))
		}
		return dialControl(inst)
	})
}

// retry runs op with exponential backoff until it succeeds, fails
// permanently or the start timeout passes.
func (m *torInstanceManager) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = m.settings.StartTimeout

	var (
		last      error
		permanent bool
	)
	err := backoff.Retry(func() error {
		last = op()
		var perm *backoff.PermanentError
		permanent = errors.As(last, &perm)
		return last
	}, backoff.WithContext(b, ctx))
	if err == nil || permanent {
		return err
	}
	return fmt.Errorf("tor was not ready within %s: %v", m.settings.StartTimeout, last)
}

func exitError(inst *TorInstance) error {
	if inst.waitErr != nil {
		return fmt.Errorf("tor exited before it was ready: %w", inst.waitErr)
	}
	return errors.New("tor exited before it was ready")
}

// dialControl checks that the control port or socket accepts connections.
func dialControl(inst *TorInstance) error {
	var network, address string
	switch {
	case inst.ControlPort > 0:
		network, address = "tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(inst.ControlPort))
	case inst.ControlSocket != "":
		network, address = "unix", inst.ControlSocket
	default:
		return nil
	}

	conn, err := net.DialTimeout(network, address, dialTimeout)
	if err != nil {
		return fmt.Errorf("control interface %s not reachable: %w", address, err)
	}
	return conn.Close()
}

// waitForFile blocks until path exists.
func waitForFile(ctx context.Context, path string) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to watch for %s: %w", path, err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("stopped watching for %s", path)
			}
			if filepath.Clean(event.Name) == path && event.Has(fsnotify.Create) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("stopped watching for %s", path)
			}
			return fmt.Errorf("failed watching for %s: %w", path, err)
		case <-ctx.Done():
			return fmt.Errorf("%s did not appear: %w", path, ctx.Err())
		}
	}
}

// CleanupStale terminates tor processes left over from earlier runs.
func (m *torInstanceManager) CleanupStale() {
	CleanupStaleTorTestProcesses(m.logger)
}
