package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/saturn597/stem/pkg/logging"
)

// Settings is the typed configuration shared by every component. It is built
// once at startup and passed around by pointer.
type Settings struct {
	Unit     bool   `conf:"test.arg.unit"`
	Integ    bool   `conf:"test.arg.integ"`
	LogLevel string `conf:"test.arg.log"`
	TorPath  string `conf:"test.arg.tor"`
	NoColor  bool   `conf:"test.arg.no_color"`

	StartTimeout     time.Duration `conf:"integ.start_timeout"`
	StopTimeout      time.Duration `conf:"integ.stop_timeout"`
	ControlPort      int           `conf:"integ.control_port"`
	SocksPort        int           `conf:"integ.socks_port"`
	ControlPassword  string        `conf:"integ.control_password"`
	BootstrapPercent int           `conf:"integ.bootstrap_percent"`
	KeepDataDir      bool          `conf:"integ.keep_data_dir"`

	GoBinary string   `conf:"test.go.binary"`
	GoDir    string   `conf:"test.go.dir"`
	GoFlags  []string `conf:"test.go.flags"`
	GoModule string   `conf:"test.go.module"`
}

// NewSettings decodes the store into Settings and fills in anything left
// unset with its default.
func NewSettings(store *Store) (*Settings, error) {
	settings := &Settings{}
	if err := store.Sync(settings); err != nil {
		return nil, err
	}
	settings.normalize()
	return settings, nil
}

func (s *Settings) normalize() {
	if s.TorPath == "" {
		s.TorPath = "tor"
	}
	if s.StartTimeout <= 0 {
		s.StartTimeout = DefaultStartTimeout
	}
	if s.StartTimeout > MaxStartTimeout {
		logging.Warn("Config", "%s of %s exceeds the %s ceiling, using the ceiling", KeyStartTimeout, s.StartTimeout, MaxStartTimeout)
		s.StartTimeout = MaxStartTimeout
	}
	if s.StopTimeout <= 0 {
		s.StopTimeout = DefaultStopTimeout
	}
	if s.GoBinary == "" {
		s.GoBinary = "go"
	}
	if s.GoDir == "" {
		s.GoDir = "."
	}
	if s.GoModule == "" {
		s.GoModule = DefaultModulePath
	}

	flags := make([]string, 0, len(s.GoFlags))
	for _, flag := range s.GoFlags {
		if flag = strings.TrimSpace(flag); flag != "" {
			flags = append(flags, flag)
		}
	}
	s.GoFlags = flags
}

// HasLogLevel reports whether a runlevel was requested.
func (s *Settings) HasLogLevel() bool {
	return s.LogLevel != ""
}

// Level returns the requested runlevel, or NOTICE when none was given.
func (s *Settings) Level() logging.LogLevel {
	if !s.HasLogLevel() {
		return logging.LevelNotice
	}
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return logging.LevelNotice
	}
	return level
}

// Validate checks the settings that cannot be fixed up silently.
func (s *Settings) Validate() error {
	if s.HasLogLevel() {
		if err := ValidateLogLevel(s.LogLevel); err != nil {
			return err
		}
	}

	if _, err := ResolveExecutable(s.TorPath); err != nil {
		return ValidationError{
			Field:   KeyTor,
			Value:   s.TorPath,
			Message: fmt.Sprintf("Unable to start tor, '%s' does not exist.", s.TorPath),
		}
	}

	if s.ControlPort <= 0 || s.ControlPort > 65535 {
		return ValidationError{Field: KeyControlPort, Value: s.ControlPort, Message: fmt.Sprintf("invalid control port: %d", s.ControlPort)}
	}
	if s.SocksPort <= 0 || s.SocksPort > 65535 {
		return ValidationError{Field: KeySocksPort, Value: s.SocksPort, Message: fmt.Sprintf("invalid socks port: %d", s.SocksPort)}
	}
	if s.BootstrapPercent < 0 || s.BootstrapPercent > 100 {
		return ValidationError{Field: KeyBootstrapPercent, Value: s.BootstrapPercent, Message: fmt.Sprintf("bootstrap percent must be between 0 and 100, got %d", s.BootstrapPercent)}
	}
	return nil
}

// ValidateLogLevel checks that level names a logging runlevel.
func ValidateLogLevel(level string) error {
	if _, err := logging.ParseLevel(level); err != nil {
		return ValidationError{
			Field: KeyLog,
			Value: level,
			Message: fmt.Sprintf("'%s' isn't a logging runlevel, use one of the following instead:\n  %s",
				level, strings.Join(logging.LevelNames(), ", ")),
		}
	}
	return nil
}

// ResolveExecutable finds a binary given either as a path or a name on PATH.
func ResolveExecutable(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		info, err := os.Stat(name)
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			return "", errors.New("is a directory")
		}
		return name, nil
	}
	return exec.LookPath(name)
}
