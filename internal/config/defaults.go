package config

import (
	"path/filepath"
	"time"
)

// Well known keys.
const (
	KeyUnit    = "test.arg.unit"
	KeyInteg   = "test.arg.integ"
	KeyLog     = "test.arg.log"
	KeyTor     = "test.arg.tor"
	KeyNoColor = "test.arg.no_color"

	KeyStartTimeout     = "integ.start_timeout"
	KeyStopTimeout      = "integ.stop_timeout"
	KeyControlPort      = "integ.control_port"
	KeySocksPort        = "integ.socks_port"
	KeyControlPassword  = "integ.control_password"
	KeyBootstrapPercent = "integ.bootstrap_percent"
	KeyKeepDataDir      = "integ.keep_data_dir"

	KeyGoBinary = "test.go.binary"
	KeyGoDir    = "test.go.dir"
	KeyGoFlags  = "test.go.flags"
	KeyGoModule = "test.go.module"
)

const (
	// DefaultStartTimeout bounds how long a tor instance may take to become ready.
	DefaultStartTimeout = 90 * time.Second

	// MaxStartTimeout is the ceiling applied to integ.start_timeout.
	MaxStartTimeout = 5 * time.Minute

	// DefaultStopTimeout is how long tor gets to exit after SIGTERM.
	DefaultStopTimeout = 10 * time.Second

	// DefaultModulePath is stripped from package names in test output.
	DefaultModulePath = "github.com/saturn597/stem"

	// BaseSettingsFile is loaded before the user configuration when present.
	// It is relative to test.go.dir.
	BaseSettingsFile = "test/settings.cfg"
)

// BaseSettingsPath returns where the base settings live for a test
// directory.
func BaseSettingsPath(goDir string) string {
	if goDir == "" {
		goDir = "."
	}
	return filepath.Join(goDir, BaseSettingsFile)
}

// Defaults returns the built-in value of every well known key.
func Defaults() map[string]string {
	return map[string]string{
		KeyUnit:    "false",
		KeyInteg:   "false",
		KeyLog:     "",
		KeyTor:     "tor",
		KeyNoColor: "false",

		KeyStartTimeout:     DefaultStartTimeout.String(),
		KeyStopTimeout:      DefaultStopTimeout.String(),
		KeyControlPort:      "1111",
		KeySocksPort:        "1112",
		KeyControlPassword:  "pw",
		KeyBootstrapPercent: "5",
		KeyKeepDataDir:      "false",

		KeyGoBinary: "go",
		KeyGoDir:    ".",
		KeyGoFlags:  "",
		KeyGoModule: DefaultModulePath,
	}
}
