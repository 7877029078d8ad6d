package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saturn597/stem/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettings_Defaults(t *testing.T) {
	settings, err := NewSettings(NewStoreWithDefaults())
	require.NoError(t, err)

	assert.False(t, settings.Unit)
	assert.False(t, settings.Integ)
	assert.Equal(t, "tor", settings.TorPath)
	assert.Equal(t, DefaultStartTimeout, settings.StartTimeout)
	assert.Equal(t, DefaultStopTimeout, settings.StopTimeout)
	assert.Equal(t, 1111, settings.ControlPort)
	assert.Equal(t, 1112, settings.SocksPort)
	assert.Equal(t, "pw", settings.ControlPassword)
	assert.Equal(t, 5, settings.BootstrapPercent)
	assert.Equal(t, "go", settings.GoBinary)
	assert.Equal(t, ".", settings.GoDir)
	assert.Empty(t, settings.GoFlags)
	assert.Equal(t, DefaultModulePath, settings.GoModule)
	assert.False(t, settings.HasLogLevel())
	assert.Equal(t, logging.LevelNotice, settings.Level())
}

func TestNewSettings_WeakTyping(t *testing.T) {
	s := NewStoreWithDefaults()
	s.Set(KeyUnit, "true")
	s.Set(KeyStartTimeout, "120")
	s.Set(KeyStopTimeout, "3s")
	s.Set(KeyControlPort, "9051")
	s.Set(KeyGoFlags, "-race, -short")
	s.Set(KeyLog, "debug")

	settings, err := NewSettings(s)
	require.NoError(t, err)

	assert.True(t, settings.Unit)
	assert.Equal(t, 2*time.Minute, settings.StartTimeout)
	assert.Equal(t, 3*time.Second, settings.StopTimeout)
	assert.Equal(t, 9051, settings.ControlPort)
	assert.Equal(t, []string{"-race", "-short"}, settings.GoFlags)
	assert.Equal(t, logging.LevelDebug, settings.Level())
}

func TestNewSettings_StartTimeoutCeiling(t *testing.T) {
	s := NewStoreWithDefaults()
	s.Set(KeyStartTimeout, "1h")

	settings, err := NewSettings(s)
	require.NoError(t, err)
	assert.Equal(t, MaxStartTimeout, settings.StartTimeout)
}

func TestNewSettings_BadValue(t *testing.T) {
	s := NewStoreWithDefaults()
	s.Set(KeyStopTimeout, "soon")

	_, err := NewSettings(s)
	assert.Error(t, err)
}

func TestSettings_Validate(t *testing.T) {
	fakeTor := filepath.Join(t.TempDir(), "tor")
	require.NoError(t, os.WriteFile(fakeTor, []byte("#!/bin/sh\n"), 0755))

	tests := []struct {
		name        string
		modify      func(*Settings)
		wantErr     bool
		errContains string
	}{
		{
			name:   "defaults are valid",
			modify: func(s *Settings) {},
		},
		{
			name:        "unknown log level",
			modify:      func(s *Settings) { s.LogLevel = "LOUD" },
			wantErr:     true,
			errContains: "'LOUD' isn't a logging runlevel, use one of the following instead:\n  TRACE, DEBUG, INFO, NOTICE, WARN, ERROR",
		},
		{
			name:   "lowercase log level",
			modify: func(s *Settings) { s.LogLevel = "notice" },
		},
		{
			name: "missing tor binary for integration",
			modify: func(s *Settings) {
				s.Integ = true
				s.TorPath = "/definitely/not/here/tor"
			},
			wantErr:     true,
			errContains: "Unable to start tor, '/definitely/not/here/tor' does not exist.",
		},
		{
			name: "missing tor binary without integration",
			modify: func(s *Settings) {
				s.Unit = true
				s.TorPath = "/definitely/not/here/tor"
			},
			wantErr:     true,
			errContains: "Unable to start tor, '/definitely/not/here/tor' does not exist.",
		},
		{
			name:        "tor binary is a directory",
			modify:      func(s *Settings) { s.TorPath = filepath.Dir(fakeTor) + string(os.PathSeparator) },
			wantErr:     true,
			errContains: "Unable to start tor",
		},
		{
			name: "tor binary given as path",
			modify: func(s *Settings) {
				s.Integ = true
			},
		},
		{
			name:        "bad control port",
			modify:      func(s *Settings) { s.ControlPort = 70000 },
			wantErr:     true,
			errContains: "invalid control port",
		},
		{
			name:        "bad bootstrap percent",
			modify:      func(s *Settings) { s.BootstrapPercent = 101 },
			wantErr:     true,
			errContains: "bootstrap percent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := NewSettings(NewStoreWithDefaults())
			require.NoError(t, err)
			settings.TorPath = fakeTor
			tt.modify(settings)

			err = settings.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)

			var validationErr ValidationError
			assert.True(t, errors.As(err, &validationErr))
		})
	}
}
