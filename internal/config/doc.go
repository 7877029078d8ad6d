// Package config provides configuration management for the test orchestrator.
//
// Configuration is a flat set of dotted keys ("integ.start_timeout",
// "test.arg.log") mapped to string values. Values are layered, later layers
// winning:
//
//   - built-in defaults (see Defaults)
//   - the optional base settings file shipped with the tests (test/settings.cfg)
//   - the user configuration file given with --config
//   - command line overrides
//
// # File Formats
//
// Files ending in .yaml or .yml are parsed as YAML. Nested maps are flattened
// into dotted keys and lists become comma separated values:
//
//	integ:
//	  start_timeout: 2m
//	  target:
//	    run:
//	      socket: true
//
// Any other file uses the key/value format, one entry per line:
//
//	# comments start with a hash
//	integ.start_timeout 2m
//	test.go.flags=-race,-short
//
// # Typed Settings
//
// The store only holds strings. Settings is the typed view that the rest of
// the program works with; it is built once at startup with Store.Sync, which
// decodes through mapstructure with weak typing, so "true" becomes a bool,
// "90s" a time.Duration and "a,b" a []string.
package config
