// Package target describes the tor configurations integration tests run
// against, resolves which of them a run covers, and drops the ones the
// installed tor cannot support.
package target

import (
	"fmt"
	"strings"

	"github.com/saturn597/stem/internal/version"
)

// Target is a named tor configuration or test attribute.
type Target string

const (
	Online      Target = "ONLINE"
	Relative    Target = "RELATIVE"
	RunNone     Target = "RUN_NONE"
	RunOpen     Target = "RUN_OPEN"
	RunPassword Target = "RUN_PASSWORD"
	RunCookie   Target = "RUN_COOKIE"
	RunMultiple Target = "RUN_MULTIPLE"
	RunSocket   Target = "RUN_SOCKET"
	RunSCookie  Target = "RUN_SCOOKIE"
	RunPtrace   Target = "RUN_PTRACE"
	RunAll      Target = "RUN_ALL"
)

// Default is run when nothing else is selected.
const Default = RunOpen

// TorrcOption is a capability the generated torrc enables.
type TorrcOption string

const (
	OptionPort     TorrcOption = "PORT"
	OptionCookie   TorrcOption = "COOKIE"
	OptionPassword TorrcOption = "PASSWORD"
	OptionSocket   TorrcOption = "SOCKET"
	OptionPtrace   TorrcOption = "PTRACE"
)

// Info is the static metadata of a target.
type Info struct {
	Target      Target
	ConfigKey   string
	Description string
	Torrc       []TorrcOption
	Requirement version.Requirement // empty when none
}

// Runnable reports whether the target describes a tor instance to start.
func (i Info) Runnable() bool {
	return len(i.Torrc) > 0
}

// registry is in display and execution order.
var registry = []Info{
	{
		Target:      Online,
		ConfigKey:   "integ.target.online",
		Description: "Includes tests that require network activity.",
	},
	{
		Target:      Relative,
		ConfigKey:   "integ.target.relative",
		Description: "Uses a relative path for tor's data directory.",
	},
	{
		Target:      RunNone,
		ConfigKey:   "integ.target.run.none",
		Description: "Configuration without a way for controllers to connect.",
	},
	{
		Target:      RunOpen,
		ConfigKey:   "integ.target.run.open",
		Description: "Configuration with an open control port (default).",
		Torrc:       []TorrcOption{OptionPort},
	},
	{
		Target:      RunPassword,
		ConfigKey:   "integ.target.run.password",
		Description: "Configuration with password authentication.",
		Torrc:       []TorrcOption{OptionPort, OptionPassword},
	},
	{
		Target:      RunCookie,
		ConfigKey:   "integ.target.run.cookie",
		Description: "Configuration with an authentication cookie.",
		Torrc:       []TorrcOption{OptionPort, OptionCookie},
	},
	{
		Target:      RunMultiple,
		ConfigKey:   "integ.target.run.multiple",
		Description: "Configuration with both password and cookie authentication.",
		Torrc:       []TorrcOption{OptionPort, OptionPassword, OptionCookie},
	},
	{
		Target:      RunSocket,
		ConfigKey:   "integ.target.run.socket",
		Description: "Configuration with a control socket.",
		Torrc:       []TorrcOption{OptionSocket},
		Requirement: version.TorrcControlSocket,
	},
	{
		Target:      RunSCookie,
		ConfigKey:   "integ.target.run.scookie",
		Description: "Configuration with a control socket and authentication cookie.",
		Torrc:       []TorrcOption{OptionSocket, OptionCookie},
		Requirement: version.AuthSafeCookie,
	},
	{
		Target:      RunPtrace,
		ConfigKey:   "integ.target.run.ptrace",
		Description: "Configuration with an open control port and 'DisableDebuggerAttachment 0'.",
		Torrc:       []TorrcOption{OptionPort, OptionPtrace},
		Requirement: version.TorrcDisableDebuggerAttachment,
	},
	{
		Target:      RunAll,
		ConfigKey:   "integ.target.run.all",
		Description: "Runs integration tests for all connection configurations.",
	},
}

// All returns the metadata of every target in registry order.
func All() []Info {
	infos := make([]Info, len(registry))
	copy(infos, registry)
	return infos
}

// Lookup returns the metadata for t.
func Lookup(t Target) (Info, bool) {
	for _, info := range registry {
		if info.Target == t {
			return info, true
		}
	}
	return Info{}, false
}

// MustLookup is Lookup for targets known to exist.
func MustLookup(t Target) Info {
	info, ok := Lookup(t)
	if !ok {
		panic(fmt.Sprintf("unknown target %q", t))
	}
	return info
}

// Info returns the target's metadata.
func (t Target) Info() Info {
	return MustLookup(t)
}

// Parse resolves a target name, ignoring case and surrounding space.
func Parse(name string) (Target, error) {
	candidate := Target(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := Lookup(candidate); !ok {
		return "", &InvalidTargetError{Name: name}
	}
	return candidate, nil
}

// ParseList resolves a comma separated list of target names.
func ParseList(names []string) ([]Target, error) {
	targets := make([]Target, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, err := Parse(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// InvalidTargetError is returned for names that are not in the registry.
type InvalidTargetError struct {
	Name string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("Invalid integration target: %s", e.Name)
}
