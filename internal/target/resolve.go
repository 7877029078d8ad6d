package target

import (
	"context"

	"github.com/saturn597/stem/internal/version"
	"github.com/saturn597/stem/pkg/logging"
)

// BoolLookup reads a boolean configuration value. *config.Store satisfies it.
type BoolLookup interface {
	GetBool(key string, def bool) bool
}

// VersionSource provides the version of the tor binary under test.
// *version.Detector satisfies it.
type VersionSource interface {
	Version(ctx context.Context) (*version.Version, error)
}

// Attributes are the behaviour toggles that do not start a tor instance of their own.
type Attributes struct {
	Online   bool
	Relative bool
}

// ResolveAttributes reads the attribute targets from configuration.
func ResolveAttributes(cfg BoolLookup) Attributes {
	return Attributes{
		Online:   cfg.GetBool(MustLookup(Online).ConfigKey, false),
		Relative: cfg.GetBool(MustLookup(Relative).ConfigKey, false),
	}
}

// Enable marks each target as selected in cfg.
func Enable(cfg interface{ Set(key, value string) }, targets []Target) {
	for _, t := range targets {
		cfg.Set(MustLookup(t).ConfigKey, "true")
	}
}

// Resolve returns the targets to run tor against, in registry order. The
// result is never empty: with nothing selected it is the default target.
func Resolve(cfg BoolLookup) []Target {
	var runnable []Target
	for _, info := range registry {
		if info.Runnable() {
			runnable = append(runnable, info.Target)
		}
	}

	if cfg.GetBool(MustLookup(RunAll).ConfigKey, false) {
		return runnable
	}

	var selected []Target
	for _, t := range runnable {
		if cfg.GetBool(MustLookup(t).ConfigKey, false) {
			selected = append(selected, t)
		}
	}
	if len(selected) == 0 {
		selected = append(selected, Default)
	}
	return selected
}

// Skipped is a target dropped because the installed tor cannot support it.
type Skipped struct {
	Target      Target
	Requirement version.Requirement
	Needed      *version.Version
	Reason      error // set when the version could not be determined
}

// Selection is the outcome of gating a run-list.
type Selection struct {
	Run     []Target
	Skipped []Skipped
}

// Gate splits targets into those the installed tor supports and those it
// does not. The version is only requested when some target has a
// requirement. If it cannot be determined every target with a requirement
// is skipped.
func Gate(ctx context.Context, targets []Target, source VersionSource) Selection {
	var selection Selection
	var (
		current   *version.Version
		detectErr error
		detected  bool
	)

	for _, t := range targets {
		info := MustLookup(t)
		if info.Requirement == "" {
			selection.Run = append(selection.Run, t)
			continue
		}

		if !detected {
			current, detectErr = source.Version(ctx)
			detected = true
		}

		needed, _ := info.Requirement.Minimum()
		if detectErr != nil {
			selection.Skipped = append(selection.Skipped, Skipped{Target: t, Requirement: info.Requirement, Needed: needed, Reason: detectErr})
			continue
		}
		if !info.Requirement.MetBy(current) {
			logging.Debug("Target", "Skipping %s, tor %s is older than %s", t, current, needed)
			selection.Skipped = append(selection.Skipped, Skipped{Target: t, Requirement: info.Requirement, Needed: needed})
			continue
		}
		selection.Run = append(selection.Run, t)
	}
	return selection
}
