// Package version parses and compares tor versions and detects the version of
// the tor binary under test.
package version

import (
	"fmt"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// versionPattern matches "0.2.3.9", "0.4.8.10-dev" and "0.2.3.9-alpha-dev (git-abc123)".
var versionPattern = regexp.MustCompile(`^(\d+(?:\.\d+){1,3})(?:-([^\s]+))?(?:\s+\(([^)]*)\))?$`)

// Version is a tor version. Only the numeric components take part in
// comparisons; the status tag ("alpha-dev") and any extra info are kept for display.
type Version struct {
	raw     string
	numeric *goversion.Version
	Status  string
	Extra   string
}

// Parse reads a version string such as "0.2.3.9-alpha".
func Parse(raw string) (*Version, error) {
	raw = strings.TrimSpace(raw)
	matches := versionPattern.FindStringSubmatch(raw)
	if matches == nil {
		return nil, fmt.Errorf("'%s' isn't a properly formatted tor version", raw)
	}

	numeric, err := goversion.NewVersion(matches[1])
	if err != nil {
		return nil, fmt.Errorf("'%s' isn't a properly formatted tor version: %w", raw, err)
	}

	return &Version{
		raw:     raw,
		numeric: numeric,
		Status:  matches[2],
		Extra:   matches[3],
	}, nil
}

// MustParse is like Parse but panics on malformed input. Used for the
// requirement table.
func MustParse(raw string) *Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or 1 depending on whether v is older than, equal to
// or newer than other. Missing trailing components count as zero.
func (v *Version) Compare(other *Version) int {
	return v.numeric.Compare(other.numeric)
}

// AtLeast reports whether v meets the given minimum.
func (v *Version) AtLeast(minimum *Version) bool {
	return v.Compare(minimum) >= 0
}

// Numeric returns the dotted numeric components, e.g. "0.2.3.9".
func (v *Version) Numeric() string {
	parts := make([]string, 0, 4)
	for _, segment := range v.numeric.Segments() {
		parts = append(parts, fmt.Sprint(segment))
	}
	return strings.Join(parts, ".")
}

// String returns the version as it was parsed.
func (v *Version) String() string {
	return v.raw
}
