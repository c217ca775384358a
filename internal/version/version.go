// Package version parses release tag versions.
//
// Versions follow semantic versioning, with one extension: a fourth numeric
// segment ("1.2.3.4" or "1.2.3.4-beta") is accepted and ordered after the
// semver precedence rules.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// fourSegmentPattern matches versions with a build segment, e.g. 1.2.3.4-beta.
var fourSegmentPattern = regexp.MustCompile(`^(\d+\.\d+\.\d+)\.(\d+)([-+].*)?$`)

// Version is a parsed release version.
type Version struct {
	sv       *semver.Version
	build    uint64
	hasBuild bool
	raw      string
}

// Parse parses a tag name or version string. A leading "v" is ignored and
// missing minor or patch components are accepted.
func Parse(s string) (Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "v")
	if raw == "" {
		return Version{}, fmt.Errorf("parsing version %q: empty", s)
	}

	candidate := raw
	var v Version
	if m := fourSegmentPattern.FindStringSubmatch(raw); m != nil {
		build, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("parsing build segment of %q: %w", s, err)
		}
		v.build = build
		v.hasBuild = true
		candidate = m[1] + m[3]
	}

	sv, err := semver.NewVersion(candidate)
	if err != nil {
		return Version{}, fmt.Errorf("parsing version %q: %w", s, err)
	}
	v.sv = sv
	v.raw = raw
	return v, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.sv.Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.sv.Minor() }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.sv.Patch() }

// Prerelease returns the prerelease identifiers, e.g. "beta.2".
func (v Version) Prerelease() string { return v.sv.Prerelease() }

// Build returns the fourth numeric segment, if present.
func (v Version) Build() (uint64, bool) { return v.build, v.hasBuild }

// HasBuild reports whether the version carries a fourth numeric segment.
func (v Version) HasBuild() bool { return v.hasBuild }

// Compare returns -1, 0 or 1 when v is less than, equal to or greater than o.
// Semver precedence decides first; ties are broken by the build segment,
// where an absent segment sorts before a present one.
func (v Version) Compare(o Version) int {
	if c := v.sv.Compare(o.sv); c != 0 {
		return c
	}
	switch {
	case v.hasBuild == o.hasBuild && v.build == o.build:
		return 0
	case !v.hasBuild:
		return -1
	case !o.hasBuild:
		return 1
	case v.build < o.build:
		return -1
	default:
		return 1
	}
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports whether v and o have the same precedence.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// SameRelease reports whether v and o share major and minor components.
func (v Version) SameRelease(o Version) bool {
	return v.Major() == o.Major() && v.Minor() == o.Minor()
}

// String returns the version as written, without a leading "v".
func (v Version) String() string { return v.raw }
