// Package platform describes the client platforms whose releases are announced.
package platform

import (
	"fmt"
	"strings"

	"github.com/drewdunne/updatesbot/internal/version"
)

// Platform identifies an upstream project.
type Platform int

const (
	Android Platform = iota
	IOS
	Desktop
	Server
)

// All returns every platform in canonical order.
func All() []Platform {
	return []Platform{Android, IOS, Desktop, Server}
}

// String returns the display name.
func (p Platform) String() string {
	switch p {
	case Android:
		return "Android"
	case IOS:
		return "iOS"
	case Desktop:
		return "Desktop"
	case Server:
		return "Server"
	default:
		return fmt.Sprintf("Platform(%d)", int(p))
	}
}

// Slug returns the lowercase identifier used in URLs, config keys and state.
func (p Platform) Slug() string {
	return strings.ToLower(p.String())
}

// Letter returns the single-letter code used in ENABLED_PLATFORMS.
func (p Platform) Letter() byte {
	return p.Slug()[0]
}

// Parse accepts a slug, display name or letter.
func Parse(s string) (Platform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range All() {
		if s == p.Slug() || (len(s) == 1 && s[0] == p.Letter()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown platform %q", s)
}

// ParseLetters parses a string such as "aids" into platforms, preserving order.
func ParseLetters(s string) ([]Platform, error) {
	var platforms []Platform
	seen := make(map[Platform]bool)
	for _, r := range s {
		p, err := Parse(string(r))
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			platforms = append(platforms, p)
		}
	}
	return platforms, nil
}

// MarshalText implements encoding.TextMarshaler so platforms can key JSON maps.
func (p Platform) MarshalText() ([]byte, error) {
	return []byte(p.Slug()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Platform) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// DefaultRepo returns the upstream repository in owner/name form.
func (p Platform) DefaultRepo() string {
	return "signalapp/Signal-" + p.String()
}

// ShouldPostVersion reports whether a version is announced at all.
func (p Platform) ShouldPostVersion(v version.Version) bool {
	switch p {
	case Android:
		return !v.HasBuild()
	case IOS, Desktop:
		return strings.Contains(v.Prerelease(), "beta")
	default:
		return true
	}
}

// ShouldShowCommit reports whether a commit is listed in the post.
func (p Platform) ShouldShowCommit(message string) bool {
	if p != IOS {
		return true
	}
	return !strings.Contains(message, "Bump build to") && !strings.Contains(message, "Feature flags for")
}

// ShowsCommitDetails reports whether commit message bodies are rendered.
func (p Platform) ShowsCommitDetails() bool {
	return p != IOS
}

// ArchivesTopics reports whether a notice is posted to the previous
// release's topic once a new release starts.
func (p Platform) ArchivesTopics() bool {
	return p != Server
}

// HasBuildNumber reports whether posts carry a build number.
func (p Platform) HasBuildNumber() bool {
	return p == Android
}

// AvailabilityNotice returns the line shown under the post header, if any.
func (p Platform) AvailabilityNotice() string {
	if p == Android {
		return "(Not Yet) Available via [Firebase App Distribution](/t/17538)"
	}
	return ""
}

// Color returns the chat embed color.
func (p Platform) Color() int {
	switch p {
	case Android:
		return 0x1d8663
	case IOS:
		return 0x336ba3
	case Desktop:
		return 0xaa377a
	default:
		return 0x6058ca
	}
}

// TopicSlug returns the forum topic slug for a release, e.g.
// beta-feedback-for-the-upcoming-android-7-30-release.
func (p Platform) TopicSlug(v version.Version) string {
	return fmt.Sprintf("beta-feedback-for-the-upcoming-%s-%d-%d-release", p.Slug(), v.Major(), v.Minor())
}
