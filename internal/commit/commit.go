// Package commit models upstream commits and correlates reverts among them.
package commit

import (
	"regexp"
	"strings"

	"github.com/drewdunne/updatesbot/internal/provider"
)

var revertPattern = regexp.MustCompile(`This reverts commit ([a-zA-Z0-9]+).`)

// localizationKeywords mark commits that likely touch translations.
var localizationKeywords = []string{
	"language",
	"translation",
	"string",
	"release note",
	"i18n",
	"l10n",
	"update messages",
	"updated messages",
	"updates messages",
}

// Commit is an upstream commit.
type Commit struct {
	SHA     string
	Message string
}

// FromProvider converts host commits, preserving order.
func FromProvider(commits []provider.Commit) []Commit {
	result := make([]Commit, len(commits))
	for i, c := range commits {
		result[i] = Commit{SHA: c.SHA, Message: c.Message}
	}
	return result
}

// RevertedSHA returns the sha this commit declares it reverts.
func (c Commit) RevertedSHA() (string, bool) {
	m := revertPattern.FindStringSubmatch(c.Message)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsLikelyLocalizationChange reports whether the message suggests the
// commit updated translations.
func (c Commit) IsLikelyLocalizationChange() bool {
	lower := strings.ToLower(c.Message)
	for _, kw := range localizationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
