// Package post renders release announcements for the forum.
package post

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/drewdunne/updatesbot/internal/commit"
	"github.com/drewdunne/updatesbot/internal/localization"
	"github.com/drewdunne/updatesbot/internal/platform"
	"github.com/drewdunne/updatesbot/internal/provider"
	"github.com/drewdunne/updatesbot/internal/release"
)

// MaxLength is the forum's post size limit in characters.
const MaxLength = 32000

// collapseCommitsAbove is the commit count above which the list is wrapped
// in a collapsed block.
const collapseCommitsAbove = 10

// ErrPostTooLong is returned when no render mode fits in MaxLength.
var ErrPostTooLong = errors.New("post does not fit within the character limit")

// Post is one announcement of a new version.
type Post struct {
	Platform platform.Platform
	Old      release.Tag
	New      release.Tag
	// Commits are the commits shown, in upstream order.
	Commits []commit.Commit
	// UnfilteredCount is the number of commits before platform filtering.
	UnfilteredCount int
	// BuildNumber is nil when it could not be determined.
	BuildNumber *uint64
	Collection  localization.Collection
	Links       provider.Links
}

// Rendered is a post text with the mode that produced it.
type Rendered struct {
	Text string
	Mode localization.RenderMode
}

// Render tries each localization render mode in order and returns the first
// text that fits.
func (p *Post) Render() (Rendered, error) {
	commits := p.commitsMarkdown()
	for _, mode := range localization.RenderModes {
		text := p.markdown(commits, mode)
		if utf8.RuneCountInString(text) <= MaxLength {
			return Rendered{Text: text, Mode: mode}, nil
		}
	}
	return Rendered{}, ErrPostTooLong
}

func (p *Post) commitsMarkdown() string {
	statuses := commit.Correlate(p.Commits)
	lines := make([]string, len(p.Commits))
	for i, c := range p.Commits {
		lines[i] = c.Markdown(commit.MarkdownOptions{
			Number:      i + 1,
			URL:         p.Links.CommitURL(c.SHA),
			Status:      statuses[i],
			ShowDetails: p.Platform.ShowsCommitDetails(),
		})
	}
	return strings.Join(lines, "\n")
}

func (p *Post) markdown(commits string, mode localization.RenderMode) string {
	var parts []string

	parts = append(parts, p.header())
	parts = append(parts, "[quote]")
	parts = append(parts, p.summary())
	if len(p.Commits) > collapseCommitsAbove {
		parts = append(parts, "[details=\"Show commits\"]\n"+commits+"\n[/details]")
	} else {
		parts = append(parts, commits)
	}
	parts = append(parts, "---")
	parts = append(parts, fmt.Sprintf("Gathered from [%s](%s)", p.Links.Repo, p.Links.CompareURL(p.Old.Name, p.New.Name)))
	parts = append(parts, "[/quote]")
	parts = append(parts, p.Collection.Markdown(mode, p.Links))

	return strings.Join(parts, "\n")
}

func (p *Post) header() string {
	lines := []string{"## New Version: " + p.New.VersionString()}
	if notice := p.Platform.AvailabilityNotice(); notice != "" {
		lines = append(lines, notice)
	}
	if p.Platform.HasBuildNumber() {
		if p.BuildNumber != nil {
			lines = append(lines, fmt.Sprintf("Build number: %d", *p.BuildNumber))
		} else {
			lines = append(lines, "*Couldn't find the build number.*")
		}
	}
	return strings.Join(lines, "\n")
}

func (p *Post) summary() string {
	n := len(p.Commits)
	s := fmt.Sprintf("%d new commit%s since %s", n, plural(n), p.Old.VersionString())
	if omitted := p.UnfilteredCount - n; omitted > 0 {
		s += fmt.Sprintf(" (+ %d commit%s omitted)", omitted, plural(omitted))
	}
	return s + ":"
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
