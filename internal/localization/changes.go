package localization

import (
	"fmt"
	"strings"

	"github.com/drewdunne/updatesbot/internal/platform"
	"github.com/drewdunne/updatesbot/internal/provider"
	"github.com/drewdunne/updatesbot/internal/release"
)

// collapseLanguagesAbove is the language count above which the list is
// wrapped in a collapsed block.
const collapseLanguagesAbove = 20

// Linker builds web links for a repository.
type Linker interface {
	CompareURL(base, head string) string
	FileDiffURL(base, head, path string) string
}

// Completeness describes how trustworthy a change set is.
type Completeness int

const (
	// Incomplete sets came from a truncated file list.
	Incomplete Completeness = iota
	// LikelyComplete sets came from a truncated file list, but every
	// localization-looking commit was fetched individually.
	LikelyComplete
	// Complete sets came from a full file list.
	Complete
)

func (c Completeness) String() string {
	switch c {
	case Incomplete:
		return "incomplete"
	case LikelyComplete:
		return "likely complete"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("Completeness(%d)", int(c))
	}
}

func (c Completeness) warning() string {
	switch c {
	case Incomplete:
		return ":warning: For technical reasons, not all languages may be listed below."
	case LikelyComplete:
		return "For technical reasons, not all languages may be listed below. However, everything from \"Updated language translations\" and similar commits is listed, so the list is likely complete."
	default:
		return ""
	}
}

// Changes is the set of localization changes between two tags.
type Changes struct {
	Platform     platform.Platform
	Old          release.Tag
	New          release.Tag
	Completeness Completeness
	Changes      []Change
}

// FromComparison extracts changes from a comparison's files. When the file
// list was truncated and prior is given, the result keeps everything in
// prior: the union with the new changes, or prior itself if none were found.
func FromComparison(p platform.Platform, old, new release.Tag, cmp *provider.Comparison, prior []Change) Changes {
	changes := ChangesFromFiles(p, cmp.Files)
	completeness := Complete
	if cmp.FilesTruncated {
		completeness = Incomplete
		if prior != nil {
			if len(changes) == 0 {
				changes = prior
			} else {
				changes = Merge(prior, changes)
			}
		}
	}
	return Changes{Platform: p, Old: old, New: new, Completeness: completeness, Changes: changes}
}

// Add merges more changes into the set.
func (c *Changes) Add(more []Change) {
	c.Changes = Merge(c.Changes, more)
}

// IsComplete reports whether the set came from a full file list.
func (c Changes) IsComplete() bool {
	return c.Completeness == Complete
}

// languageGroup is one language with every kind of file that changed.
type languageGroup struct {
	language Language
	changes  []Change
}

func (c Changes) groups() []languageGroup {
	var groups []languageGroup
	for _, change := range c.Changes {
		n := len(groups)
		if n > 0 && groups[n-1].language.Compare(change.Language) == 0 {
			groups[n-1].changes = append(groups[n-1].changes, change)
			continue
		}
		groups = append(groups, languageGroup{language: change.Language, changes: []Change{change}})
	}
	return groups
}

// Languages returns the number of distinct languages changed.
func (c Changes) Languages() int {
	return len(c.groups())
}

func (c Changes) groupMarkdown(g languageGroup, links Linker) string {
	url := func(change Change) string {
		return links.FileDiffURL(c.Old.Name, c.New.Name, change.Path(c.Platform))
	}
	if c.Platform != platform.IOS && len(g.changes) == 1 && g.changes[0].Kind == Main {
		return fmt.Sprintf("[%s](%s)", g.language, url(g.changes[0]))
	}
	parts := make([]string, len(g.changes))
	for i, change := range g.changes {
		parts[i] = fmt.Sprintf("[%s](%s)", change.Kind, url(change))
	}
	return fmt.Sprintf("%s: %s", g.language, strings.Join(parts, " • "))
}

// FullComparisonNotice links the whole comparison between the two tags.
func (c Changes) FullComparisonNotice(links Linker) string {
	return fmt.Sprintf("You can view the full comparison to %s so far [here](%s).",
		c.Old.VersionString(), links.CompareURL(c.Old.Name, c.New.Name))
}

// Markdown renders the heading and the language list.
func (c Changes) Markdown(links Linker) string {
	groups := c.groups()
	count := len(groups)

	var b strings.Builder
	b.WriteString("#### ")
	if !c.IsComplete() {
		b.WriteString("At least ")
	}
	fmt.Fprintf(&b, "%d language%s changed since %s:", count, plural(count), c.Old.VersionString())
	if !c.IsComplete() {
		fmt.Fprintf(&b, "\n%s %s", c.Completeness.warning(), c.FullComparisonNotice(links))
	}

	if count == 0 {
		b.WriteString("\n*No localization changes found*")
		return b.String()
	}

	collapse := count > collapseLanguagesAbove
	if collapse {
		b.WriteString("\n[details=\"Show changes\"]")
	}
	for _, g := range groups {
		b.WriteString("\n- ")
		b.WriteString(c.groupMarkdown(g, links))
	}
	if collapse {
		b.WriteString("\n[/details]")
	}
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
