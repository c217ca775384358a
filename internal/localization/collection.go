package localization

import (
	"fmt"
	"strings"

	"github.com/drewdunne/updatesbot/internal/platform"
	"github.com/drewdunne/updatesbot/internal/release"
)

// RenderMode selects how much of a collection is rendered.
type RenderMode int

const (
	// Full renders build and release changes.
	Full RenderMode = iota
	// WithoutRelease renders build changes only.
	WithoutRelease
	// Nothing renders notices only.
	Nothing
)

// RenderModes lists modes from most to least detailed.
var RenderModes = []RenderMode{Full, WithoutRelease, Nothing}

func (m RenderMode) String() string {
	switch m {
	case Full:
		return "full"
	case WithoutRelease:
		return "without release"
	case Nothing:
		return "nothing"
	default:
		return fmt.Sprintf("RenderMode(%d)", int(m))
	}
}

const (
	linkNote        = "Note: after clicking a link, it may take a few seconds before the page jumps to the file (try scrolling a bit if it doesn't)."
	sameNotice      = "Localization changes for the release are the same, as this is the first build of the release."
	noneFitNotice   = "Sorry, no localization changes fit in the post character limit."
	releaseNoFit    = "Sorry, localization changes for the release did not fit."
	buildDiffNotice = "You can view the full comparison to %s by following the \"Gathered from\" link above."
)

// Collection holds the build changes and, unless the new version is the
// first build of its release, the changes since the previous release.
type Collection struct {
	Build   Changes
	Release *Changes
}

// Markdown renders the collapsed localization section in the given mode.
// Each mode after Full replaces a section with a notice shorter than it, so
// a later mode never renders longer than an earlier one.
func (c Collection) Markdown(mode RenderMode, links Linker) string {
	var body []string
	if mode == Nothing {
		body = append(body, noneFitNotice+" "+fmt.Sprintf(buildDiffNotice, c.Build.Old.VersionString()))
	} else {
		body = append(body, linkNote, c.Build.Markdown(links))
	}

	switch {
	case c.Release == nil:
		body = append(body, sameNotice)
	case mode == Full:
		section := c.Release.Markdown(links)
		if c.Release.IsComplete() {
			// Incomplete sets already link the comparison in their warning.
			section += "\n" + c.Release.FullComparisonNotice(links)
		}
		body = append(body, section)
	default:
		body = append(body, releaseNoFit+"\n"+c.Release.FullComparisonNotice(links))
	}

	return "[details=\"Localization changes\"]\n[quote]\n" + strings.Join(body, "\n\n") + "\n[/quote]\n[/details]"
}

// ReleaseChanges builds the changes since the previous release: the build
// changes merged with what earlier builds of the release recorded. The set
// takes the build set's completeness if every earlier set was complete, and
// is incomplete otherwise.
func ReleaseChanges(p platform.Platform, anchor, new release.Tag, build Changes, persistedCodes []string, persistedComplete bool) (Changes, error) {
	persisted, err := ParseCodes(p, persistedCodes)
	if err != nil {
		return Changes{}, err
	}
	completeness := Incomplete
	if persistedComplete {
		completeness = build.Completeness
	}
	return Changes{
		Platform:     p,
		Old:          anchor,
		New:          new,
		Completeness: completeness,
		Changes:      Merge(build.Changes, persisted),
	}, nil
}
