// Package release selects which tags to announce and fetches what changed
// between them.
package release

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/drewdunne/updatesbot/internal/platform"
	"github.com/drewdunne/updatesbot/internal/provider"
	"github.com/drewdunne/updatesbot/internal/version"
)

// ErrLastPostedTagNotFound is returned when the last announced tag is not
// among the host's tags, so the next tag to announce cannot be determined.
var ErrLastPostedTagNotFound = errors.New("last posted tag not found")

// Tag is a repository tag with its parsed version.
type Tag struct {
	Name    string
	Version version.Version
}

// NewTag parses a tag name.
func NewTag(name string) (Tag, error) {
	v, err := version.Parse(name)
	if err != nil {
		return Tag{}, err
	}
	return Tag{Name: name, Version: v}, nil
}

// MustTag is like NewTag but panics on error.
func MustTag(name string) Tag {
	t, err := NewTag(name)
	if err != nil {
		panic(err)
	}
	return t
}

// VersionString returns the version as shown in posts, e.g. "1.2.3".
func (t Tag) VersionString() string {
	return t.Version.String()
}

// String returns the tag name.
func (t Tag) String() string {
	return t.Name
}

// FilterTags parses tags, drops unparseable ones and those the platform does
// not announce, and returns the rest in ascending version order.
func FilterTags(p platform.Platform, tags []provider.Tag) []Tag {
	var result []Tag
	for _, t := range tags {
		tag, err := NewTag(t.Name)
		if err != nil || !p.ShouldPostVersion(tag.Version) {
			continue
		}
		result = append(result, tag)
	}
	slices.SortStableFunc(result, func(a, b Tag) int {
		return a.Version.Compare(b.Version)
	})
	return result
}

// TagsToPost returns the suffix of ordered that starts at lastPosted.
func TagsToPost(ordered []Tag, lastPosted Tag) ([]Tag, error) {
	i := slices.IndexFunc(ordered, func(t Tag) bool {
		return t.Version.Equal(lastPosted.Version)
	})
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrLastPostedTagNotFound, lastPosted.Name)
	}
	return ordered[i:], nil
}

// NextPair returns the last posted tag and the tag directly after it.
// ok is false when nothing newer than lastPosted exists.
func NextPair(ordered []Tag, lastPosted Tag) (old, new Tag, ok bool, err error) {
	window, err := TagsToPost(ordered, lastPosted)
	if err != nil {
		return Tag{}, Tag{}, false, err
	}
	if len(window) < 2 {
		return Tag{}, Tag{}, false, nil
	}
	return window[0], window[1], true, nil
}

// ReleaseAnchor returns the highest tag below newTag that belongs to a
// different release (major or minor differ), scanning ordered backward.
func ReleaseAnchor(ordered []Tag, newTag Tag) (Tag, bool) {
	for i := len(ordered) - 1; i >= 0; i-- {
		t := ordered[i]
		if t.Version.Less(newTag.Version) && !t.Version.SameRelease(newTag.Version) {
			return t, true
		}
	}
	return Tag{}, false
}

// ListTags fetches tags from host, stopping once lastPosted has been seen.
func ListTags(ctx context.Context, host provider.Host, repo provider.Repo, lastPosted Tag) ([]provider.Tag, error) {
	tags, err := host.ListTags(ctx, repo, func(name string) bool {
		v, err := version.Parse(name)
		return err == nil && v.Equal(lastPosted.Version)
	})
	if err != nil {
		return nil, fmt.Errorf("listing tags of %s: %w", repo, err)
	}
	return tags, nil
}
