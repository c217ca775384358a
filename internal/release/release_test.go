package release

import (
	"context"
	"errors"
	"testing"

	"github.com/drewdunne/updatesbot/internal/platform"
	"github.com/drewdunne/updatesbot/internal/provider"
	"github.com/drewdunne/updatesbot/internal/provider/providertest"
	"github.com/google/go-cmp/cmp"
)

func names(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Name
	}
	return out
}

func providerTags(names ...string) []provider.Tag {
	out := make([]provider.Tag, len(names))
	for i, n := range names {
		out[i] = provider.Tag{Name: n}
	}
	return out
}

func TestFilterTags(t *testing.T) {
	tests := []struct {
		name     string
		platform platform.Platform
		in       []string
		want     []string
	}{
		{
			"android drops build segment and sorts",
			platform.Android,
			[]string{"v1.2.5", "v1.2.3", "v1.2.4.1", "nightly", "v1.1.3", "v1.2.4"},
			[]string{"v1.1.3", "v1.2.3", "v1.2.4", "v1.2.5"},
		},
		{
			"ios keeps betas ordered by build",
			platform.IOS,
			[]string{"1.2.3.5-beta", "1.2.3.3-beta", "1.2.3.4", "1.2.3.4-beta"},
			[]string{"1.2.3.3-beta", "1.2.3.4-beta", "1.2.3.5-beta"},
		},
		{
			"desktop keeps betas only",
			platform.Desktop,
			[]string{"v1.2.3-beta.3", "v1.2.3", "v1.2.3-beta.1", "v1.2.3-beta.2"},
			[]string{"v1.2.3-beta.1", "v1.2.3-beta.2", "v1.2.3-beta.3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(FilterTags(tt.platform, providerTags(tt.in...)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterTags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTagsToPost(t *testing.T) {
	ordered := FilterTags(platform.Android, providerTags("v1.2.3", "v1.2.4", "v1.2.5"))

	window, err := TagsToPost(ordered, MustTag("v1.2.3"))
	if err != nil {
		t.Fatalf("TagsToPost() error = %v", err)
	}
	if diff := cmp.Diff([]string{"v1.2.3", "v1.2.4", "v1.2.5"}, names(window)); diff != "" {
		t.Errorf("TagsToPost() mismatch (-want +got):\n%s", diff)
	}

	window, err = TagsToPost(ordered, MustTag("v1.2.5"))
	if err != nil {
		t.Fatalf("TagsToPost() error = %v", err)
	}
	if len(window) != 1 {
		t.Errorf("len(TagsToPost(latest)) = %d, want 1", len(window))
	}

	if _, err := TagsToPost(ordered, MustTag("v1.0.0")); !errors.Is(err, ErrLastPostedTagNotFound) {
		t.Errorf("TagsToPost(missing) error = %v, want ErrLastPostedTagNotFound", err)
	}
}

func TestNextPair(t *testing.T) {
	ordered := FilterTags(platform.Android, providerTags("v1.2.3", "v1.2.4", "v1.2.5"))

	old, new, ok, err := NextPair(ordered, MustTag("v1.2.3"))
	if err != nil || !ok {
		t.Fatalf("NextPair() = ok %v, err %v", ok, err)
	}
	if old.Name != "v1.2.3" || new.Name != "v1.2.4" {
		t.Errorf("NextPair() = %s, %s, want v1.2.3, v1.2.4", old, new)
	}

	_, _, ok, err = NextPair(ordered, MustTag("v1.2.5"))
	if err != nil || ok {
		t.Errorf("NextPair(latest) = ok %v, err %v, want false, nil", ok, err)
	}
}

func TestReleaseAnchor(t *testing.T) {
	ordered := FilterTags(platform.Android, providerTags("v1.1.4", "v1.1.5", "v1.2.0", "v1.2.1", "v1.2.2"))

	anchor, ok := ReleaseAnchor(ordered, MustTag("v1.2.2"))
	if !ok || anchor.Name != "v1.1.5" {
		t.Errorf("ReleaseAnchor() = %s, %v, want v1.1.5, true", anchor, ok)
	}

	if _, ok := ReleaseAnchor(ordered[2:], MustTag("v1.2.2")); ok {
		t.Error("ReleaseAnchor() without older releases should return false")
	}
}

func TestListTags_StopsAtLastPosted(t *testing.T) {
	host := &providertest.Fake{
		TagPages: [][]provider.Tag{
			providerTags("v1.2.5", "v1.2.4"),
			providerTags("1.2.3", "v1.2.2"),
			providerTags("v1.2.1"),
		},
	}

	tags, err := ListTags(context.Background(), host, provider.Repo{Owner: "o", Name: "r"}, MustTag("v1.2.3"))
	if err != nil {
		t.Fatalf("ListTags() error = %v", err)
	}
	if len(tags) != 4 {
		t.Errorf("len(ListTags()) = %d, want 4", len(tags))
	}
}

func TestFetchComparison(t *testing.T) {
	repo := provider.Repo{Owner: "o", Name: "r"}
	host := &providertest.Fake{
		Comparisons: map[string]*provider.Comparison{
			"v1...v2": {TotalCommits: 1, Commits: []provider.Commit{{SHA: "a", Message: "m"}}},
			"v2...v3": {TotalCommits: 2, Commits: []provider.Commit{{SHA: "a", Message: "m"}}},
		},
	}

	cmp, err := FetchComparison(context.Background(), host, repo, Tag{Name: "v1"}, Tag{Name: "v2"})
	if err != nil {
		t.Fatalf("FetchComparison() error = %v", err)
	}
	if len(cmp.Commits) != 1 {
		t.Errorf("len(Commits) = %d, want 1", len(cmp.Commits))
	}

	if _, err := FetchComparison(context.Background(), host, repo, Tag{Name: "v2"}, Tag{Name: "v3"}); !errors.Is(err, ErrIncompleteComparison) {
		t.Errorf("FetchComparison() error = %v, want ErrIncompleteComparison", err)
	}
}
