// Package providertest provides an in-memory provider.Host for tests.
package providertest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/drewdunne/updatesbot/internal/provider"
)

// Fake is an in-memory provider.Host. Links mimic GitHub's.
type Fake struct {
	mu sync.Mutex

	// TagPages are returned in order, one per ListTags page.
	TagPages [][]provider.Tag
	// Comparisons are keyed by "base...head".
	Comparisons map[string]*provider.Comparison
	// Commits are keyed by sha.
	Commits map[string]*provider.Commit
	// Files are keyed by "ref:path".
	Files map[string][]byte
	// Err, when set, is returned by every call.
	Err error

	// Calls records method invocations, e.g. "Compare v1...v2".
	Calls []string
}

var _ provider.Host = (*Fake)(nil)

func (f *Fake) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

// Name returns "fake".
func (f *Fake) Name() string { return "fake" }

// ListTags returns TagPages until stop matches.
func (f *Fake) ListTags(_ context.Context, _ provider.Repo, stop func(string) bool) ([]provider.Tag, error) {
	f.record("ListTags")
	if f.Err != nil {
		return nil, f.Err
	}
	var result []provider.Tag
	for _, page := range f.TagPages {
		found := false
		for _, t := range page {
			result = append(result, t)
			if stop != nil && stop(t.Name) {
				found = true
			}
		}
		if found {
			break
		}
	}
	return result, nil
}

// Compare returns the comparison registered for base...head.
func (f *Fake) Compare(_ context.Context, _ provider.Repo, base, head string) (*provider.Comparison, error) {
	f.record("Compare %s...%s", base, head)
	if f.Err != nil {
		return nil, f.Err
	}
	cmp, ok := f.Comparisons[base+"..."+head]
	if !ok {
		return nil, fmt.Errorf("no comparison %s...%s", base, head)
	}
	return cmp, nil
}

// Commit returns the commit registered for sha.
func (f *Fake) Commit(_ context.Context, _ provider.Repo, sha string) (*provider.Commit, error) {
	f.record("Commit %s", sha)
	if f.Err != nil {
		return nil, f.Err
	}
	c, ok := f.Commits[sha]
	if !ok {
		return nil, fmt.Errorf("no commit %s", sha)
	}
	return c, nil
}

// FileContent returns the file registered for ref:path.
func (f *Fake) FileContent(_ context.Context, _ provider.Repo, ref, path string) ([]byte, error) {
	f.record("FileContent %s:%s", ref, path)
	if f.Err != nil {
		return nil, f.Err
	}
	data, ok := f.Files[ref+":"+path]
	if !ok {
		return nil, fmt.Errorf("no file %s at %s", path, ref)
	}
	return data, nil
}

// RepoURL returns a GitHub-style repository URL.
func (f *Fake) RepoURL(repo provider.Repo) string {
	return "https://github.com/" + repo.String()
}

// CommitURL returns a GitHub-style commit URL.
func (f *Fake) CommitURL(repo provider.Repo, sha string) string {
	return f.RepoURL(repo) + "/commit/" + sha
}

// CompareURL returns a GitHub-style comparison URL.
func (f *Fake) CompareURL(repo provider.Repo, base, head string) string {
	return f.RepoURL(repo) + "/compare/" + base + "..." + head
}

// FileDiffURL returns a GitHub-style file diff URL.
func (f *Fake) FileDiffURL(repo provider.Repo, base, head, path string) string {
	sum := sha256.Sum256([]byte(path))
	return f.RepoURL(repo) + "/compare/" + base + ".." + head + "#diff-" + hex.EncodeToString(sum[:])
}
