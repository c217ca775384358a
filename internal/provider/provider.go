package provider

import "context"

// Host defines the source-code hosting operations the bot relies on.
type Host interface {
	// Name returns the host name (github, gitlab).
	Name() string

	// ListTags lists repository tags page by page, newest first. Listing
	// stops after the page on which stop returns true for any tag name.
	ListTags(ctx context.Context, repo Repo, stop func(name string) bool) ([]Tag, error)

	// Compare fetches all commits and changed files between two refs,
	// following pagination until exhausted.
	Compare(ctx context.Context, repo Repo, base, head string) (*Comparison, error)

	// Commit fetches a single commit with its changed files. Message may be
	// empty when the host does not return it alongside the diff.
	Commit(ctx context.Context, repo Repo, sha string) (*Commit, error)

	// FileContent returns the raw content of a file at a ref.
	FileContent(ctx context.Context, repo Repo, ref, path string) ([]byte, error)

	// RepoURL returns the web URL of the repository.
	RepoURL(repo Repo) string

	// CommitURL returns the web URL of a commit.
	CommitURL(repo Repo, sha string) string

	// CompareURL returns the web URL of a comparison between two refs.
	CompareURL(repo Repo, base, head string) string

	// FileDiffURL returns the web URL of one file's diff inside a comparison.
	FileDiffURL(repo Repo, base, head, path string) string
}
