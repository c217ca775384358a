package gitlab

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/drewdunne/updatesbot/internal/provider"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/xanzy/go-gitlab"
)

const (
	defaultWebURL = "https://gitlab.com"
	perPage       = 100

	// MaxDiffFiles is GitLab's default diff_max_files limit. A diff listing
	// this many files was likely cut off.
	MaxDiffFiles = 1000
)

// GitLabProvider implements provider.Host for GitLab.
type GitLabProvider struct {
	client *gitlab.Client
	token  string
	webURL string
}

var _ provider.Host = (*GitLabProvider)(nil)

// Option configures the GitLab provider.
type Option func(*GitLabProvider)

// WithBaseURL sets a custom base URL for both API calls and web links.
func WithBaseURL(baseURL string) Option {
	return func(p *GitLabProvider) {
		p.client = newClient(p.token, gitlab.WithBaseURL(baseURL+"/api/v4"))
		p.webURL = strings.TrimSuffix(baseURL, "/")
	}
}

// New creates a new GitLab provider.
func New(token string, opts ...Option) *GitLabProvider {
	p := &GitLabProvider{client: newClient(token), token: token, webURL: defaultWebURL}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// newClient builds a client that fails fast; the bot never retries calls.
func newClient(token string, opts ...gitlab.ClientOptionFunc) *gitlab.Client {
	opts = append(opts,
		gitlab.WithHTTPClient(cleanhttp.DefaultPooledClient()),
		gitlab.WithCustomRetryMax(0),
	)
	client, _ := gitlab.NewClient(token, opts...)
	return client
}

// Name returns the provider name.
func (p *GitLabProvider) Name() string {
	return "gitlab"
}

// projectPath encodes owner/repo for GitLab API.
func projectPath(repo provider.Repo) string {
	return repo.Owner + "/" + repo.Name
}

// ListTags lists tags until stop matches or pages run out.
func (p *GitLabProvider) ListTags(ctx context.Context, repo provider.Repo, stop func(string) bool) ([]provider.Tag, error) {
	var result []provider.Tag
	opts := &gitlab.ListTagsOptions{ListOptions: gitlab.ListOptions{PerPage: perPage}}

	for {
		tags, resp, err := p.client.Tags.ListTags(projectPath(repo), opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing tags (page %d): %w", opts.Page, err)
		}

		found := false
		for _, t := range tags {
			result = append(result, provider.Tag{Name: t.Name})
			if stop != nil && stop(t.Name) {
				found = true
			}
		}

		if found || resp.NextPage == 0 {
			return result, nil
		}
		opts.Page = resp.NextPage
	}
}

// Compare fetches a comparison. GitLab returns it in a single response;
// a timed-out comparison may be missing diffs.
func (p *GitLabProvider) Compare(ctx context.Context, repo provider.Repo, base, head string) (*provider.Comparison, error) {
	cmp, _, err := p.client.Repositories.Compare(projectPath(repo), &gitlab.CompareOptions{
		From: gitlab.Ptr(base),
		To:   gitlab.Ptr(head),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("comparing %s...%s: %w", base, head, err)
	}

	result := &provider.Comparison{
		TotalCommits:   len(cmp.Commits),
		FilesTruncated: cmp.CompareTimeout || len(cmp.Diffs) >= MaxDiffFiles,
	}
	// GitLab lists commits newest first; callers expect chronological order.
	for i := len(cmp.Commits) - 1; i >= 0; i-- {
		c := cmp.Commits[i]
		result.Commits = append(result.Commits, provider.Commit{SHA: c.ID, Message: c.Message})
	}
	for _, d := range cmp.Diffs {
		result.Files = append(result.Files, diffPath(d))
	}
	return result, nil
}

// Commit fetches all pages of a single commit's diff. GitLab's diff
// endpoint carries no message, so Message is left empty. The diff reports
// no overflow, so FilesTruncated is set when the file limit is reached.
func (p *GitLabProvider) Commit(ctx context.Context, repo provider.Repo, sha string) (*provider.Commit, error) {
	result := &provider.Commit{SHA: sha}

	opts := &gitlab.GetCommitDiffOptions{ListOptions: gitlab.ListOptions{PerPage: perPage}}
	for {
		diffs, resp, err := p.client.Commits.GetCommitDiff(projectPath(repo), sha, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetching diff of commit %s: %w", sha, err)
		}
		for _, d := range diffs {
			result.Files = append(result.Files, diffPath(d))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	result.FilesTruncated = len(result.Files) >= MaxDiffFiles
	return result, nil
}

// FileContent fetches a raw file at ref.
func (p *GitLabProvider) FileContent(ctx context.Context, repo provider.Repo, ref, path string) ([]byte, error) {
	data, _, err := p.client.RepositoryFiles.GetRawFile(projectPath(repo), path, &gitlab.GetRawFileOptions{
		Ref: gitlab.Ptr(ref),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching %s at %s: %w", path, ref, err)
	}
	return data, nil
}

// RepoURL returns the project's web URL.
func (p *GitLabProvider) RepoURL(repo provider.Repo) string {
	return fmt.Sprintf("%s/%s/%s", p.webURL, repo.Owner, repo.Name)
}

// CommitURL returns a commit's web URL.
func (p *GitLabProvider) CommitURL(repo provider.Repo, sha string) string {
	return fmt.Sprintf("%s/-/commit/%s", p.RepoURL(repo), sha)
}

// CompareURL returns a comparison's web URL.
func (p *GitLabProvider) CompareURL(repo provider.Repo, base, head string) string {
	return fmt.Sprintf("%s/-/compare/%s...%s", p.RepoURL(repo), base, head)
}

// FileDiffURL returns a comparison URL anchored at a file's diff. GitLab
// anchors diffs by the hex SHA-1 of the file path.
func (p *GitLabProvider) FileDiffURL(repo provider.Repo, base, head, path string) string {
	sum := sha1.Sum([]byte(path))
	return fmt.Sprintf("%s#%s", p.CompareURL(repo, base, head), hex.EncodeToString(sum[:]))
}

// diffPath returns the path a diff touches, preferring the new path.
func diffPath(d *gitlab.Diff) string {
	if d.NewPath != "" {
		return d.NewPath
	}
	return d.OldPath
}
