package github

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/drewdunne/updatesbot/internal/provider"
	"github.com/google/go-github/v60/github"
	"github.com/hashicorp/go-cleanhttp"
)

const (
	defaultWebURL = "https://github.com"
	perPage       = 100

	// MaxComparisonFiles is the number of files GitHub returns at most for a
	// comparison. Hitting it exactly means the file list was cut off.
	MaxComparisonFiles = 300
	// MaxCommitFiles is the equivalent ceiling for a single commit.
	MaxCommitFiles = 3000
)

// GitHubProvider implements provider.Host for GitHub.
type GitHubProvider struct {
	client *github.Client
	webURL string
}

var _ provider.Host = (*GitHubProvider)(nil)

// Option configures the GitHub provider.
type Option func(*GitHubProvider)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(p *GitHubProvider) {
		p.client.BaseURL, _ = p.client.BaseURL.Parse(url + "/")
	}
}

// WithWebURL sets the base URL used for links in posts.
func WithWebURL(url string) Option {
	return func(p *GitHubProvider) {
		p.webURL = strings.TrimSuffix(url, "/")
	}
}

// New creates a new GitHub provider. An empty token makes anonymous requests.
func New(token string, opts ...Option) *GitHubProvider {
	httpClient := &http.Client{
		Transport: &tokenTransport{token: token, base: cleanhttp.DefaultPooledTransport()},
	}
	client := github.NewClient(httpClient)

	p := &GitHubProvider{
		client: client,
		webURL: defaultWebURL,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// tokenTransport adds authorization header to requests.
type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(req)
}

// Name returns the provider name.
func (p *GitHubProvider) Name() string {
	return "github"
}

// ListTags lists tags until stop matches or pages run out.
func (p *GitHubProvider) ListTags(ctx context.Context, repo provider.Repo, stop func(string) bool) ([]provider.Tag, error) {
	var result []provider.Tag
	opts := &github.ListOptions{PerPage: perPage}

	for {
		tags, resp, err := p.client.Repositories.ListTags(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("listing tags (page %d): %w", opts.Page, err)
		}

		found := false
		for _, t := range tags {
			result = append(result, provider.Tag{Name: t.GetName()})
			if stop != nil && stop(t.GetName()) {
				found = true
			}
		}

		if found || resp.NextPage == 0 {
			return result, nil
		}
		opts.Page = resp.NextPage
	}
}

// Compare fetches a comparison, following pagination of its commits.
func (p *GitHubProvider) Compare(ctx context.Context, repo provider.Repo, base, head string) (*provider.Comparison, error) {
	result := &provider.Comparison{}
	seen := make(map[string]bool)
	opts := &github.ListOptions{PerPage: perPage}

	for {
		cmp, resp, err := p.client.Repositories.CompareCommits(ctx, repo.Owner, repo.Name, base, head, opts)
		if err != nil {
			return nil, fmt.Errorf("comparing %s...%s (page %d): %w", base, head, opts.Page, err)
		}

		result.TotalCommits = cmp.GetTotalCommits()
		for _, c := range cmp.Commits {
			result.Commits = append(result.Commits, provider.Commit{
				SHA:     c.GetSHA(),
				Message: c.GetCommit().GetMessage(),
			})
		}
		for _, f := range cmp.Files {
			if !seen[f.GetFilename()] {
				seen[f.GetFilename()] = true
				result.Files = append(result.Files, f.GetFilename())
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	result.FilesTruncated = len(result.Files) == MaxComparisonFiles
	return result, nil
}

// Commit fetches a single commit and all pages of its files.
func (p *GitHubProvider) Commit(ctx context.Context, repo provider.Repo, sha string) (*provider.Commit, error) {
	result := &provider.Commit{SHA: sha}
	opts := &github.ListOptions{PerPage: perPage}

	for {
		c, resp, err := p.client.Repositories.GetCommit(ctx, repo.Owner, repo.Name, sha, opts)
		if err != nil {
			return nil, fmt.Errorf("fetching commit %s: %w", sha, err)
		}

		result.Message = c.GetCommit().GetMessage()
		for _, f := range c.Files {
			result.Files = append(result.Files, f.GetFilename())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	result.FilesTruncated = len(result.Files) >= MaxCommitFiles
	return result, nil
}

// FileContent fetches a file's decoded content at ref.
func (p *GitHubProvider) FileContent(ctx context.Context, repo provider.Repo, ref, path string) ([]byte, error) {
	file, _, _, err := p.client.Repositories.GetContents(ctx, repo.Owner, repo.Name, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, fmt.Errorf("fetching %s at %s: %w", path, ref, err)
	}
	if file == nil {
		return nil, fmt.Errorf("fetching %s at %s: path is a directory", path, ref)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return []byte(content), nil
}

// RepoURL returns the repository's web URL.
func (p *GitHubProvider) RepoURL(repo provider.Repo) string {
	return fmt.Sprintf("%s/%s/%s", p.webURL, repo.Owner, repo.Name)
}

// CommitURL returns a commit's web URL.
func (p *GitHubProvider) CommitURL(repo provider.Repo, sha string) string {
	return fmt.Sprintf("%s/commit/%s", p.RepoURL(repo), sha)
}

// CompareURL returns a three-dot comparison URL.
func (p *GitHubProvider) CompareURL(repo provider.Repo, base, head string) string {
	return fmt.Sprintf("%s/compare/%s...%s", p.RepoURL(repo), base, head)
}

// FileDiffURL returns a two-dot comparison URL anchored at the file's diff.
// GitHub anchors diffs by the hex SHA-256 of the file path.
func (p *GitHubProvider) FileDiffURL(repo provider.Repo, base, head, path string) string {
	sum := sha256.Sum256([]byte(path))
	return fmt.Sprintf("%s/compare/%s..%s#diff-%s", p.RepoURL(repo), base, head, hex.EncodeToString(sum[:]))
}
