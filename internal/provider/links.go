package provider

// Links binds a host's web link builders to one repository.
type Links struct {
	Host Host
	Repo Repo
}

// RepoURL returns the repository's web URL.
func (l Links) RepoURL() string {
	return l.Host.RepoURL(l.Repo)
}

// CommitURL returns a commit's web URL.
func (l Links) CommitURL(sha string) string {
	return l.Host.CommitURL(l.Repo, sha)
}

// CompareURL returns a comparison's web URL.
func (l Links) CompareURL(base, head string) string {
	return l.Host.CompareURL(l.Repo, base, head)
}

// FileDiffURL returns a file's diff URL within a comparison.
func (l Links) FileDiffURL(base, head, path string) string {
	return l.Host.FileDiffURL(l.Repo, base, head, path)
}
