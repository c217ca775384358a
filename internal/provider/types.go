package provider

import (
	"fmt"
	"strings"
)

// Repo identifies a repository by owner and name.
type Repo struct {
	Owner string
	Name  string
}

// ParseRepo parses an owner/name string.
func ParseRepo(s string) (Repo, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repo{}, fmt.Errorf("invalid repository %q: want owner/name", s)
	}
	return Repo{Owner: owner, Name: name}, nil
}

// String returns owner/name.
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// Tag is a repository tag.
type Tag struct {
	Name string
}

// Commit is a commit with its message and, when fetched individually, its files.
type Commit struct {
	SHA            string
	Message        string
	Files          []string
	FilesTruncated bool
}

// Comparison is the result of comparing two refs.
type Comparison struct {
	TotalCommits int
	Commits      []Commit
	Files        []string
	// FilesTruncated is set when the host likely did not return every
	// changed file.
	FilesTruncated bool
}
