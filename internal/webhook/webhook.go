// Package webhook receives tag pushes from source-code hosts so a run can
// start as soon as a release is tagged.
package webhook

import "strings"

// TagPush is a tag created in a repository.
type TagPush struct {
	// Host is "github" or "gitlab".
	Host string
	// Repo is the repository in owner/name form.
	Repo string
	Tag  string
}

// Key groups pushes by repository.
func (t TagPush) Key() string {
	return t.Host + ":" + strings.ToLower(t.Repo)
}

// TagPushHandler is called for each verified tag push.
type TagPushHandler func(push TagPush) error

const tagRefPrefix = "refs/tags/"

// zeroSHA marks a deleted ref in push payloads.
const zeroSHA = "0000000000000000000000000000000000000000"
