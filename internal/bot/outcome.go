package bot

import (
	"fmt"

	"github.com/drewdunne/updatesbot/internal/platform"
)

// Outcome is how checking one platform ended.
type Outcome int

const (
	// AlreadyPosted means no version newer than the last posted one exists.
	AlreadyPosted Outcome = iota
	// WaitingForApproval means an earlier post is still held by moderators.
	WaitingForApproval
	// ApprovalConfirmed means a held post went live and state was updated.
	ApprovalConfirmed
	// TopicNotFound means the release's forum topic does not exist yet.
	TopicNotFound
	// PostedCommits means a new version was announced.
	PostedCommits
)

func (o Outcome) String() string {
	switch o {
	case AlreadyPosted:
		return "already posted"
	case WaitingForApproval:
		return "waiting for approval"
	case ApprovalConfirmed:
		return "approval confirmed"
	case TopicNotFound:
		return "topic not found"
	case PostedCommits:
		return "posted commits"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	for c := AlreadyPosted; c <= PostedCommits; c++ {
		if c.String() == string(text) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// PlatformOutcome pairs a platform with how its check ended.
type PlatformOutcome struct {
	Platform platform.Platform `json:"platform"`
	Outcome  Outcome           `json:"outcome"`
}

// Report summarizes one run.
type Report struct {
	RunID    string            `json:"run_id"`
	Outcomes []PlatformOutcome `json:"outcomes"`
	// LogPath is where the run log was archived, if anywhere.
	LogPath string `json:"log_path,omitempty"`
	Error   string `json:"error,omitempty"`
}
