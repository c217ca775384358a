package discord

import (
	"context"
	"fmt"
	"strconv"

	"github.com/drewdunne/updatesbot/internal/platform"
)

// Update describes a new announcement.
type Update struct {
	Platform platform.Platform
	Version  string
	// Since is the version the update is compared against.
	Since   string
	Commits int
	RepoURL string
	// PostURL links the forum post, or its topic if the post number is unknown.
	PostURL string
}

// Notifier sends update notices and operator reports. Either webhook may be
// unconfigured, in which case its messages are dropped.
type Notifier struct {
	Updates *Webhook
	Errors  *Webhook
}

// SendUpdate announces a new post with an embed in the platform's color.
func (n *Notifier) SendUpdate(ctx context.Context, u Update) error {
	if !n.Updates.Configured() {
		return nil
	}
	m := n.Updates.Message(fmt.Sprintf("New %s beta: %s", u.Platform, u.Version), true)
	m.Embeds = []Embed{{
		Title:       fmt.Sprintf("%s %s", u.Platform, u.Version),
		Description: "Posted to the beta feedback topic.",
		URL:         u.PostURL,
		Color:       u.Platform.Color(),
		Author:      &EmbedAuthor{Name: u.Platform.String(), URL: u.RepoURL},
		Fields: []EmbedField{
			{Name: "Version", Value: u.Version, Inline: true},
			{Name: "Since", Value: u.Since, Inline: true},
			{Name: "Commits", Value: strconv.Itoa(u.Commits), Inline: true},
		},
	}}
	if err := n.Updates.Send(ctx, m); err != nil {
		return fmt.Errorf("sending update notice: %w", err)
	}
	return nil
}

// SendError reports a failed run to operators, mentioning their role.
func (n *Notifier) SendError(ctx context.Context, message, log string) error {
	if !n.Errors.Configured() {
		return nil
	}
	if err := n.Errors.SendWithLog(ctx, n.Errors.Message(message, true), log); err != nil {
		return fmt.Errorf("sending error report: %w", err)
	}
	return nil
}

// SendMisc sends an informational notice to operators without a mention.
func (n *Notifier) SendMisc(ctx context.Context, message, log string) error {
	if !n.Errors.Configured() {
		return nil
	}
	if err := n.Errors.SendWithLog(ctx, n.Errors.Message(message, false), log); err != nil {
		return fmt.Errorf("sending notice: %w", err)
	}
	return nil
}
