package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/drewdunne/updatesbot/internal/commit"
	"github.com/drewdunne/updatesbot/internal/discord"
	"github.com/drewdunne/updatesbot/internal/discourse"
	"github.com/drewdunne/updatesbot/internal/localization"
	"github.com/drewdunne/updatesbot/internal/metrics"
	"github.com/drewdunne/updatesbot/internal/platform"
	"github.com/drewdunne/updatesbot/internal/post"
	"github.com/drewdunne/updatesbot/internal/provider"
	"github.com/drewdunne/updatesbot/internal/registry"
	"github.com/drewdunne/updatesbot/internal/release"
	"github.com/drewdunne/updatesbot/internal/state"
	"github.com/drewdunne/updatesbot/internal/version"
)

func (r *run) checkPlatform(ctx context.Context, p platform.Platform, logger *zap.Logger) (Outcome, error) {
	current, ok := r.state.PlatformState(p)
	if !ok {
		return 0, fmt.Errorf("%w: no state for %s", state.ErrInvalidState, p)
	}
	if current.Pending != nil {
		return r.checkApproval(ctx, p, current, logger)
	}

	src, err := r.bot.sources.Source(p)
	if err != nil {
		return 0, err
	}
	lastPosted, previousRelease, err := current.Tags()
	if err != nil {
		return 0, err
	}

	tags, err := release.ListTags(ctx, src.Host, src.Repo, lastPosted)
	if err != nil {
		return 0, err
	}
	ordered := release.FilterTags(p, tags)
	oldTag, newTag, ok, err := release.NextPair(ordered, lastPosted)
	if err != nil {
		return 0, err
	}
	if !ok {
		return AlreadyPosted, nil
	}
	logger = logger.With(zap.String("old_tag", oldTag.Name), zap.String("new_tag", newTag.Name))
	logger.Debug("looking at next version")

	newTopicID, err := r.topicID(ctx, p, newTag.Version)
	if errors.Is(err, discourse.ErrNotFound) {
		return TopicNotFound, nil
	}
	if err != nil {
		return 0, fmt.Errorf("finding topic of %s: %w", newTag.Name, err)
	}

	sameRelease := oldTag.Version.SameRelease(newTag.Version)
	logger.Debug("found topic", zap.Uint64("topic_id", newTopicID), zap.Bool("same_release", sameRelease))

	if !sameRelease {
		if err := r.postArchivingMessage(ctx, p, current, oldTag, newTopicID, logger); err != nil {
			return 0, err
		}
		current, _ = r.state.PlatformState(p)
	}

	var replyTo *uint64
	if sameRelease && current.LastPost != nil {
		n := current.LastPost.Number
		replyTo = &n
	}

	cmp, err := release.FetchComparison(ctx, src.Host, src.Repo, oldTag, newTag)
	if err != nil {
		return 0, err
	}
	logger.Debug("fetched comparison",
		zap.Int("total_commits", cmp.TotalCommits),
		zap.Int("files", len(cmp.Files)),
		zap.Bool("files_truncated", cmp.FilesTruncated))

	unfiltered := commit.FromProvider(cmp.Commits)
	commits := make([]commit.Commit, 0, len(unfiltered))
	for _, c := range unfiltered {
		if p.ShouldShowCommit(c.Message) {
			commits = append(commits, c)
		}
	}

	build := localization.FromComparison(p, oldTag, newTag, cmp, nil)
	if !build.IsComplete() {
		if err := r.recoverLocalization(ctx, src, &build, commits, logger); err != nil {
			return 0, err
		}
	}

	collection := localization.Collection{Build: build}
	codes := localization.Codes(build.Changes)
	complete := build.IsComplete()
	statePreviousRelease := oldTag.Name
	if sameRelease {
		anchor, found := release.ReleaseAnchor(ordered, newTag)
		if !found {
			anchor = previousRelease
		}
		changes, err := localization.ReleaseChanges(p, anchor, newTag, build,
			current.LocalizationChangeCodes, current.LocalizationChangeCodesComplete)
		if err != nil {
			return 0, fmt.Errorf("decoding persisted localization changes: %w", err)
		}
		collection.Release = &changes
		codes = localization.Codes(changes.Changes)
		complete = changes.IsComplete()
		statePreviousRelease = current.LastPostedTagPreviousRelease
	}

	announcement := &post.Post{
		Platform:        p,
		Old:             oldTag,
		New:             newTag,
		Commits:         commits,
		UnfilteredCount: len(unfiltered),
		BuildNumber:     r.buildNumber(ctx, src, p, newTag, logger),
		Collection:      collection,
		Links:           provider.Links{Host: src.Host, Repo: src.Repo},
	}
	rendered, err := announcement.Render()
	if err != nil {
		return 0, fmt.Errorf("rendering post for %s: %w", newTag.Name, err)
	}
	logger.Debug("rendered post", zap.Stringer("mode", rendered.Mode), zap.Int("length", len([]rune(rendered.Text))))

	outcome, err := r.post(ctx, newTopicID, replyTo, rendered.Text, logger)
	if err != nil {
		return 0, fmt.Errorf("posting %s: %w", newTag.Name, err)
	}

	next := state.PlatformState{
		LastPostedTag:                   newTag.Name,
		LastPostedTagPreviousRelease:    statePreviousRelease,
		LocalizationChangeCodes:         codes,
		LocalizationChangeCodesComplete: complete,
	}
	final := next
	postURL := r.bot.forum.TopicURL(newTopicID)
	switch o := outcome.(type) {
	case discourse.Posted:
		metrics.PostCreated()
		final.LastPost = &state.PostInfo{ID: o.ID, Number: o.Number}
		postURL = fmt.Sprintf("%s/%d", postURL, o.Number)
		logger.Info("posted to forum", zap.Uint64("post_id", o.ID), zap.Uint64("post_number", o.Number))
	case discourse.Enqueued:
		metrics.PostEnqueued()
		if sameRelease {
			next.LastPost = &state.PostInfo{ID: o.PendingID}
			final = current
			final.Pending = &next
			logger.Info("post is waiting for approval", zap.Uint64("pending_id", o.PendingID))
		} else {
			logger.Warn("post in a new topic is waiting for approval, its number will stay unknown",
				zap.Uint64("pending_id", o.PendingID))
		}
	}

	if err := r.state.SetPlatformState(ctx, p, final); err != nil {
		return 0, fmt.Errorf("setting state after posting: %w", err)
	}

	if r.bot.cfg.Bot.DryRun {
		logger.Warn("dry run, not sending update notice")
	} else if err := r.bot.notifier.SendUpdate(ctx, discord.Update{
		Platform: p,
		Version:  newTag.VersionString(),
		Since:    oldTag.VersionString(),
		Commits:  len(commits),
		RepoURL:  announcement.Links.RepoURL(),
		PostURL:  postURL,
	}); err != nil {
		logger.Error("could not send update notice", zap.Error(err))
	}

	return PostedCommits, nil
}

// checkApproval promotes the pending state once its held post is visible.
func (r *run) checkApproval(ctx context.Context, p platform.Platform, current state.PlatformState, logger *zap.Logger) (Outcome, error) {
	pending := *current.Pending
	logger.Debug("a post is waiting for approval")

	if pending.LastPost == nil {
		logger.Warn("pending state has no post id, assuming the post was approved")
	} else {
		number, err := r.bot.forum.PostNumber(ctx, pending.LastPost.ID)
		if errors.Is(err, discourse.ErrNotFound) {
			return WaitingForApproval, nil
		}
		if err != nil {
			return 0, fmt.Errorf("checking approval: %w", err)
		}
		pending.LastPost = &state.PostInfo{ID: pending.LastPost.ID, Number: number}
		logger.Info("approval confirmed", zap.Uint64("post_number", number))
	}

	if err := r.state.SetPlatformState(ctx, p, pending); err != nil {
		return 0, fmt.Errorf("setting state after approval: %w", err)
	}
	return ApprovalConfirmed, nil
}

// topicID returns the topic a version is announced in.
func (r *run) topicID(ctx context.Context, p platform.Platform, v version.Version) (uint64, error) {
	forum := r.bot.cfg.Forum
	if r.bot.cfg.IsOverridePlatform(p.Slug()) {
		return forum.TopicIDOverride, nil
	}
	if p == platform.Server && forum.ServerTopicID != 0 {
		return forum.ServerTopicID, nil
	}
	return r.bot.forum.TopicID(ctx, p.TopicSlug(v))
}

// postArchivingMessage points the previous release's topic at the new one.
// Failing to post is logged and otherwise ignored.
func (r *run) postArchivingMessage(ctx context.Context, p platform.Platform, current state.PlatformState, old release.Tag, newTopicID uint64, logger *zap.Logger) error {
	if !p.ArchivesTopics() || current.PostedArchivingMessage {
		logger.Debug("archiving message not necessary")
		return nil
	}

	oldTopicID, err := r.topicID(ctx, p, old.Version)
	if errors.Is(err, discourse.ErrNotFound) {
		logger.Warn("old topic does not exist, not posting archiving message")
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding topic of %s: %w", old.Name, err)
	}
	if oldTopicID == newTopicID {
		logger.Debug("old and new release share a topic, not posting archiving message")
		return nil
	}

	var replyTo *uint64
	if current.LastPost != nil {
		n := current.LastPost.Number
		replyTo = &n
	}
	if _, err := r.post(ctx, oldTopicID, replyTo, r.bot.forum.ArchivingMarkdown(newTopicID), logger); err != nil {
		logger.Warn("could not post archiving message, the old topic is likely closed", zap.Error(err))
		return nil
	}
	logger.Info("posted archiving message", zap.Uint64("topic_id", oldTopicID))

	updated := current
	updated.PostedArchivingMessage = true
	if err := r.state.SetPlatformState(ctx, p, updated); err != nil {
		return fmt.Errorf("setting state after archiving message: %w", err)
	}
	return r.bot.sleep(ctx, r.bot.cfg.PostingDelay())
}

// post submits raw to a topic, or only logs it in dry-run mode.
func (r *run) post(ctx context.Context, topicID uint64, replyTo *uint64, raw string, logger *zap.Logger) (discourse.Outcome, error) {
	if r.bot.cfg.Bot.DryRun {
		logger.Warn("dry run, not posting to forum", zap.Uint64("topic_id", topicID), zap.String("raw", raw))
		return discourse.Posted{}, nil
	}
	return r.bot.forum.Post(ctx, topicID, replyTo, raw)
}

// recoverLocalization fetches commits that look like translation updates
// one by one and merges their files into a truncated build set.
func (r *run) recoverLocalization(ctx context.Context, src registry.Source, build *localization.Changes, commits []commit.Commit, logger *zap.Logger) error {
	allComplete := true
	fetched := 0
	for _, c := range commits {
		if !c.IsLikelyLocalizationChange() {
			continue
		}
		full, err := src.Host.Commit(ctx, src.Repo, c.SHA)
		if err != nil {
			return fmt.Errorf("fetching commit %s: %w", c.SHA, err)
		}
		build.Add(localization.ChangesFromFiles(build.Platform, full.Files))
		allComplete = allComplete && !full.FilesTruncated
		fetched++
	}
	if fetched > 0 && allComplete {
		build.Completeness = localization.LikelyComplete
	}
	logger.Debug("recovered localization changes from commits",
		zap.Int("commits", fetched),
		zap.Stringer("completeness", build.Completeness))
	return nil
}

// buildNumber reads the new version's build number, or returns nil if the
// platform has none or it cannot be determined.
func (r *run) buildNumber(ctx context.Context, src registry.Source, p platform.Platform, tag release.Tag, logger *zap.Logger) *uint64 {
	if !p.HasBuildNumber() {
		return nil
	}
	data, err := src.Host.FileContent(ctx, src.Repo, tag.Name, post.BuildConfigPath)
	if err != nil {
		logger.Error("could not get build configuration", zap.Error(err))
		return nil
	}
	cfg, err := post.ParseBuildConfig(string(data))
	if err != nil {
		logger.Error("could not parse build configuration", zap.Error(err))
		return nil
	}
	n := cfg.BuildNumber()
	return &n
}
