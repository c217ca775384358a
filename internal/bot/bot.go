// Package bot checks each platform for a new version and announces it.
package bot

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/drewdunne/updatesbot/internal/config"
	"github.com/drewdunne/updatesbot/internal/discord"
	"github.com/drewdunne/updatesbot/internal/discourse"
	"github.com/drewdunne/updatesbot/internal/kv"
	"github.com/drewdunne/updatesbot/internal/logging"
	"github.com/drewdunne/updatesbot/internal/metrics"
	"github.com/drewdunne/updatesbot/internal/platform"
	"github.com/drewdunne/updatesbot/internal/registry"
	"github.com/drewdunne/updatesbot/internal/state"
)

// reportTimeout bounds operator reporting after the run's own context ended.
const reportTimeout = 30 * time.Second

// Sources resolves where a platform's releases are read from.
type Sources interface {
	Source(p platform.Platform) (registry.Source, error)
}

// Bot runs release checks.
type Bot struct {
	cfg      *config.Config
	store    kv.Store
	sources  Sources
	forum    *discourse.Client
	notifier *discord.Notifier
	logs     *logging.Writer
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogWriter archives each run's log.
func WithLogWriter(w *logging.Writer) Option {
	return func(b *Bot) {
		b.logs = w
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) {
		b.now = now
	}
}

// WithSleep replaces the wait between consecutive forum posts.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(b *Bot) {
		b.sleep = sleep
	}
}

// New creates a Bot.
func New(cfg *config.Config, store kv.Store, sources Sources, forum *discourse.Client, notifier *discord.Notifier, opts ...Option) *Bot {
	b := &Bot{
		cfg:      cfg,
		store:    store,
		sources:  sources,
		forum:    forum,
		notifier: notifier,
		now:      time.Now,
		sleep:    sleep,
	}
	if b.notifier == nil {
		b.notifier = &discord.Notifier{}
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Order rotates platforms by the hour of day so that each one regularly
// gets checked first.
func Order(platforms []platform.Platform, now time.Time) []platform.Platform {
	if len(platforms) == 0 {
		return nil
	}
	shift := now.Hour() % len(platforms)
	return append(slices.Clone(platforms[shift:]), platforms[:shift]...)
}

// run is the context of one invocation.
type run struct {
	bot    *Bot
	id     string
	sink   *logging.Sink
	logger *zap.Logger
	state  *state.Controller
}

// Run checks platforms in order until one posts. Failures are logged,
// reported to operators with the run log, and returned.
func (b *Bot) Run(ctx context.Context) (*Report, error) {
	started := b.now()
	r := &run{bot: b, id: uuid.NewString(), sink: logging.NewSink()}
	logger, err := logging.New(b.cfg.Logging, r.sink)
	if err != nil {
		return nil, err
	}
	r.logger = logger.With(zap.String("run_id", r.id))
	defer r.logger.Sync()

	if timeout := b.cfg.RunTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	metrics.RunStarted()
	report := &Report{RunID: r.id}
	r.logger.Debug("starting run", zap.Time("now", started), zap.Bool("dry_run", b.cfg.Bot.DryRun))

	err = r.checkAll(ctx, report)
	if err != nil {
		metrics.RunFailed()
		report.Error = err.Error()
		r.logger.Error("run failed", zap.Error(err))

		reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
		defer cancel()
		if nerr := b.notifier.SendError(reportCtx, err.Error(), r.sink.String()); nerr != nil {
			r.logger.Warn("could not send error report", zap.Error(nerr))
		} else {
			r.logger.Info("sent error report")
		}
	} else {
		metrics.RunSucceeded()
		r.logger.Info("finished successfully")
	}

	if b.logs != nil {
		path, werr := b.logs.Write(logging.RunEntry{RunID: r.id, Timestamp: started}, r.sink.Bytes())
		if werr != nil {
			r.logger.Warn("could not archive run log", zap.Error(werr))
		} else {
			report.LogPath = path
		}
	}
	return report, err
}

func (r *run) checkAll(ctx context.Context, report *Report) error {
	enabled, err := r.bot.cfg.EnabledPlatforms()
	if err != nil {
		return err
	}
	platforms := Order(enabled, r.bot.now())
	r.logger.Debug("platform order", zap.Any("platforms", platforms))

	r.state, err = state.Load(ctx, r.bot.store, r.bot.cfg.State.Key, platforms,
		state.WithDryRun(r.bot.cfg.Bot.DryRun),
		state.WithLogger(r.logger))
	if err != nil {
		return err
	}

	for _, p := range platforms {
		logger := r.logger.With(zap.Stringer("platform", p))
		logger.Debug("checking platform")

		outcome, err := r.checkPlatform(ctx, p, logger)
		if err != nil {
			return fmt.Errorf("checking %s: %w", p, err)
		}
		report.Outcomes = append(report.Outcomes, PlatformOutcome{Platform: p, Outcome: outcome})

		switch outcome {
		case AlreadyPosted:
			logger.Info("latest version is already posted")
		case WaitingForApproval:
			metrics.PlatformSkipped()
			logger.Warn("waiting for post approval")
		case TopicNotFound:
			metrics.PlatformSkipped()
			logger.Warn("no topic found, it may not be created yet")
		case ApprovalConfirmed:
			logger.Info("confirmed approval of post")
			if err := r.bot.notifier.SendMisc(ctx, fmt.Sprintf("Confirmed approval of %s post", p), r.sink.String()); err != nil {
				logger.Warn("could not send notice", zap.Error(err))
			}
		case PostedCommits:
			logger.Info("posted for platform, one post per run, done")
			return nil
		}
	}
	return nil
}
