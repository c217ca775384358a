package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the bot configuration.
type Config struct {
	Source    SourceConfig              `yaml:"source"`
	Forum     ForumConfig               `yaml:"forum"`
	Chat      ChatConfig                `yaml:"chat"`
	State     StateConfig               `yaml:"state"`
	Logging   LoggingConfig             `yaml:"logging"`
	Server    ServerConfig              `yaml:"server"`
	Bot       BotConfig                 `yaml:"bot"`
	Platforms map[string]PlatformConfig `yaml:"platforms"`
}

// SourceConfig holds source-code host credentials.
type SourceConfig struct {
	GitHub HostConfig `yaml:"github"`
	GitLab HostConfig `yaml:"gitlab"`
}

// HostConfig holds settings for one source-code host.
type HostConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
	WebURL  string `yaml:"web_url"`
	// WebhookSecret enables tag push webhooks from this host in serve mode.
	WebhookSecret string `yaml:"webhook_secret"`
}

// ForumConfig holds Discourse settings.
type ForumConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// TopicIDOverride posts OverridePlatform's updates into a fixed topic.
	TopicIDOverride  uint64 `yaml:"topic_id_override"`
	OverridePlatform string `yaml:"override_platform"`
	ServerTopicID    uint64 `yaml:"server_topic_id"`
}

// ChatConfig holds Discord webhook settings.
type ChatConfig struct {
	UpdatesWebhookURL string `yaml:"updates_webhook_url"`
	UpdatesRoleID     string `yaml:"updates_role_id"`
	ErrorsWebhookURL  string `yaml:"errors_webhook_url"`
	ErrorsRoleID      string `yaml:"errors_role_id"`
}

// StateConfig selects where the state blob is persisted.
type StateConfig struct {
	Backend string `yaml:"backend"` // file, sqlite, postgres, memory
	Path    string `yaml:"path"`
	DSN     string `yaml:"dsn"`
	Key     string `yaml:"key"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// ServerConfig holds HTTP server and scheduler settings.
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	IntervalMinutes        int    `yaml:"interval_minutes"`
	WebhookDebounceSeconds int    `yaml:"webhook_debounce_seconds"`
}

// BotConfig holds run behaviour settings.
type BotConfig struct {
	DryRun              bool   `yaml:"dry_run"`
	EnabledPlatforms    string `yaml:"enabled_platforms"`
	PostingDelaySeconds int    `yaml:"posting_delay_seconds"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
}

// PlatformConfig overrides where a platform's releases come from.
type PlatformConfig struct {
	Host string `yaml:"host"`
	Repo string `yaml:"repo"`
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Forum: ForumConfig{
			BaseURL: "https://community.signalusers.org",
		},
		State: StateConfig{
			Backend: "file",
			Path:    "/var/lib/updatesbot/state.json",
			Key:     "state",
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "console",
			Dir:           "/var/log/updatesbot",
			RetentionDays: 30,
		},
		Server: ServerConfig{
			Host:                   "0.0.0.0",
			Port:                   7000,
			IntervalMinutes:        10,
			WebhookDebounceSeconds: 60,
		},
		Bot: BotConfig{
			EnabledPlatforms:    "aids",
			PostingDelaySeconds: 3,
			TimeoutSeconds:      300,
		},
	}
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Substitute environment variables
	data = envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(varName)))
	})

	// Start with defaults
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv applies the DRY_RUN, ENABLED_PLATFORMS and TOPIC_ID_OVERRIDE
// overrides, which take precedence over the file.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DRY_RUN"); ok && v != "" {
		dryRun, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing DRY_RUN: %w", err)
		}
		c.Bot.DryRun = dryRun
	}
	if v, ok := lookup("ENABLED_PLATFORMS"); ok && v != "" {
		c.Bot.EnabledPlatforms = v
	}
	if v, ok := lookup("TOPIC_ID_OVERRIDE"); ok && v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing TOPIC_ID_OVERRIDE: %w", err)
		}
		c.Forum.TopicIDOverride = id
	}
	return nil
}

// Validate reports every missing or inconsistent setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Forum.BaseURL == "" {
		errs = append(errs, errors.New("forum.base_url is required"))
	}
	if c.Forum.APIKey == "" && !c.Bot.DryRun {
		errs = append(errs, errors.New("forum.api_key is required unless dry_run is set"))
	}
	if c.Forum.TopicIDOverride != 0 && c.Forum.OverridePlatform == "" {
		errs = append(errs, errors.New("forum.override_platform is required with forum.topic_id_override"))
	}
	switch c.State.Backend {
	case "file", "sqlite":
		if c.State.Path == "" {
			errs = append(errs, fmt.Errorf("state.path is required for the %s backend", c.State.Backend))
		}
	case "postgres":
		if c.State.DSN == "" {
			errs = append(errs, errors.New("state.dsn is required for the postgres backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown state.backend %q", c.State.Backend))
	}
	if c.State.Key == "" {
		errs = append(errs, errors.New("state.key is required"))
	}
	if _, err := c.EnabledPlatforms(); err != nil {
		errs = append(errs, err)
	}
	for name, pc := range c.Platforms {
		if pc.Host != "" && pc.Host != "github" && pc.Host != "gitlab" {
			errs = append(errs, fmt.Errorf("platforms.%s.host: unknown host %q", name, pc.Host))
		}
	}
	return errors.Join(errs...)
}

// PostingDelay returns the pause between consecutive forum posts.
func (c *Config) PostingDelay() time.Duration {
	return time.Duration(c.Bot.PostingDelaySeconds) * time.Second
}

// RunTimeout returns the deadline for one invocation.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.Bot.TimeoutSeconds) * time.Second
}

// Interval returns the scheduler interval for serve mode.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Server.IntervalMinutes) * time.Minute
}

// WebhookDebounce returns how long tag pushes for one repository are
// coalesced into a single run.
func (c *Config) WebhookDebounce() time.Duration {
	return time.Duration(c.Server.WebhookDebounceSeconds) * time.Second
}

// IsOverridePlatform reports whether slug is the platform the topic override applies to.
func (c *Config) IsOverridePlatform(slug string) bool {
	return c.Forum.TopicIDOverride != 0 && strings.EqualFold(c.Forum.OverridePlatform, slug)
}
