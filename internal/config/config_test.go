package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_ValidFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
forum:
  base_url: "https://forum.example.org"
  api_key: "key"
  server_topic_id: 12345

state:
  backend: sqlite
  path: "/var/lib/updatesbot/state.db"

logging:
  dir: "/var/log/updatesbot"
  retention_days: 14

bot:
  enabled_platforms: "ad"

platforms:
  desktop:
    repo: "signalapp/Signal-Desktop"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Forum.BaseURL != "https://forum.example.org" {
		t.Errorf("Forum.BaseURL = %q, want %q", cfg.Forum.BaseURL, "https://forum.example.org")
	}
	if cfg.Forum.ServerTopicID != 12345 {
		t.Errorf("Forum.ServerTopicID = %d, want %d", cfg.Forum.ServerTopicID, 12345)
	}
	if cfg.State.Backend != "sqlite" {
		t.Errorf("State.Backend = %q, want %q", cfg.State.Backend, "sqlite")
	}
	if cfg.Logging.RetentionDays != 14 {
		t.Errorf("Logging.RetentionDays = %d, want %d", cfg.Logging.RetentionDays, 14)
	}
	// Defaults survive where the file is silent.
	if cfg.State.Key != "state" {
		t.Errorf("State.Key = %q, want %q", cfg.State.Key, "state")
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 7000)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for nonexistent file, got nil")
	}
}

func TestLoadConfig_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DISCOURSE_KEY", "secret-key")
	t.Setenv("TEST_GITHUB_TOKEN", "ghp_token")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
source:
  github:
    token: "${TEST_GITHUB_TOKEN}"
forum:
  api_key: "${TEST_DISCOURSE_KEY}"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Forum.APIKey != "secret-key" {
		t.Errorf("Forum.APIKey = %q, want %q", cfg.Forum.APIKey, "secret-key")
	}
	if cfg.Source.GitHub.Token != "ghp_token" {
		t.Errorf("Source.GitHub.Token = %q, want %q", cfg.Source.GitHub.Token, "ghp_token")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("forum: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DRY_RUN":           "true",
		"ENABLED_PLATFORMS": "s",
		"TOPIC_ID_OVERRIDE": "42",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if !cfg.Bot.DryRun {
		t.Error("Bot.DryRun = false, want true")
	}
	if cfg.Bot.EnabledPlatforms != "s" {
		t.Errorf("Bot.EnabledPlatforms = %q, want %q", cfg.Bot.EnabledPlatforms, "s")
	}
	if cfg.Forum.TopicIDOverride != 42 {
		t.Errorf("Forum.TopicIDOverride = %d, want %d", cfg.Forum.TopicIDOverride, 42)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "TOPIC_ID_OVERRIDE" {
			return "not-a-number", true
		}
		return "", false
	}
	if err := DefaultConfig().ApplyEnv(lookup); err == nil {
		t.Error("ApplyEnv() expected error, got nil")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.State.Backend = "postgres"
	cfg.Bot.EnabledPlatforms = "x"
	cfg.Forum.TopicIDOverride = 7

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	for _, want := range []string{"api_key", "state.dsn", "enabled platforms", "override_platform"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %q, want it to mention %q", err, want)
		}
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.PostingDelay() != 3*time.Second {
		t.Errorf("PostingDelay() = %v, want %v", cfg.PostingDelay(), 3*time.Second)
	}
	if cfg.Interval() != 10*time.Minute {
		t.Errorf("Interval() = %v, want %v", cfg.Interval(), 10*time.Minute)
	}
	if cfg.WebhookDebounce() != time.Minute {
		t.Errorf("WebhookDebounce() = %v, want %v", cfg.WebhookDebounce(), time.Minute)
	}
}

func TestIsOverridePlatform(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Forum.OverridePlatform = "Android"
	if cfg.IsOverridePlatform("android") {
		t.Error("IsOverridePlatform() = true without an override topic")
	}
	cfg.Forum.TopicIDOverride = 99
	if !cfg.IsOverridePlatform("android") {
		t.Error("IsOverridePlatform(android) = false, want true")
	}
	if cfg.IsOverridePlatform("ios") {
		t.Error("IsOverridePlatform(ios) = true, want false")
	}
}
