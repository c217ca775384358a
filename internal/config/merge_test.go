package config

import (
	"testing"

	"github.com/drewdunne/updatesbot/internal/platform"
)

func TestMergePlatformConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Platforms = map[string]PlatformConfig{
		"desktop": {Repo: "example/Desktop-Fork"},
		"server":  {Host: "gitlab", Repo: "example/server"},
	}

	tests := []struct {
		platform platform.Platform
		host     string
		repo     string
	}{
		{platform.Android, "github", "signalapp/Signal-Android"},
		{platform.Desktop, "github", "example/Desktop-Fork"},
		{platform.Server, "gitlab", "example/server"},
	}
	for _, tt := range tests {
		merged := cfg.MergePlatformConfig(tt.platform)
		if merged.Host != tt.host {
			t.Errorf("%s Host = %q, want %q", tt.platform, merged.Host, tt.host)
		}
		if merged.Repo != tt.repo {
			t.Errorf("%s Repo = %q, want %q", tt.platform, merged.Repo, tt.repo)
		}
	}
}

func TestEnabledPlatforms(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bot.EnabledPlatforms = "da"

	got, err := cfg.EnabledPlatforms()
	if err != nil {
		t.Fatalf("EnabledPlatforms() error = %v", err)
	}
	if len(got) != 2 || got[0] != platform.Desktop || got[1] != platform.Android {
		t.Errorf("EnabledPlatforms() = %v, want [Desktop Android]", got)
	}

	cfg.Bot.EnabledPlatforms = ""
	if _, err := cfg.EnabledPlatforms(); err == nil {
		t.Error("EnabledPlatforms() expected error for empty value, got nil")
	}
}

func TestWatchesRepo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bot.EnabledPlatforms = "as"
	cfg.Platforms = map[string]PlatformConfig{
		"server": {Host: "gitlab", Repo: "example/server"},
	}

	tests := []struct {
		host, repo string
		want       bool
	}{
		{"github", "signalapp/Signal-Android", true},
		{"github", "SignalApp/signal-android", true},
		{"gitlab", "example/server", true},
		{"github", "example/server", false},
		// Desktop is not enabled.
		{"github", "signalapp/Signal-Desktop", false},
		{"github", "someone/else", false},
	}
	for _, tt := range tests {
		if got := cfg.WatchesRepo(tt.host, tt.repo); got != tt.want {
			t.Errorf("WatchesRepo(%q, %q) = %v, want %v", tt.host, tt.repo, got, tt.want)
		}
	}

	cfg.Bot.EnabledPlatforms = "x"
	if cfg.WatchesRepo("github", "signalapp/Signal-Android") {
		t.Error("WatchesRepo() = true with invalid enabled platforms, want false")
	}
}
