package config

import (
	"fmt"
	"strings"

	"github.com/drewdunne/updatesbot/internal/platform"
)

// MergedPlatformConfig is a platform's effective source settings.
type MergedPlatformConfig struct {
	Platform platform.Platform
	Host     string
	Repo     string
}

// MergePlatformConfig merges a platform's overrides with its defaults.
// Override values take precedence when non-empty.
func (c *Config) MergePlatformConfig(p platform.Platform) MergedPlatformConfig {
	override := c.Platforms[p.Slug()]
	return MergedPlatformConfig{
		Platform: p,
		Host:     coalesce(override.Host, "github"),
		Repo:     coalesce(override.Repo, p.DefaultRepo()),
	}
}

// EnabledPlatforms parses Bot.EnabledPlatforms ("aids" letters).
func (c *Config) EnabledPlatforms() ([]platform.Platform, error) {
	platforms, err := platform.ParseLetters(c.Bot.EnabledPlatforms)
	if err != nil {
		return nil, fmt.Errorf("parsing enabled platforms: %w", err)
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("parsing enabled platforms: none enabled")
	}
	return platforms, nil
}

// WatchesRepo reports whether an enabled platform reads its releases from
// repo on host.
func (c *Config) WatchesRepo(host, repo string) bool {
	platforms, err := c.EnabledPlatforms()
	if err != nil {
		return false
	}
	for _, p := range platforms {
		merged := c.MergePlatformConfig(p)
		if merged.Host == host && strings.EqualFold(merged.Repo, repo) {
			return true
		}
	}
	return false
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
