package post

import (
	"fmt"
	"regexp"
	"strconv"
)

// BuildConfigPath is the Android build script that defines version codes.
const BuildConfigPath = "app/build.gradle.kts"

var (
	canonicalVersionCodePattern = regexp.MustCompile(`val\s+canonicalVersionCode\s*=\s*(\d+)`)
	currentHotfixVersionPattern = regexp.MustCompile(`val\s+currentHotfixVersion\s*=\s*(\d+)`)
	maxHotfixVersionsPattern    = regexp.MustCompile(`val\s+maxHotfixVersions\s*=\s*(\d+)`)
)

// BuildConfig holds the version code inputs of an Android build script.
type BuildConfig struct {
	CanonicalVersionCode uint64
	CurrentHotfixVersion uint64
	MaxHotfixVersions    uint64
}

// ParseBuildConfig extracts version codes from a build.gradle.kts file.
func ParseBuildConfig(text string) (BuildConfig, error) {
	var cfg BuildConfig
	fields := []struct {
		name    string
		pattern *regexp.Regexp
		dst     *uint64
	}{
		{"canonicalVersionCode", canonicalVersionCodePattern, &cfg.CanonicalVersionCode},
		{"currentHotfixVersion", currentHotfixVersionPattern, &cfg.CurrentHotfixVersion},
		{"maxHotfixVersions", maxHotfixVersionsPattern, &cfg.MaxHotfixVersions},
	}
	for _, f := range fields {
		m := f.pattern.FindStringSubmatch(text)
		if m == nil {
			return BuildConfig{}, fmt.Errorf("build config: %s not found", f.name)
		}
		v, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return BuildConfig{}, fmt.Errorf("build config: parsing %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return cfg, nil
}

// BuildNumber returns the version code of the build.
func (c BuildConfig) BuildNumber() uint64 {
	return c.CanonicalVersionCode*c.MaxHotfixVersions + c.CurrentHotfixVersion
}
