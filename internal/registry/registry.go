package registry

import (
	"fmt"
	"sort"

	"github.com/drewdunne/updatesbot/internal/config"
	"github.com/drewdunne/updatesbot/internal/platform"
	"github.com/drewdunne/updatesbot/internal/provider"
	"github.com/drewdunne/updatesbot/internal/provider/github"
	"github.com/drewdunne/updatesbot/internal/provider/gitlab"
)

// Source is where a platform's tags and commits are read from.
type Source struct {
	Host provider.Host
	Repo provider.Repo
}

// Registry manages host instances and resolves platform sources.
type Registry struct {
	cfg       *config.Config
	providers map[string]provider.Host
}

// New creates a new host registry from config. GitHub is always available
// since public repositories can be read anonymously; GitLab needs a token
// or a base URL.
func New(cfg *config.Config) *Registry {
	r := &Registry{
		cfg:       cfg,
		providers: make(map[string]provider.Host),
	}

	var ghOpts []github.Option
	if cfg.Source.GitHub.BaseURL != "" {
		ghOpts = append(ghOpts, github.WithBaseURL(cfg.Source.GitHub.BaseURL))
	}
	if cfg.Source.GitHub.WebURL != "" {
		ghOpts = append(ghOpts, github.WithWebURL(cfg.Source.GitHub.WebURL))
	}
	r.providers["github"] = github.New(cfg.Source.GitHub.Token, ghOpts...)

	if cfg.Source.GitLab.Token != "" || cfg.Source.GitLab.BaseURL != "" {
		var glOpts []gitlab.Option
		if cfg.Source.GitLab.BaseURL != "" {
			glOpts = append(glOpts, gitlab.WithBaseURL(cfg.Source.GitLab.BaseURL))
		}
		r.providers["gitlab"] = gitlab.New(cfg.Source.GitLab.Token, glOpts...)
	}

	return r
}

// Register adds or replaces a host under name.
func (r *Registry) Register(name string, host provider.Host) {
	r.providers[name] = host
}

// Get returns the host for the given name, or nil if not configured.
func (r *Registry) Get(name string) provider.Host {
	return r.providers[name]
}

// List returns all configured host names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source resolves the host and repository configured for a platform.
func (r *Registry) Source(p platform.Platform) (Source, error) {
	merged := r.cfg.MergePlatformConfig(p)

	host := r.Get(merged.Host)
	if host == nil {
		return Source{}, fmt.Errorf("%s: host %q is not configured", p, merged.Host)
	}
	repo, err := provider.ParseRepo(merged.Repo)
	if err != nil {
		return Source{}, fmt.Errorf("%s: %w", p, err)
	}
	return Source{Host: host, Repo: repo}, nil
}
