package state

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/drewdunne/updatesbot/internal/kv"
	"github.com/drewdunne/updatesbot/internal/platform"
)

// Controller holds the loaded state and writes it back on change.
type Controller struct {
	store  kv.Store
	key    string
	state  State
	dryRun bool
	logger *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithDryRun logs writes instead of performing them.
func WithDryRun(dryRun bool) Option {
	return func(c *Controller) {
		c.dryRun = dryRun
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// Load reads and validates the state blob stored under key. Every platform
// in required must have state.
func Load(ctx context.Context, store kv.Store, key string, required []platform.Platform, opts ...Option) (*Controller, error) {
	c := &Controller{store: store, key: key, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("key %q: %w", key, ErrNoState)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: decoding state: %v", ErrInvalidState, err)
	}
	if err := s.Validate(required); err != nil {
		return nil, err
	}
	c.state = s

	c.logger.Debug("loaded state", zap.String("key", key), zap.Int("platforms", len(s)))
	return c, nil
}

// Seed validates data as a state blob and stores it under key.
func Seed(ctx context.Context, store kv.Store, key string, data []byte) error {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: decoding state: %v", ErrInvalidState, err)
	}
	if err := s.Validate(nil); err != nil {
		return err
	}
	encoded, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := store.Set(ctx, key, encoded); err != nil {
		return fmt.Errorf("storing state: %w", err)
	}
	return nil
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state.clone()
}

// PlatformState returns the state of one platform.
func (c *Controller) PlatformState(p platform.Platform) (PlatformState, bool) {
	s, ok := c.state[p]
	return s, ok
}

// SetPlatformState replaces the state of one platform and writes the whole
// blob. Setting a value equal to the current one writes nothing. If the
// write fails the in-memory state keeps the new value.
func (c *Controller) SetPlatformState(ctx context.Context, p platform.Platform, s PlatformState) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}

	if current, ok := c.state[p]; ok && current.Equal(s) {
		c.logger.Info("state unchanged, not writing", zap.Stringer("platform", p))
		return nil
	}
	c.state[p] = s

	data, err := json.Marshal(c.state)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if c.dryRun {
		c.logger.Warn("dry run, not writing state", zap.Stringer("platform", p), zap.ByteString("state", data))
		return nil
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	c.logger.Info("wrote state", zap.Stringer("platform", p), zap.String("last_posted_tag", s.LastPostedTag))
	return nil
}
