// Package state persists what has been announced for each platform.
package state

import (
	"errors"
	"fmt"
	"slices"

	"github.com/drewdunne/updatesbot/internal/platform"
	"github.com/drewdunne/updatesbot/internal/release"
)

var (
	// ErrNoState is returned when the store holds no state blob. Initial
	// state must be seeded before the bot can run.
	ErrNoState = errors.New("no state stored")
	// ErrInvalidState is returned when persisted or proposed state breaks an
	// invariant.
	ErrInvalidState = errors.New("invalid state")
)

// PostInfo identifies a forum post.
type PostInfo struct {
	ID     uint64 `json:"id"`
	Number uint64 `json:"number"`
}

// PlatformState is what has been announced for one platform.
type PlatformState struct {
	LastPostedTag                   string         `json:"last_posted_tag"`
	LastPostedTagPreviousRelease    string         `json:"last_posted_tag_previous_release"`
	LastPost                        *PostInfo      `json:"last_post,omitempty"`
	PostedArchivingMessage          bool           `json:"posted_archiving_message"`
	LocalizationChangeCodes         []string       `json:"localization_change_codes"`
	LocalizationChangeCodesComplete bool           `json:"localization_change_codes_complete"`
	Pending                         *PlatformState `json:"pending,omitempty"`
}

// Tags parses the two persisted tags.
func (s PlatformState) Tags() (last, previousRelease release.Tag, err error) {
	last, err = release.NewTag(s.LastPostedTag)
	if err != nil {
		return release.Tag{}, release.Tag{}, fmt.Errorf("%w: last posted tag: %v", ErrInvalidState, err)
	}
	previousRelease, err = release.NewTag(s.LastPostedTagPreviousRelease)
	if err != nil {
		return release.Tag{}, release.Tag{}, fmt.Errorf("%w: last posted tag of previous release: %v", ErrInvalidState, err)
	}
	return last, previousRelease, nil
}

// Validate checks that the previous release's tag is older than the last
// posted tag, here and in any pending state.
func (s PlatformState) Validate() error {
	last, prev, err := s.Tags()
	if err != nil {
		return err
	}
	if !prev.Version.Less(last.Version) {
		return fmt.Errorf("%w: previous release tag %s is not older than last posted tag %s",
			ErrInvalidState, prev.Name, last.Name)
	}
	if s.Pending != nil {
		if err := s.Pending.Validate(); err != nil {
			return fmt.Errorf("pending: %w", err)
		}
	}
	return nil
}

// Equal reports structural equality. Nil and empty code lists are equal.
func (s PlatformState) Equal(o PlatformState) bool {
	if s.LastPostedTag != o.LastPostedTag ||
		s.LastPostedTagPreviousRelease != o.LastPostedTagPreviousRelease ||
		s.PostedArchivingMessage != o.PostedArchivingMessage ||
		s.LocalizationChangeCodesComplete != o.LocalizationChangeCodesComplete ||
		!slices.Equal(s.LocalizationChangeCodes, o.LocalizationChangeCodes) {
		return false
	}
	switch {
	case (s.LastPost == nil) != (o.LastPost == nil):
		return false
	case s.LastPost != nil && *s.LastPost != *o.LastPost:
		return false
	}
	switch {
	case (s.Pending == nil) != (o.Pending == nil):
		return false
	case s.Pending != nil:
		return s.Pending.Equal(*o.Pending)
	}
	return true
}

// State is the persisted blob: one PlatformState per platform, keyed by
// platform slug in JSON.
type State map[platform.Platform]PlatformState

// Validate checks every platform state and that each required platform has one.
func (s State) Validate(required []platform.Platform) error {
	for _, p := range required {
		if _, ok := s[p]; !ok {
			return fmt.Errorf("%w: no state for %s", ErrInvalidState, p)
		}
	}
	for p, ps := range s {
		if err := ps.Validate(); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s State) clone() State {
	c := make(State, len(s))
	for p, ps := range s {
		c[p] = ps
	}
	return c
}
