// Package onboarding turns the first-run form into the single stored
// farmer profile and answers whether onboarding has happened.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/krishi/internal/logging"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

// DefaultLocation is used when the form carries no coordinates and none
// are required (New Delhi).
var DefaultLocation = types.Location{Latitude: 28.6139, Longitude: 77.2090}

// Form is the raw onboarding input. Age and LandArea are kept as typed text.
type Form struct {
	Name            string
	Age             string
	LandArea        string
	Language        string
	Location        *types.Location
	RequireLocation bool
}

// Validate reports the first empty required field as ErrMissingField.
func (f Form) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"name", f.Name},
		{"age", f.Age},
		{"land area", f.LandArea},
		{"language", f.Language},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s", types.ErrMissingField, r.name)
		}
	}
	if f.RequireLocation && f.Location == nil {
		return fmt.Errorf("%w: location", types.ErrMissingField)
	}
	return nil
}

// Profile builds the profile Submit stores. Age and area that do not parse
// become zero.
func (f Form) Profile(now time.Time) types.UserProfile {
	loc := DefaultLocation
	if f.Location != nil {
		loc = *f.Location
	}
	return types.UserProfile{
		ID:                 types.ProfileID,
		Name:               strings.TrimSpace(f.Name),
		Age:                parseInt(f.Age),
		LandArea:           parseFloat(f.LandArea),
		Latitude:           loc.Latitude,
		Longitude:          loc.Longitude,
		PreferredLanguage:  canonicalLanguage(f.Language),
		OnboardingComplete: true,
		CreatedAt:          now,
		LastActive:         now,
	}
}

// Service runs onboarding against a store.
type Service struct {
	store types.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewService returns a Service over an attached store.
func NewService(store types.Store) *Service {
	return &Service{
		store: store,
		log:   logging.For("onboarding"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates f and writes the profile with id 1, replacing any prior
// row. Default preferences are created for the profile if it has none; a
// failure there is logged and does not fail onboarding.
func (s *Service) Submit(ctx context.Context, f Form) (*types.UserProfile, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	users, err := s.store.Users()
	if err != nil {
		return nil, err
	}

	p := f.Profile(s.now())
	if err := users.Insert(ctx, &p); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	s.log.Debug().Int("id", p.ID).Str("language", p.PreferredLanguage).Msg("profile saved")

	s.ensurePreferences(ctx, strconv.Itoa(p.ID))
	return &p, nil
}

func (s *Service) ensurePreferences(ctx context.Context, userID string) {
	prefs, err := s.store.Preferences()
	if err == nil {
		_, err = prefs.Get(ctx, userID)
		if errors.Is(err, types.ErrNotFound) {
			err = prefs.Upsert(ctx, types.DefaultPreferences(userID))
		}
	}
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("could not create default preferences")
	}
}

// IsOnboarded reports whether an onboarded profile exists. Any storage
// error is logged and reported as not onboarded.
func (s *Service) IsOnboarded(ctx context.Context) bool {
	_, err := s.Profile(ctx)
	if err != nil && !errors.Is(err, types.ErrNotOnboarded) {
		s.log.Warn().Err(err).Msg("onboarding check failed")
	}
	return err == nil
}

// Profile returns the onboarded profile, or ErrNotOnboarded.
func (s *Service) Profile(ctx context.Context) (*types.UserProfile, error) {
	users, err := s.store.Users()
	if err != nil {
		return nil, err
	}
	p, err := users.Onboarded(ctx)
	if errors.Is(err, types.ErrNotFound) {
		return nil, types.ErrNotOnboarded
	}
	return p, err
}

// Edit lists profile changes; nil fields are left alone.
type Edit struct {
	Name     *string
	Age      *int
	LandArea *float64
	Language *string
	Location *types.Location
}

// UpdateProfile applies e to the onboarded profile and bumps LastActive.
func (s *Service) UpdateProfile(ctx context.Context, e Edit) (*types.UserProfile, error) {
	p, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if e.Name != nil {
		if strings.TrimSpace(*e.Name) == "" {
			return nil, fmt.Errorf("%w: name", types.ErrMissingField)
		}
		p.Name = strings.TrimSpace(*e.Name)
	}
	if e.Age != nil {
		p.Age = *e.Age
	}
	if e.LandArea != nil {
		p.LandArea = *e.LandArea
	}
	if e.Language != nil {
		if strings.TrimSpace(*e.Language) == "" {
			return nil, fmt.Errorf("%w: language", types.ErrMissingField)
		}
		p.PreferredLanguage = canonicalLanguage(*e.Language)
	}
	if e.Location != nil {
		p.Latitude, p.Longitude = e.Location.Latitude, e.Location.Longitude
	}
	p.LastActive = s.now()

	users, err := s.store.Users()
	if err != nil {
		return nil, err
	}
	if err := users.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return p, nil
}

// Touch records activity on the onboarded profile. Errors are logged only.
func (s *Service) Touch(ctx context.Context) {
	users, err := s.store.Users()
	if err == nil {
		err = users.UpdateLastActive(ctx, types.ProfileID, s.now())
	}
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		s.log.Warn().Err(err).Msg("could not update last active")
	}
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// canonicalLanguage maps a known language name or code to its display
// name and keeps anything else as typed.
func canonicalLanguage(s string) string {
	s = strings.TrimSpace(s)
	if l, ok := types.LookupLanguage(s); ok {
		return l.Name
	}
	return s
}
