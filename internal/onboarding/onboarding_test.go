package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/krishi/internal/logging"
	"github.com/mesh-intelligence/krishi/internal/sqlite"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

var fixedNow = time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (*Service, types.Store) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	s := NewService(b)
	s.log = logging.Nop()
	s.now = func() time.Time { return fixedNow }
	return s, b
}

func validForm() Form {
	return Form{Name: " Ravi Kumar ", Age: "42", LandArea: "2.5", Language: "hindi"}
}

func TestForm_Validate(t *testing.T) {
	loc := &types.Location{Latitude: 1, Longitude: 2}
	tests := []struct {
		name    string
		mutate  func(*Form)
		missing string
	}{
		{name: "complete", mutate: func(*Form) {}},
		{name: "blank name", mutate: func(f *Form) { f.Name = "  " }, missing: "name"},
		{name: "no age", mutate: func(f *Form) { f.Age = "" }, missing: "age"},
		{name: "no land area", mutate: func(f *Form) { f.LandArea = "" }, missing: "land area"},
		{name: "no language", mutate: func(f *Form) { f.Language = "" }, missing: "language"},
		{name: "location required", mutate: func(f *Form) { f.RequireLocation = true }, missing: "location"},
		{name: "location supplied", mutate: func(f *Form) { f.RequireLocation = true; f.Location = loc }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)
			err := f.Validate()
			if tt.missing == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, types.ErrMissingField)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestForm_Profile(t *testing.T) {
	t.Run("parses numbers and defaults location", func(t *testing.T) {
		p := validForm().Profile(fixedNow)
		assert.Equal(t, types.ProfileID, p.ID)
		assert.Equal(t, "Ravi Kumar", p.Name)
		assert.Equal(t, 42, p.Age)
		assert.Equal(t, 2.5, p.LandArea)
		assert.Equal(t, DefaultLocation, p.Location())
		assert.Equal(t, "Hindi", p.PreferredLanguage)
		assert.True(t, p.OnboardingComplete)
		assert.Equal(t, fixedNow, p.CreatedAt)
	})

	t.Run("unparseable numbers become zero", func(t *testing.T) {
		f := validForm()
		f.Age = "forty"
		f.LandArea = "two acres"
		f.Language = "Bhojpuri"
		p := f.Profile(fixedNow)
		assert.Zero(t, p.Age)
		assert.Zero(t, p.LandArea)
		assert.Equal(t, "Bhojpuri", p.PreferredLanguage)
	})

	t.Run("captured location kept", func(t *testing.T) {
		f := validForm()
		f.Location = &types.Location{Latitude: 30.9, Longitude: 75.85}
		p := f.Profile(fixedNow)
		assert.Equal(t, *f.Location, p.Location())
	})
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	s, store := setupService(t)

	assert.False(t, s.IsOnboarded(ctx))
	_, err := s.Profile(ctx)
	assert.ErrorIs(t, err, types.ErrNotOnboarded)

	p, err := s.Submit(ctx, validForm())
	require.NoError(t, err)
	assert.True(t, s.IsOnboarded(ctx))

	got, err := s.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	prefs, err := store.Preferences()
	require.NoError(t, err)
	pr, err := prefs.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPreferences("1"), pr)
}

func TestService_SubmitOverwrites(t *testing.T) {
	ctx := context.Background()
	s, store := setupService(t)

	_, err := s.Submit(ctx, validForm())
	require.NoError(t, err)

	second := validForm()
	second.Name = "Sunita"
	_, err = s.Submit(ctx, second)
	require.NoError(t, err)

	users, err := store.Users()
	require.NoError(t, err)
	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sunita", got.Name)
}

func TestService_SubmitInvalid(t *testing.T) {
	s, _ := setupService(t)
	f := validForm()
	f.Name = ""
	_, err := s.Submit(context.Background(), f)
	assert.ErrorIs(t, err, types.ErrMissingField)
	assert.False(t, s.IsOnboarded(context.Background()))
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	s, _ := setupService(t)

	_, err := s.UpdateProfile(ctx, Edit{})
	assert.ErrorIs(t, err, types.ErrNotOnboarded)

	_, err = s.Submit(ctx, validForm())
	require.NoError(t, err)

	later := fixedNow.Add(48 * time.Hour)
	s.now = func() time.Time { return later }

	age, area, lang := 43, 3.75, "ta"
	p, err := s.UpdateProfile(ctx, Edit{Age: &age, LandArea: &area, Language: &lang})
	require.NoError(t, err)
	assert.Equal(t, 43, p.Age)
	assert.Equal(t, 3.75, p.LandArea)
	assert.Equal(t, "Tamil", p.PreferredLanguage)
	assert.Equal(t, "Ravi Kumar", p.Name)
	assert.Equal(t, later, p.LastActive)
	assert.Equal(t, fixedNow, p.CreatedAt)

	blank := " "
	_, err = s.UpdateProfile(ctx, Edit{Name: &blank})
	assert.ErrorIs(t, err, types.ErrMissingField)
}

// brokenStore fails every table lookup.
type brokenStore struct{ types.Store }

func (brokenStore) Users() (types.UserTable, error) { return nil, errors.New("disk on fire") }

func TestService_IsOnboardedSwallowsErrors(t *testing.T) {
	s := NewService(brokenStore{})
	s.log = logging.Nop()
	assert.False(t, s.IsOnboarded(context.Background()))

	detached := sqlite.NewBackend()
	s = NewService(detached)
	s.log = logging.Nop()
	assert.False(t, s.IsOnboarded(context.Background()))
}
