package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/krishi/pkg/types"
)

func usersTableFor(t *testing.T) types.UserTable {
	t.Helper()
	users, err := setupBackend(t).Users()
	require.NoError(t, err)
	return users
}

func TestUsers_RoundTrip(t *testing.T) {
	ctx := context.Background()
	users := usersTableFor(t)

	created := time.Date(2025, 6, 1, 9, 30, 15, 123456789, time.UTC)
	tests := []struct {
		name    string
		profile types.UserProfile
	}{
		{
			name: "explicit timestamps",
			profile: types.UserProfile{
				ID: types.ProfileID, Name: "Sita", Age: 38, LandArea: 4.25,
				Latitude: 26.8467, Longitude: 80.9462, PreferredLanguage: "Hindi",
				OnboardingComplete: true, CreatedAt: created, LastActive: created.Add(time.Hour),
			},
		},
		{
			name: "default timestamps",
			profile: types.UserProfile{
				ID: 2, Name: "Arjun", Age: 51, LandArea: 1,
				PreferredLanguage: "Telugu",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.profile
			require.NoError(t, users.Insert(ctx, &p))
			assert.False(t, p.CreatedAt.IsZero())
			assert.False(t, p.LastActive.IsZero())

			got, err := users.Get(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, p, *got)
		})
	}
}

func TestUsers_InsertReplaces(t *testing.T) {
	ctx := context.Background()
	users := usersTableFor(t)

	require.NoError(t, users.Insert(ctx, &types.UserProfile{ID: types.ProfileID, Name: "First"}))
	require.NoError(t, users.Insert(ctx, &types.UserProfile{ID: types.ProfileID, Name: "Second"}))

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := users.Get(ctx, types.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Name)
}

func TestUsers_NotFound(t *testing.T) {
	ctx := context.Background()
	users := usersTableFor(t)

	_, err := users.Get(ctx, 42)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = users.Onboarded(ctx)
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.ErrorIs(t, users.Update(ctx, &types.UserProfile{ID: 42}), types.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, 42), types.ErrNotFound)
	assert.ErrorIs(t, users.MarkOnboardingComplete(ctx, 42), types.ErrNotFound)
	assert.ErrorIs(t, users.UpdateLastActive(ctx, 42, time.Now()), types.ErrNotFound)
}

func TestUsers_OnboardingFlag(t *testing.T) {
	ctx := context.Background()
	users := usersTableFor(t)

	require.NoError(t, users.Insert(ctx, &types.UserProfile{ID: types.ProfileID, Name: "Kiran"}))
	_, err := users.Onboarded(ctx)
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, users.MarkOnboardingComplete(ctx, types.ProfileID))
	got, err := users.Onboarded(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Kiran", got.Name)
	assert.True(t, got.OnboardingComplete)
}

func TestUsers_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	users := usersTableFor(t)

	p := &types.UserProfile{ID: types.ProfileID, Name: "Meena", Age: 29}
	require.NoError(t, users.Insert(ctx, p))

	p.Age = 30
	p.LandArea = 6.5
	require.NoError(t, users.Update(ctx, p))

	seen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, users.UpdateLastActive(ctx, p.ID, seen))

	got, err := users.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Age)
	assert.Equal(t, 6.5, got.LandArea)
	assert.Equal(t, seen, got.LastActive)

	require.NoError(t, users.Delete(ctx, p.ID))
	_, err = users.Get(ctx, p.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUsers_InsertNil(t *testing.T) {
	users := usersTableFor(t)
	assert.ErrorIs(t, users.Insert(context.Background(), nil), types.ErrInvalidData)
}
