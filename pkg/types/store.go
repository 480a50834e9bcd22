package types

import (
	"context"
	"errors"
	"time"
)

// Store is the local persistence handle. Callers construct it, attach it to a
// data directory, pass it explicitly to the flows that need it, and detach it
// when done.
type Store interface {
	// Attach opens the backend described by config. Creates the DataDir if
	// it does not exist. Returns ErrAlreadyAttached if already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach, table
	// accessors return ErrStoreDetached and live queries are closed.
	Detach() error

	Users() (UserTable, error)
	LandHoldings() (LandHoldingTable, error)
	Crops() (CropTable, error)
	Preferences() (PreferencesTable, error)

	// Export writes every table to <table>.jsonl under dir.
	Export(ctx context.Context, dir string) error
	// Import loads the files Export writes, replacing rows with the same
	// key, and returns the rows imported per table.
	Import(ctx context.Context, dir string) (map[string]int, error)
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// UserTable persists UserProfile rows.
type UserTable interface {
	// Insert writes the profile, replacing any row with the same ID.
	Insert(ctx context.Context, p *UserProfile) error
	// Update rewrites an existing profile. Returns ErrNotFound if missing.
	Update(ctx context.Context, p *UserProfile) error
	Delete(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (*UserProfile, error)
	// Onboarded returns the first profile with the onboarding flag set.
	Onboarded(ctx context.Context) (*UserProfile, error)
	MarkOnboardingComplete(ctx context.Context, id int) error
	UpdateLastActive(ctx context.Context, id int, at time.Time) error
	Count(ctx context.Context) (int, error)
	// WatchAll streams every profile ordered by last activity, newest first.
	WatchAll(ctx context.Context) <-chan []UserProfile
}

// LandHoldingTable persists LandHolding rows.
type LandHoldingTable interface {
	// Insert writes the holding, replacing any row with the same ID. An
	// empty ID is filled with a generated UUID v7.
	Insert(ctx context.Context, l *LandHolding) error
	Update(ctx context.Context, l *LandHolding) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*LandHolding, error)
	UpdateCurrentCrop(ctx context.Context, id string, crop *string) error
	UpdateArea(ctx context.Context, id string, area float64) error
	TotalArea(ctx context.Context, userID string) (float64, error)
	WatchByUser(ctx context.Context, userID string) <-chan []LandHolding
	WatchByCrop(ctx context.Context, userID, crop string) <-chan []LandHolding
	WatchBySoilType(ctx context.Context, userID, soilType string) <-chan []LandHolding
}

// CropTable persists Crop rows.
type CropTable interface {
	Insert(ctx context.Context, c *Crop) error
	Update(ctx context.Context, c *Crop) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Crop, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateHarvestDate(ctx context.Context, id string, at *time.Time) error
	ActiveCount(ctx context.Context, userID string) (int, error)
	TotalActiveArea(ctx context.Context, userID string) (float64, error)
	WatchByUser(ctx context.Context, userID string) <-chan []Crop
	WatchByStatus(ctx context.Context, userID, status string) <-chan []Crop
	WatchByName(ctx context.Context, userID, name string) <-chan []Crop
	WatchBySeason(ctx context.Context, userID, season string) <-chan []Crop
	WatchDistinctNames(ctx context.Context, userID string) <-chan []string
}

// PreferencesTable persists UserPreferences rows.
type PreferencesTable interface {
	Get(ctx context.Context, userID string) (*UserPreferences, error)
	// Upsert replaces the whole row.
	Upsert(ctx context.Context, p *UserPreferences) error
	Update(ctx context.Context, p *UserPreferences) error
	Delete(ctx context.Context, userID string) error
	// SetToggle changes a single boolean field and leaves every other
	// field untouched.
	SetToggle(ctx context.Context, userID string, field PreferenceField, enabled bool) error
	SetCacheSize(ctx context.Context, userID string, size int) error
}
