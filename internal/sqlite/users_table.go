// This file implements the users table accessor.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/krishi/pkg/types"
)

var _ types.UserTable = (*usersTable)(nil)

const userColumns = `id, name, age, land_area, latitude, longitude, preferred_language,
    is_onboarding_complete, created_at, last_active`

type usersTable struct {
	backend *Backend
}

// Insert writes p, replacing any existing row with the same ID. Zero
// timestamps default to now and are written back to p.
func (ut *usersTable) Insert(ctx context.Context, p *types.UserProfile) error {
	if p == nil {
		return types.ErrInvalidData
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.LastActive.IsZero() {
		p.LastActive = now
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.LastActive = p.LastActive.UTC()

	return ut.backend.write(types.TableUsers, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Age, p.LandArea, p.Latitude, p.Longitude, p.PreferredLanguage,
			boolInt(p.OnboardingComplete), formatTime(p.CreatedAt), formatTime(p.LastActive),
		)
		if err != nil {
			return fmt.Errorf("inserting user %d: %w", p.ID, err)
		}
		return nil
	})
}

// Update rewrites every column of an existing profile.
// Returns ErrNotFound if no row has p.ID.
func (ut *usersTable) Update(ctx context.Context, p *types.UserProfile) error {
	if p == nil {
		return types.ErrInvalidData
	}
	return ut.backend.write(types.TableUsers, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`UPDATE users SET name = ?, age = ?, land_area = ?, latitude = ?, longitude = ?,
			preferred_language = ?, is_onboarding_complete = ?, created_at = ?, last_active = ?
			WHERE id = ?`,
			p.Name, p.Age, p.LandArea, p.Latitude, p.Longitude, p.PreferredLanguage,
			boolInt(p.OnboardingComplete), formatTime(p.CreatedAt), formatTime(p.LastActive), p.ID,
		)
		if err != nil {
			return fmt.Errorf("updating user %d: %w", p.ID, err)
		}
		return requireAffected(res)
	})
}

// Delete removes the profile with the given ID.
// Returns ErrNotFound if no row has that ID.
func (ut *usersTable) Delete(ctx context.Context, id int) error {
	return ut.backend.write(types.TableUsers, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting user %d: %w", id, err)
		}
		return requireAffected(res)
	})
}

// Get is a one-shot lookup by ID.
func (ut *usersTable) Get(ctx context.Context, id int) (*types.UserProfile, error) {
	var p types.UserProfile
	err := ut.backend.read(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
		var err error
		p, err = scanUser(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Onboarded returns the first profile whose onboarding is complete.
func (ut *usersTable) Onboarded(ctx context.Context) (*types.UserProfile, error) {
	var p types.UserProfile
	err := ut.backend.read(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE is_onboarding_complete = 1 LIMIT 1`)
		var err error
		p, err = scanUser(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (ut *usersTable) MarkOnboardingComplete(ctx context.Context, id int) error {
	return ut.backend.write(types.TableUsers, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `UPDATE users SET is_onboarding_complete = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("marking user %d onboarded: %w", id, err)
		}
		return requireAffected(res)
	})
}

func (ut *usersTable) UpdateLastActive(ctx context.Context, id int, at time.Time) error {
	return ut.backend.write(types.TableUsers, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `UPDATE users SET last_active = ? WHERE id = ?`, formatTime(at), id)
		if err != nil {
			return fmt.Errorf("updating last_active for user %d: %w", id, err)
		}
		return requireAffected(res)
	})
}

func (ut *usersTable) Count(ctx context.Context) (int, error) {
	var n int
	err := ut.backend.read(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	})
	return n, err
}

// WatchAll streams all profiles, most recently active first.
func (ut *usersTable) WatchAll(ctx context.Context) <-chan []types.UserProfile {
	return watch(ctx, ut.backend, types.TableUsers, func(ctx context.Context) ([]types.UserProfile, error) {
		var out []types.UserProfile
		err := ut.backend.read(func(db *sql.DB) error {
			rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY last_active DESC`)
			if err != nil {
				return fmt.Errorf("querying users: %w", err)
			}
			out, err = collect(rows, scanUser)
			return err
		})
		return out, err
	})
}

func scanUser(row rowScanner) (types.UserProfile, error) {
	var p types.UserProfile
	var onboarded int
	var createdAt, lastActive string
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.LandArea, &p.Latitude, &p.Longitude,
		&p.PreferredLanguage, &onboarded, &createdAt, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return p, types.ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("scanning user: %w", err)
	}
	p.OnboardingComplete = onboarded == 1
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return p, err
	}
	if p.LastActive, err = parseTime(lastActive); err != nil {
		return p, err
	}
	return p, nil
}
