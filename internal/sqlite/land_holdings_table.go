// This file implements the land_holdings table accessor.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/krishi/pkg/types"
)

var _ types.LandHoldingTable = (*landHoldingsTable)(nil)

const landHoldingColumns = `id, user_id, area, ownership_type, soil_type, irrigation_type,
    current_crop, location, latitude, longitude`

type landHoldingsTable struct {
	backend *Backend
}

// Insert writes l, replacing any row with the same ID. An empty ID is
// assigned a UUID v7, written back to l.
func (lt *landHoldingsTable) Insert(ctx context.Context, l *types.LandHolding) error {
	if l == nil {
		return types.ErrInvalidData
	}
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return lt.backend.write(types.TableLandHoldings, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO land_holdings (`+landHoldingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.UserID, l.Area, l.OwnershipType, l.SoilType, nullString(l.IrrigationType),
			nullString(l.CurrentCrop), l.Location, nullFloat(l.Latitude), nullFloat(l.Longitude),
		)
		if err != nil {
			return fmt.Errorf("inserting land holding %s: %w", l.ID, err)
		}
		return nil
	})
}

// Update rewrites an existing holding. Returns ErrNotFound if missing.
func (lt *landHoldingsTable) Update(ctx context.Context, l *types.LandHolding) error {
	if l == nil {
		return types.ErrInvalidData
	}
	if l.ID == "" {
		return types.ErrInvalidID
	}
	return lt.backend.write(types.TableLandHoldings, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`UPDATE land_holdings SET user_id = ?, area = ?, ownership_type = ?, soil_type = ?,
			irrigation_type = ?, current_crop = ?, location = ?, latitude = ?, longitude = ?
			WHERE id = ?`,
			l.UserID, l.Area, l.OwnershipType, l.SoilType, nullString(l.IrrigationType),
			nullString(l.CurrentCrop), l.Location, nullFloat(l.Latitude), nullFloat(l.Longitude), l.ID,
		)
		if err != nil {
			return fmt.Errorf("updating land holding %s: %w", l.ID, err)
		}
		return requireAffected(res)
	})
}

func (lt *landHoldingsTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return lt.backend.write(types.TableLandHoldings, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `DELETE FROM land_holdings WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting land holding %s: %w", id, err)
		}
		return requireAffected(res)
	})
}

func (lt *landHoldingsTable) Get(ctx context.Context, id string) (*types.LandHolding, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var l types.LandHolding
	err := lt.backend.read(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT `+landHoldingColumns+` FROM land_holdings WHERE id = ?`, id)
		var err error
		l, err = scanLandHolding(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateCurrentCrop sets or, with a nil crop, clears the current crop.
func (lt *landHoldingsTable) UpdateCurrentCrop(ctx context.Context, id string, crop *string) error {
	return lt.backend.write(types.TableLandHoldings, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `UPDATE land_holdings SET current_crop = ? WHERE id = ?`, nullString(crop), id)
		if err != nil {
			return fmt.Errorf("updating current crop for %s: %w", id, err)
		}
		return requireAffected(res)
	})
}

func (lt *landHoldingsTable) UpdateArea(ctx context.Context, id string, area float64) error {
	return lt.backend.write(types.TableLandHoldings, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `UPDATE land_holdings SET area = ? WHERE id = ?`, area, id)
		if err != nil {
			return fmt.Errorf("updating area for %s: %w", id, err)
		}
		return requireAffected(res)
	})
}

// TotalArea sums the area of every holding of userID; zero when none.
func (lt *landHoldingsTable) TotalArea(ctx context.Context, userID string) (float64, error) {
	var total sql.NullFloat64
	err := lt.backend.read(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT SUM(area) FROM land_holdings WHERE user_id = ?`, userID).Scan(&total)
	})
	if err != nil {
		return 0, fmt.Errorf("summing land area: %w", err)
	}
	return total.Float64, nil
}

func (lt *landHoldingsTable) WatchByUser(ctx context.Context, userID string) <-chan []types.LandHolding {
	return lt.watchWhere(ctx, `user_id = ?`, userID)
}

func (lt *landHoldingsTable) WatchByCrop(ctx context.Context, userID, crop string) <-chan []types.LandHolding {
	return lt.watchWhere(ctx, `user_id = ? AND current_crop = ?`, userID, crop)
}

func (lt *landHoldingsTable) WatchBySoilType(ctx context.Context, userID, soilType string) <-chan []types.LandHolding {
	return lt.watchWhere(ctx, `user_id = ? AND soil_type = ?`, userID, soilType)
}

func (lt *landHoldingsTable) watchWhere(ctx context.Context, where string, args ...any) <-chan []types.LandHolding {
	query := `SELECT ` + landHoldingColumns + ` FROM land_holdings WHERE ` + where + ` ORDER BY id`
	return watch(ctx, lt.backend, types.TableLandHoldings, func(ctx context.Context) ([]types.LandHolding, error) {
		var out []types.LandHolding
		err := lt.backend.read(func(db *sql.DB) error {
			rows, err := db.QueryContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("querying land holdings: %w", err)
			}
			out, err = collect(rows, scanLandHolding)
			return err
		})
		return out, err
	})
}

func scanLandHolding(row rowScanner) (types.LandHolding, error) {
	var l types.LandHolding
	var irrigation, crop sql.NullString
	var lat, lon sql.NullFloat64
	err := row.Scan(&l.ID, &l.UserID, &l.Area, &l.OwnershipType, &l.SoilType,
		&irrigation, &crop, &l.Location, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return l, types.ErrNotFound
	}
	if err != nil {
		return l, fmt.Errorf("scanning land holding: %w", err)
	}
	l.IrrigationType = stringPtr(irrigation)
	l.CurrentCrop = stringPtr(crop)
	l.Latitude = floatPtr(lat)
	l.Longitude = floatPtr(lon)
	return l, nil
}
