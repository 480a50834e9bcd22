// This file implements the crops table accessor.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/krishi/pkg/types"
)

var _ types.CropTable = (*cropsTable)(nil)

const cropColumns = `id, user_id, crop_name, area, season, planted_date, expected_harvest_date, status`

type cropsTable struct {
	backend *Backend
}

// Insert writes c, replacing any row with the same ID. An empty ID is
// assigned a UUID v7 and an empty status defaults to ACTIVE.
func (ct *cropsTable) Insert(ctx context.Context, c *types.Crop) error {
	if c == nil {
		return types.ErrInvalidData
	}
	if c.ID == "" {
		c.ID = generateUUID()
	}
	if c.Status == "" {
		c.Status = types.CropStatusActive
	}
	return ct.backend.write(types.TableCrops, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO crops (`+cropColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.UserID, c.CropName, c.Area, c.Season,
			formatNullTime(c.PlantedDate), formatNullTime(c.ExpectedHarvestDate), c.Status,
		)
		if err != nil {
			return fmt.Errorf("inserting crop %s: %w", c.ID, err)
		}
		return nil
	})
}

func (ct *cropsTable) Update(ctx context.Context, c *types.Crop) error {
	if c == nil {
		return types.ErrInvalidData
	}
	if c.ID == "" {
		return types.ErrInvalidID
	}
	return ct.backend.write(types.TableCrops, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`UPDATE crops SET user_id = ?, crop_name = ?, area = ?, season = ?, planted_date = ?,
			expected_harvest_date = ?, status = ? WHERE id = ?`,
			c.UserID, c.CropName, c.Area, c.Season, formatNullTime(c.PlantedDate),
			formatNullTime(c.ExpectedHarvestDate), c.Status, c.ID,
		)
		if err != nil {
			return fmt.Errorf("updating crop %s: %w", c.ID, err)
		}
		return requireAffected(res)
	})
}

func (ct *cropsTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return ct.backend.write(types.TableCrops, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `DELETE FROM crops WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting crop %s: %w", id, err)
		}
		return requireAffected(res)
	})
}

func (ct *cropsTable) Get(ctx context.Context, id string) (*types.Crop, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var c types.Crop
	err := ct.backend.read(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT `+cropColumns+` FROM crops WHERE id = ?`, id)
		var err error
		c, err = scanCrop(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateStatus stores status as given; there is no transition check.
func (ct *cropsTable) UpdateStatus(ctx context.Context, id, status string) error {
	return ct.backend.write(types.TableCrops, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `UPDATE crops SET status = ? WHERE id = ?`, status, id)
		if err != nil {
			return fmt.Errorf("updating status for crop %s: %w", id, err)
		}
		return requireAffected(res)
	})
}

func (ct *cropsTable) UpdateHarvestDate(ctx context.Context, id string, at *time.Time) error {
	return ct.backend.write(types.TableCrops, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `UPDATE crops SET expected_harvest_date = ? WHERE id = ?`, formatNullTime(at), id)
		if err != nil {
			return fmt.Errorf("updating harvest date for crop %s: %w", id, err)
		}
		return requireAffected(res)
	})
}

func (ct *cropsTable) ActiveCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := ct.backend.read(func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM crops WHERE user_id = ? AND status = ?`, userID, types.CropStatusActive).Scan(&n)
	})
	return n, err
}

func (ct *cropsTable) TotalActiveArea(ctx context.Context, userID string) (float64, error) {
	var total sql.NullFloat64
	err := ct.backend.read(func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT SUM(area) FROM crops WHERE user_id = ? AND status = ?`, userID, types.CropStatusActive).Scan(&total)
	})
	if err != nil {
		return 0, fmt.Errorf("summing crop area: %w", err)
	}
	return total.Float64, nil
}

func (ct *cropsTable) WatchByUser(ctx context.Context, userID string) <-chan []types.Crop {
	return ct.watchWhere(ctx, `user_id = ?`, userID)
}

func (ct *cropsTable) WatchByStatus(ctx context.Context, userID, status string) <-chan []types.Crop {
	return ct.watchWhere(ctx, `user_id = ? AND status = ?`, userID, status)
}

func (ct *cropsTable) WatchByName(ctx context.Context, userID, name string) <-chan []types.Crop {
	return ct.watchWhere(ctx, `user_id = ? AND crop_name = ?`, userID, name)
}

func (ct *cropsTable) WatchBySeason(ctx context.Context, userID, season string) <-chan []types.Crop {
	return ct.watchWhere(ctx, `user_id = ? AND season = ?`, userID, season)
}

// WatchDistinctNames streams the set of crop names grown by userID.
func (ct *cropsTable) WatchDistinctNames(ctx context.Context, userID string) <-chan []string {
	return watch(ctx, ct.backend, types.TableCrops, func(ctx context.Context) ([]string, error) {
		var out []string
		err := ct.backend.read(func(db *sql.DB) error {
			rows, err := db.QueryContext(ctx,
				`SELECT DISTINCT crop_name FROM crops WHERE user_id = ? ORDER BY crop_name`, userID)
			if err != nil {
				return fmt.Errorf("querying crop names: %w", err)
			}
			out, err = collect(rows, func(r rowScanner) (string, error) {
				var name string
				err := r.Scan(&name)
				return name, err
			})
			return err
		})
		return out, err
	})
}

func (ct *cropsTable) watchWhere(ctx context.Context, where string, args ...any) <-chan []types.Crop {
	query := `SELECT ` + cropColumns + ` FROM crops WHERE ` + where + ` ORDER BY id`
	return watch(ctx, ct.backend, types.TableCrops, func(ctx context.Context) ([]types.Crop, error) {
		var out []types.Crop
		err := ct.backend.read(func(db *sql.DB) error {
			rows, err := db.QueryContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("querying crops: %w", err)
			}
			out, err = collect(rows, scanCrop)
			return err
		})
		return out, err
	})
}

func scanCrop(row rowScanner) (types.Crop, error) {
	var c types.Crop
	var planted, harvest sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &c.CropName, &c.Area, &c.Season, &planted, &harvest, &c.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return c, types.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("scanning crop: %w", err)
	}
	if c.PlantedDate, err = parseNullTime(planted); err != nil {
		return c, err
	}
	if c.ExpectedHarvestDate, err = parseNullTime(harvest); err != nil {
		return c, err
	}
	return c, nil
}
