// This file implements the user_preferences table accessor.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/krishi/pkg/types"
)

var _ types.PreferencesTable = (*preferencesTable)(nil)

const preferenceColumns = `user_id, price_alerts, weather_updates, scheme_updates, disease_alerts,
    irrigation_reminders, push_notifications, sms_notifications, email_notifications,
    share_location, share_crop_data, voice_navigation, large_text, high_contrast,
    auto_backup, offline_mode, data_sync, cache_size`

type preferencesTable struct {
	backend *Backend
}

func (pt *preferencesTable) Get(ctx context.Context, userID string) (*types.UserPreferences, error) {
	if userID == "" {
		return nil, types.ErrInvalidID
	}
	var p types.UserPreferences
	err := pt.backend.read(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT `+preferenceColumns+` FROM user_preferences WHERE user_id = ?`, userID)
		var err error
		p, err = scanPreferences(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert replaces the whole row for p.UserID.
func (pt *preferencesTable) Upsert(ctx context.Context, p *types.UserPreferences) error {
	if p == nil {
		return types.ErrInvalidData
	}
	if p.UserID == "" {
		return types.ErrInvalidID
	}
	return pt.backend.write(types.TableUserPreferences, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO user_preferences (`+preferenceColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			preferenceArgs(p)...,
		)
		if err != nil {
			return fmt.Errorf("upserting preferences for %s: %w", p.UserID, err)
		}
		return nil
	})
}

// Update rewrites an existing row. Returns ErrNotFound if missing.
func (pt *preferencesTable) Update(ctx context.Context, p *types.UserPreferences) error {
	if p == nil {
		return types.ErrInvalidData
	}
	args := append(preferenceArgs(p)[1:], p.UserID)
	return pt.backend.write(types.TableUserPreferences, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`UPDATE user_preferences SET price_alerts = ?, weather_updates = ?, scheme_updates = ?,
			disease_alerts = ?, irrigation_reminders = ?, push_notifications = ?, sms_notifications = ?,
			email_notifications = ?, share_location = ?, share_crop_data = ?, voice_navigation = ?,
			large_text = ?, high_contrast = ?, auto_backup = ?, offline_mode = ?, data_sync = ?,
			cache_size = ? WHERE user_id = ?`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("updating preferences for %s: %w", p.UserID, err)
		}
		return requireAffected(res)
	})
}

func (pt *preferencesTable) Delete(ctx context.Context, userID string) error {
	return pt.backend.write(types.TableUserPreferences, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `DELETE FROM user_preferences WHERE user_id = ?`, userID)
		if err != nil {
			return fmt.Errorf("deleting preferences for %s: %w", userID, err)
		}
		return requireAffected(res)
	})
}

// SetToggle updates the single column named by field. The column name comes
// from the PreferenceField whitelist, never from caller text.
func (pt *preferencesTable) SetToggle(ctx context.Context, userID string, field types.PreferenceField, enabled bool) error {
	if !field.Valid() {
		return types.ErrUnknownPreference
	}
	query := fmt.Sprintf(`UPDATE user_preferences SET %s = ? WHERE user_id = ?`, string(field))
	return pt.backend.write(types.TableUserPreferences, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, query, boolInt(enabled), userID)
		if err != nil {
			return fmt.Errorf("updating %s for %s: %w", field, userID, err)
		}
		return requireAffected(res)
	})
}

func (pt *preferencesTable) SetCacheSize(ctx context.Context, userID string, size int) error {
	if size < 0 {
		return types.ErrInvalidData
	}
	return pt.backend.write(types.TableUserPreferences, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `UPDATE user_preferences SET cache_size = ? WHERE user_id = ?`, size, userID)
		if err != nil {
			return fmt.Errorf("updating cache size for %s: %w", userID, err)
		}
		return requireAffected(res)
	})
}

func preferenceArgs(p *types.UserPreferences) []any {
	return []any{
		p.UserID,
		boolInt(p.PriceAlerts), boolInt(p.WeatherUpdates), boolInt(p.SchemeUpdates),
		boolInt(p.DiseaseAlerts), boolInt(p.IrrigationReminders), boolInt(p.PushNotifications),
		boolInt(p.SMSNotifications), boolInt(p.EmailNotifications), boolInt(p.ShareLocation),
		boolInt(p.ShareCropData), boolInt(p.VoiceNavigation), boolInt(p.LargeText),
		boolInt(p.HighContrast), boolInt(p.AutoBackup), boolInt(p.OfflineMode),
		boolInt(p.DataSync), p.CacheSize,
	}
}

func scanPreferences(row rowScanner) (types.UserPreferences, error) {
	var p types.UserPreferences
	err := row.Scan(&p.UserID,
		&p.PriceAlerts, &p.WeatherUpdates, &p.SchemeUpdates, &p.DiseaseAlerts,
		&p.IrrigationReminders, &p.PushNotifications, &p.SMSNotifications, &p.EmailNotifications,
		&p.ShareLocation, &p.ShareCropData, &p.VoiceNavigation, &p.LargeText,
		&p.HighContrast, &p.AutoBackup, &p.OfflineMode, &p.DataSync,
		&p.CacheSize,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return p, types.ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("scanning preferences: %w", err)
	}
	return p, nil
}
