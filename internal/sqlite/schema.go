package sqlite

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is stored in PRAGMA user_version. A database written with a
// different version is wiped and recreated rather than migrated.
const SchemaVersion = 1

// Schema DDL for all tables.
const (
	createUsers = `CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    age INTEGER NOT NULL,
    land_area REAL NOT NULL,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    preferred_language TEXT NOT NULL,
    is_onboarding_complete INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    last_active TEXT NOT NULL
);`

	createLandHoldings = `CREATE TABLE IF NOT EXISTS land_holdings (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    area REAL NOT NULL,
    ownership_type TEXT NOT NULL,
    soil_type TEXT NOT NULL,
    irrigation_type TEXT,
    current_crop TEXT,
    location TEXT NOT NULL,
    latitude REAL,
    longitude REAL
);`

	createCrops = `CREATE TABLE IF NOT EXISTS crops (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    crop_name TEXT NOT NULL,
    area REAL NOT NULL,
    season TEXT NOT NULL,
    planted_date TEXT,
    expected_harvest_date TEXT,
    status TEXT NOT NULL
);`

	createUserPreferences = `CREATE TABLE IF NOT EXISTS user_preferences (
    user_id TEXT PRIMARY KEY,
    price_alerts INTEGER NOT NULL,
    weather_updates INTEGER NOT NULL,
    scheme_updates INTEGER NOT NULL,
    disease_alerts INTEGER NOT NULL,
    irrigation_reminders INTEGER NOT NULL,
    push_notifications INTEGER NOT NULL,
    sms_notifications INTEGER NOT NULL,
    email_notifications INTEGER NOT NULL,
    share_location INTEGER NOT NULL,
    share_crop_data INTEGER NOT NULL,
    voice_navigation INTEGER NOT NULL,
    large_text INTEGER NOT NULL,
    high_contrast INTEGER NOT NULL,
    auto_backup INTEGER NOT NULL,
    offline_mode INTEGER NOT NULL,
    data_sync INTEGER NOT NULL,
    cache_size INTEGER NOT NULL
);`
)

// Index DDL for the filtered lookups.
const (
	idxUsersOnboarded   = `CREATE INDEX IF NOT EXISTS idx_users_onboarded ON users(is_onboarding_complete);`
	idxLandHoldingsUser = `CREATE INDEX IF NOT EXISTS idx_land_holdings_user ON land_holdings(user_id);`
	idxCropsUserStatus  = `CREATE INDEX IF NOT EXISTS idx_crops_user_status ON crops(user_id, status);`
	idxCropsUserSeason  = `CREATE INDEX IF NOT EXISTS idx_crops_user_season ON crops(user_id, season);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createUsers,
	createLandHoldings,
	createCrops,
	createUserPreferences,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxUsersOnboarded,
	idxLandHoldingsUser,
	idxCropsUserStatus,
	idxCropsUserSeason,
}

// dropDDL removes every table; used when the stored version is stale.
var dropDDL = []string{
	`DROP TABLE IF EXISTS users;`,
	`DROP TABLE IF EXISTS land_holdings;`,
	`DROP TABLE IF EXISTS crops;`,
	`DROP TABLE IF EXISTS user_preferences;`,
}

// migrate brings db to SchemaVersion. A fresh file (user_version 0) is
// created in place; any other version mismatch drops all tables first.
// Reports whether existing data was discarded.
func migrate(db *sql.DB) (bool, error) {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return false, fmt.Errorf("read schema version: %w", err)
	}
	if current == SchemaVersion {
		return false, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	dropped := current != 0
	if dropped {
		for _, stmt := range dropDDL {
			if _, err := tx.Exec(stmt); err != nil {
				return false, fmt.Errorf("drop table: %w", err)
			}
		}
	}
	for _, stmt := range schemaDDL {
		if _, err := tx.Exec(stmt); err != nil {
			return false, fmt.Errorf("create table: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := tx.Exec(stmt); err != nil {
			return false, fmt.Errorf("create index: %w", err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return false, fmt.Errorf("write schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing schema: %w", err)
	}
	return dropped, nil
}
