// Package sqlite implements the local store for krishi on top of SQLite.
// The Backend is an explicitly constructed handle: callers attach it to a
// data directory, pass it to the flows that need it, and detach it when the
// application shuts down.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/krishi/internal/logging"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

// DatabaseFileName is the SQLite file created inside the data directory.
const DatabaseFileName = "krishisevak.db"

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store using SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	hub      *hub
	log      zerolog.Logger

	users        *usersTable
	landHoldings *landHoldingsTable
	crops        *cropsTable
	preferences  *preferencesTable
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{log: logging.For("sqlite")}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, opens the database file and brings
// the schema to the current version.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(config.DataDir, DatabaseFileName)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		dbPath, config.Timeout().Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	dropped, err := migrate(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("migrate schema: %w", err)
	}
	if dropped {
		b.log.Warn().Str("path", dbPath).Int("version", SchemaVersion).
			Msg("schema version changed, existing local data discarded")
	}

	b.db = db
	b.config = config
	b.hub = newHub()
	b.attached = true

	b.users = &usersTable{backend: b}
	b.landHoldings = &landHoldingsTable{backend: b}
	b.crops = &cropsTable{backend: b}
	b.preferences = &preferencesTable{backend: b}

	b.log.Debug().Str("path", dbPath).Msg("store attached")
	return nil
}

// Detach releases all resources held by the backend.
// Closes every live query and the SQLite connection. After Detach, all
// operations return ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.hub.close()
	b.attached = false

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	return nil
}

// Users returns the users table accessor.
func (b *Backend) Users() (types.UserTable, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.users, nil
}

// LandHoldings returns the land_holdings table accessor.
func (b *Backend) LandHoldings() (types.LandHoldingTable, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.landHoldings, nil
}

// Crops returns the crops table accessor.
func (b *Backend) Crops() (types.CropTable, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.crops, nil
}

// Preferences returns the user_preferences table accessor.
func (b *Backend) Preferences() (types.PreferencesTable, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.preferences, nil
}

// read runs fn against the open database under the read lock.
func (b *Backend) read(fn func(db *sql.DB) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrStoreDetached
	}
	return fn(b.db)
}

// write runs fn under the write lock, so a single writer touches the
// database at a time, and wakes live queries on table once fn succeeds.
func (b *Backend) write(table string, fn func(db *sql.DB) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}
	if err := fn(b.db); err != nil {
		return err
	}
	b.hub.notify(table)
	return nil
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// requireAffected maps a zero-row UPDATE or DELETE to ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}
