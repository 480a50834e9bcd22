// Package sqlite provides the public constructor for the SQLite store while
// keeping the implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/krishi/internal/sqlite"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

// NewBackend creates a new SQLite store. The store is not attached; call
// Attach with a Config to open the database.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{DataDir: ".krishi-db"})
//	defer store.Detach()
func NewBackend() types.Store {
	return sqlite.NewBackend()
}
