// Tests for the SQLite backend lifecycle and schema versioning.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/krishi/pkg/types"
)

// setupBackend attaches a Backend to a fresh temp directory and detaches it
// when the test ends.
func setupBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{DataDir: tmpDir}

	err := b.Attach(config)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	if _, err := os.Stat(filepath.Join(tmpDir, DatabaseFileName)); os.IsNotExist(err) {
		t.Errorf("%s not created", DatabaseFileName)
	}

	if err := b.Attach(config); err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestBackend_AttachRejectsBadConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{})
	assert.ErrorIs(t, err, types.ErrDataDirEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{DataDir: t.TempDir(), BusyTimeout: -1}), types.ErrNegativeTimeout)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{DataDir: t.TempDir()}))

	users, err := b.Users()
	require.NoError(t, err)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "second Detach should be a no-op")

	_, err = b.Users()
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.LandHoldings()
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.Crops()
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.Preferences()
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	// Accessors obtained before Detach fail cleanly too.
	_, err = users.Get(context.Background(), types.ProfileID)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestBackend_ReattachKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := types.Config{DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	users, err := b.Users()
	require.NoError(t, err)
	require.NoError(t, users.Insert(ctx, &types.UserProfile{ID: types.ProfileID, Name: "Ravi"}))
	require.NoError(t, b.Detach())

	require.NoError(t, b.Attach(cfg))
	defer b.Detach()
	users, err = b.Users()
	require.NoError(t, err)
	got, err := users.Get(ctx, types.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", got.Name)
}

func TestBackend_SchemaVersionBumpDiscardsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := types.Config{DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	users, err := b.Users()
	require.NoError(t, err)
	require.NoError(t, users.Insert(ctx, &types.UserProfile{ID: types.ProfileID, Name: "Ravi"}))
	require.NoError(t, b.Detach())

	// Pretend the file was written by another schema version.
	db, err := sql.Open("sqlite", filepath.Join(dir, DatabaseFileName))
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.NoError(t, b.Attach(cfg))
	defer b.Detach()
	users, err = b.Users()
	require.NoError(t, err)

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	var version int
	require.NoError(t, b.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, SchemaVersion, version)
}
