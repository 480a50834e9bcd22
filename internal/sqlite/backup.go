// This file implements JSONL export and import of the whole store.
package sqlite

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/krishi/pkg/types"
)

// BackupExt is the extension of the per-table files Export writes.
const BackupExt = ".jsonl"

func backupPath(dir, table string) string {
	return filepath.Join(dir, table+BackupExt)
}

// Export writes every table to <table>.jsonl under dir, one JSON object per
// row. Each file is replaced atomically; dir is created if missing.
func (b *Backend) Export(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	records := make(map[string][]json.RawMessage, len(types.StandardTableNames))
	err := b.read(func(db *sql.DB) error {
		var err error
		if records[types.TableUsers], err = dumpTable(ctx, db,
			`SELECT `+userColumns+` FROM users ORDER BY id`, scanUser); err != nil {
			return err
		}
		if records[types.TableLandHoldings], err = dumpTable(ctx, db,
			`SELECT `+landHoldingColumns+` FROM land_holdings ORDER BY id`, scanLandHolding); err != nil {
			return err
		}
		if records[types.TableCrops], err = dumpTable(ctx, db,
			`SELECT `+cropColumns+` FROM crops ORDER BY id`, scanCrop); err != nil {
			return err
		}
		records[types.TableUserPreferences], err = dumpTable(ctx, db,
			`SELECT `+preferenceColumns+` FROM user_preferences ORDER BY user_id`, scanPreferences)
		return err
	})
	if err != nil {
		return err
	}

	for _, table := range types.StandardTableNames {
		if err := writeJSONL(backupPath(dir, table), records[table]); err != nil {
			return fmt.Errorf("export %s: %w", table, err)
		}
	}
	b.log.Debug().Str("dir", dir).Msg("store exported")
	return nil
}

func dumpTable[T any](ctx context.Context, db *sql.DB, query string, scan func(rowScanner) (T, error)) ([]json.RawMessage, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("export query: %w", err)
	}
	items, err := collect(rows, scan)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		raw, err := json.Marshal(it)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// Import reads the files Export writes from dir and inserts every row,
// replacing rows with the same key. Missing files and malformed lines are
// skipped. Returns the number of rows imported per table.
func (b *Backend) Import(ctx context.Context, dir string) (map[string]int, error) {
	counts := make(map[string]int, len(types.StandardTableNames))

	users, err := b.Users()
	if err != nil {
		return nil, err
	}
	if counts[types.TableUsers], err = importTable(b, dir, types.TableUsers, func(p *types.UserProfile) error {
		return users.Insert(ctx, p)
	}); err != nil {
		return counts, err
	}

	holdings, err := b.LandHoldings()
	if err != nil {
		return counts, err
	}
	if counts[types.TableLandHoldings], err = importTable(b, dir, types.TableLandHoldings, func(l *types.LandHolding) error {
		return holdings.Insert(ctx, l)
	}); err != nil {
		return counts, err
	}

	crops, err := b.Crops()
	if err != nil {
		return counts, err
	}
	if counts[types.TableCrops], err = importTable(b, dir, types.TableCrops, func(c *types.Crop) error {
		return crops.Insert(ctx, c)
	}); err != nil {
		return counts, err
	}

	prefs, err := b.Preferences()
	if err != nil {
		return counts, err
	}
	counts[types.TableUserPreferences], err = importTable(b, dir, types.TableUserPreferences, func(p *types.UserPreferences) error {
		return prefs.Upsert(ctx, p)
	})
	return counts, err
}

func importTable[T any](b *Backend, dir, table string, insert func(*T) error) (int, error) {
	records, err := readJSONL(backupPath(dir, table))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for i, raw := range records {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			b.log.Warn().Err(err).Str("table", table).Int("record", i).Msg("skipping unreadable record")
			continue
		}
		if err := insert(&v); err != nil {
			if errors.Is(err, types.ErrInvalidData) || errors.Is(err, types.ErrInvalidID) {
				b.log.Warn().Err(err).Str("table", table).Int("record", i).Msg("skipping invalid record")
				continue
			}
			return n, fmt.Errorf("import %s: %w", table, err)
		}
		n++
	}
	return n, nil
}

// readJSONL returns each non-empty line of path that is valid JSON.
// Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically replaces path with records, one per line, using
// the temp-file, fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail(fmt.Errorf("writing newline: %w", err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
