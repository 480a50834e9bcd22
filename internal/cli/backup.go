package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/krishi/internal/logging"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [dir]",
		Short: "Export the local database as JSONL files",
		Long: `Backup writes one <table>.jsonl file per table. The directory defaults to
backup/ inside the data directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			dir, err := a.backupDir(args)
			if err != nil {
				return err
			}
			return a.withStore(func(store types.Store) error {
				if err := store.Export(cmd.Context(), dir); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Backup written to", dir)
				return nil
			})
		}),
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [dir]",
		Short: "Load a JSONL backup into the local database",
		Long: `Restore inserts every row of a backup, replacing rows with the same id.
Rows that are not in the backup are kept.`,
		Args: cobra.MaximumNArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			dir, err := a.backupDir(args)
			if err != nil {
				return err
			}
			return a.withStore(func(store types.Store) error {
				counts, err := store.Import(cmd.Context(), dir)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), counts)
				}
				rows := make([][]string, 0, len(types.StandardTableNames))
				for _, t := range types.StandardTableNames {
					rows = append(rows, []string{t, fmt.Sprint(counts[t])})
				}
				printTable(cmd.OutOrStdout(), []string{"TABLE", "ROWS"}, rows)
				return nil
			})
		}),
	}
}

func (a *app) backupDir(args []string) (string, error) {
	if len(args) == 1 {
		return filepath.Abs(args[0])
	}
	dir, err := a.dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "backup"), nil
}

// withWrite is withStore for commands that change data. When the user's
// auto_backup preference is on, the store is exported to the default backup
// directory after fn succeeds.
func (a *app) withWrite(cmd *cobra.Command, fn func(types.Store) error) error {
	return a.withStore(func(store types.Store) error {
		if err := fn(store); err != nil {
			return err
		}
		a.autoBackup(cmd.Context(), store, userFlag(cmd))
		return nil
	})
}

// autoBackup never fails the command; a failed export is logged.
func (a *app) autoBackup(ctx context.Context, store types.Store, userID string) {
	log := logging.For("backup")
	prefs, err := store.Preferences()
	if err != nil {
		return
	}
	p, err := prefs.Get(ctx, userID)
	if err != nil || !p.AutoBackup {
		return
	}
	dir, err := a.backupDir(nil)
	if err != nil {
		log.Warn().Err(err).Msg("auto backup skipped")
		return
	}
	if err := store.Export(ctx, dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("auto backup failed")
		return
	}
	log.Debug().Str("dir", dir).Msg("auto backup written")
}
