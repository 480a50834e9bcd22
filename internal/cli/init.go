package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/krishi/internal/config"
	"github.com/mesh-intelligence/krishi/internal/paths"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize krishi storage",
		Long: `Create the configuration and data directories, then open the database
once so its schema exists.

With --global the database goes to the per-user data directory and that
location is recorded as data_dir in config.yaml.`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			if global && a.flags.dataDir == "" {
				dir, err := paths.DefaultDataDir()
				if err != nil {
					return fmt.Errorf("default data dir: %w", err)
				}
				if err := config.SetDataDir(a.configDir, dir); err != nil {
					return err
				}
				a.settings.DataDir = dir
			}

			dataDir, err := a.dataDir()
			if err != nil {
				return err
			}
			if err := a.withStore(func(_ types.Store) error { return nil }); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "krishi initialized successfully")
			fmt.Fprintln(out, "  config:", a.configDir)
			fmt.Fprintln(out, "  data:  ", dataDir)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&global, "global", false, "store data in the per-user data directory")
	return cmd
}
