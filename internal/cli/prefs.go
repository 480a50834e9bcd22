package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/krishi/pkg/types"
)

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show and change feature preferences",
	}
	cmd.PersistentFlags().String("user", defaultUserID, "owner user id")
	cmd.AddCommand(
		newPrefsShowCmd(a),
		newPrefsInitCmd(a),
		newPrefsSetCmd(a),
		newPrefsToggleCmd(a),
		newPrefsCacheSizeCmd(a),
		newPrefsDeleteCmd(a),
	)
	return cmd
}

func printPrefs(w io.Writer, p *types.UserPreferences) {
	rows := make([][]string, 0, len(types.PreferenceFields())+1)
	for _, f := range types.PreferenceFields() {
		v, _ := p.Toggle(f)
		rows = append(rows, []string{string(f), onOff(v)})
	}
	rows = append(rows, []string{"cache_size", strconv.Itoa(p.CacheSize) + " MB"})
	printTable(w, []string{"PREFERENCE", "VALUE"}, rows)
}

func newPrefsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the user's preferences",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			user := userFlag(cmd)
			return a.withStore(func(store types.Store) error {
				table, err := store.Preferences()
				if err != nil {
					return err
				}
				p, err := table.Get(cmd.Context(), user)
				if errors.Is(err, types.ErrNotFound) {
					return fmt.Errorf("no preferences for user %s (run `krishi prefs init`): %w", user, err)
				}
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), p)
				}
				printPrefs(cmd.OutOrStdout(), p)
				return nil
			})
		}),
	}
}

func newPrefsInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default preferences",
		Long:  `Init writes the default preferences for the user. Existing preferences are kept unless --force is given.`,
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			user := userFlag(cmd)
			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.Preferences()
				if err != nil {
					return err
				}
				if !force {
					_, err := table.Get(cmd.Context(), user)
					if err == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "Preferences for user %s already exist.\n", user)
						return nil
					}
					if !errors.Is(err, types.ErrNotFound) {
						return err
					}
				}
				p := types.DefaultPreferences(user)
				if err := table.Upsert(cmd.Context(), p); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Default preferences written for user %s.\n", user)
				return nil
			})
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing preferences")
	return cmd
}

func newPrefsSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <preference> <on|off>",
		Short: "Turn one preference on or off",
		Long: `Set changes a single toggle and leaves the others untouched.

Example:
  krishi prefs set weather-updates off
  krishi prefs set large_text on`,
		Args: cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			field, err := types.ParsePreferenceField(args[0])
			if err != nil {
				return fmt.Errorf("%q: %w", args[0], err)
			}
			enabled, err := parseBool(args[1])
			if err != nil {
				return err
			}
			return a.withWrite(cmd, func(store types.Store) error {
				return setToggle(cmd, store, userFlag(cmd), field, enabled)
			})
		}),
	}
}

func newPrefsToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <preference>",
		Short: "Flip one preference",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			field, err := types.ParsePreferenceField(args[0])
			if err != nil {
				return fmt.Errorf("%q: %w", args[0], err)
			}
			user := userFlag(cmd)
			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.Preferences()
				if err != nil {
					return err
				}
				p, err := table.Get(cmd.Context(), user)
				if err != nil {
					return err
				}
				current, err := p.Toggle(field)
				if err != nil {
					return err
				}
				return setToggle(cmd, store, user, field, !current)
			})
		}),
	}
}

func setToggle(cmd *cobra.Command, store types.Store, user string, field types.PreferenceField, enabled bool) error {
	table, err := store.Preferences()
	if err != nil {
		return err
	}
	if err := table.SetToggle(cmd.Context(), user, field, enabled); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", field, onOff(enabled))
	return nil
}

func newPrefsCacheSizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cache-size <MB>",
		Short: "Set the cache size in megabytes",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			size, err := strconv.Atoi(args[0])
			if err != nil || size < 0 {
				return usagef("cache size must be a non-negative integer, got %q", args[0])
			}
			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.Preferences()
				if err != nil {
					return err
				}
				if err := table.SetCacheSize(cmd.Context(), userFlag(cmd), size); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cache_size: %d MB\n", size)
				return nil
			})
		}),
	}
}

func newPrefsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the user's preferences",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			user := userFlag(cmd)
			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.Preferences()
				if err != nil {
					return err
				}
				if err := table.Delete(cmd.Context(), user); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Preferences for user %s deleted.\n", user)
				return nil
			})
		}),
	}
}
