package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/krishi/pkg/types"
)

func newCropCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Manage crops",
	}
	cmd.PersistentFlags().String("user", defaultUserID, "owner user id")
	cmd.AddCommand(
		newCropAddCmd(a),
		newCropListCmd(a),
		newCropGetCmd(a),
		newCropDeleteCmd(a),
		newCropStatusCmd(a),
		newCropHarvestCmd(a),
		newCropStatsCmd(a),
		newCropNamesCmd(a),
	)
	return cmd
}

func newCropAddCmd(a *app) *cobra.Command {
	var (
		c                types.Crop
		planted, harvest string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Record a crop",
		Long: `Add stores a crop for the user and prints its generated id. New crops
are ACTIVE unless --status says otherwise.

Example:
  krishi crop add wheat --area 1.5 --season RABI --planted 2025-11-10 --harvest 2026-04-01`,
		Args: cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			if c.Area < 0 {
				return usagef("--area must not be negative")
			}
			var err error
			if c.PlantedDate, err = parseDate("planted", planted); err != nil {
				return err
			}
			if c.ExpectedHarvestDate, err = parseDate("harvest", harvest); err != nil {
				return err
			}
			c.UserID = userFlag(cmd)
			c.CropName = strings.TrimSpace(args[0])
			c.Season = strings.ToUpper(c.Season)
			c.Status = strings.ToUpper(c.Status)

			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.Crops()
				if err != nil {
					return err
				}
				if err := table.Insert(cmd.Context(), &c); err != nil {
					return fmt.Errorf("add crop: %w", err)
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), c)
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.ID)
				return nil
			})
		}),
	}
	f := cmd.Flags()
	f.Float64Var(&c.Area, "area", 0, "area in acres")
	f.StringVar(&c.Season, "season", "", "season (KHARIF, RABI, ZAID)")
	f.StringVar(&c.Status, "status", "", "status (default ACTIVE)")
	f.StringVar(&planted, "planted", "", "planting date, YYYY-MM-DD")
	f.StringVar(&harvest, "harvest", "", "expected harvest date, YYYY-MM-DD")
	return cmd
}

func newCropListCmd(a *app) *cobra.Command {
	var status, name, season string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List crops",
		Long: `List prints the user's crops in the order they were added. At most one of
--status, --name and --season may be given.

Example:
  krishi crop list
  krishi crop list --status ACTIVE
  krishi crop list --season kharif --json`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, v := range []string{status, name, season} {
				if v != "" {
					set++
				}
			}
			if set > 1 {
				return usagef("use only one of --status, --name and --season")
			}
			user := userFlag(cmd)
			return a.withStore(func(store types.Store) error {
				table, err := store.Crops()
				if err != nil {
					return err
				}
				crops, err := firstSnapshot(cmd.Context(), func(ctx context.Context) <-chan []types.Crop {
					switch {
					case status != "":
						return table.WatchByStatus(ctx, user, strings.ToUpper(status))
					case name != "":
						return table.WatchByName(ctx, user, name)
					case season != "":
						return table.WatchBySeason(ctx, user, strings.ToUpper(season))
					}
					return table.WatchByUser(ctx, user)
				})
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), crops)
				}
				printCrops(cmd.OutOrStdout(), crops)
				return nil
			})
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "only crops with this status")
	cmd.Flags().StringVar(&name, "name", "", "only crops with this name")
	cmd.Flags().StringVar(&season, "season", "", "only crops of this season")
	return cmd
}

func printCrops(w io.Writer, crops []types.Crop) {
	if len(crops) == 0 {
		fmt.Fprintln(w, "No crops found.")
		return
	}
	rows := make([][]string, len(crops))
	for i, c := range crops {
		rows[i] = []string{c.ID, c.CropName, formatFloat(c.Area), c.Season, c.Status, formatDate(c.PlantedDate), formatDate(c.ExpectedHarvestDate)}
	}
	printTable(w, []string{"ID", "CROP", "ACRES", "SEASON", "STATUS", "PLANTED", "HARVEST"}, rows)
	fmt.Fprintf(w, "Total: %d crop(s)\n", len(crops))
}

func newCropGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one crop",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				table, err := store.Crops()
				if err != nil {
					return err
				}
				c, err := table.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("crop %q: %w", args[0], err)
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), c)
				}
				printCrops(cmd.OutOrStdout(), []types.Crop{*c})
				return nil
			})
		}),
	}
}

func newCropDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a crop",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.Crops()
				if err != nil {
					return err
				}
				if err := table.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("crop %q: %w", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted", args[0])
				return nil
			})
		}),
	}
}

func newCropStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change the status of a crop",
		Long: `Status stores any text; ACTIVE, HARVESTED and FAILED are the usual values.
Only ACTIVE crops count toward the stats.`,
		Args: cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			status := strings.ToUpper(strings.TrimSpace(args[1]))
			if status == "" {
				return usagef("status must not be empty")
			}
			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.Crops()
				if err != nil {
					return err
				}
				if err := table.UpdateStatus(cmd.Context(), args[0], status); err != nil {
					return fmt.Errorf("crop %q: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Status of %s: %s\n", args[0], status)
				return nil
			})
		}),
	}
}

func newCropHarvestCmd(a *app) *cobra.Command {
	var clearDate bool
	cmd := &cobra.Command{
		Use:   "harvest <id> [YYYY-MM-DD]",
		Short: "Change or clear the expected harvest date",
		Args:  cobra.RangeArgs(1, 2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			var at *time.Time
			switch {
			case clearDate && len(args) == 2:
				return usagef("give a date or --clear, not both")
			case len(args) == 2:
				d, err := parseDate("date", args[1])
				if err != nil {
					return err
				}
				at = d
			case !clearDate:
				return usagef("give a date or --clear")
			}
			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.Crops()
				if err != nil {
					return err
				}
				if err := table.UpdateHarvestDate(cmd.Context(), args[0], at); err != nil {
					return fmt.Errorf("crop %q: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Expected harvest of %s: %s\n", args[0], formatDate(at))
				return nil
			})
		}),
	}
	cmd.Flags().BoolVar(&clearDate, "clear", false, "clear the expected harvest date")
	return cmd
}

func newCropStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count active crops and their area",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			user := userFlag(cmd)
			return a.withStore(func(store types.Store) error {
				table, err := store.Crops()
				if err != nil {
					return err
				}
				count, err := table.ActiveCount(cmd.Context(), user)
				if err != nil {
					return err
				}
				area, err := table.TotalActiveArea(cmd.Context(), user)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"user_id": user, "active_count": count, "active_area": area,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Active crops: %d\nActive area:  %s acres\n", count, formatFloat(area))
				return nil
			})
		}),
	}
}

func newCropNamesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List the distinct crop names grown",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			user := userFlag(cmd)
			return a.withStore(func(store types.Store) error {
				table, err := store.Crops()
				if err != nil {
					return err
				}
				names, err := firstSnapshot(cmd.Context(), func(ctx context.Context) <-chan []string {
					return table.WatchDistinctNames(ctx, user)
				})
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), names)
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			})
		}),
	}
}
