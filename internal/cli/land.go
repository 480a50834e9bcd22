package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/krishi/pkg/types"
)

func newLandCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "land",
		Short: "Manage land holdings",
	}
	cmd.PersistentFlags().String("user", defaultUserID, "owner user id")
	cmd.AddCommand(
		newLandAddCmd(a),
		newLandListCmd(a),
		newLandGetCmd(a),
		newLandDeleteCmd(a),
		newLandSetCropCmd(a),
		newLandSetAreaCmd(a),
		newLandTotalCmd(a),
	)
	return cmd
}

func userFlag(cmd *cobra.Command) string {
	u, _ := cmd.Flags().GetString("user")
	if u == "" {
		return defaultUserID
	}
	return u
}

func newLandAddCmd(a *app) *cobra.Command {
	var (
		l                types.LandHolding
		irrigation, crop string
		lat, lon         float64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a land holding",
		Long: `Add stores a holding for the user and prints its generated id.

Example:
  krishi land add --area 1.5 --ownership OWNED --soil ALLUVIAL --irrigation TUBE_WELL --crop wheat
  krishi land add --area 0.75 --ownership LEASED --soil BLACK --location "Near canal" --lat 21.1 --lon 79.1`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			if l.Area < 0 {
				return usagef("--area must not be negative")
			}
			f := cmd.Flags()
			l.UserID = userFlag(cmd)
			l.OwnershipType = strings.ToUpper(l.OwnershipType)
			l.SoilType = strings.ToUpper(l.SoilType)
			if irrigation != "" {
				v := strings.ToUpper(irrigation)
				l.IrrigationType = &v
			}
			if crop != "" {
				l.CurrentCrop = &crop
			}
			if f.Changed("lat") {
				l.Latitude = &lat
			}
			if f.Changed("lon") {
				l.Longitude = &lon
			}

			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.LandHoldings()
				if err != nil {
					return err
				}
				if err := table.Insert(cmd.Context(), &l); err != nil {
					return fmt.Errorf("add land holding: %w", err)
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), l)
				}
				fmt.Fprintln(cmd.OutOrStdout(), l.ID)
				return nil
			})
		}),
	}
	f := cmd.Flags()
	f.Float64Var(&l.Area, "area", 0, "area in acres")
	f.StringVar(&l.OwnershipType, "ownership", types.OwnershipOwned, "ownership type (OWNED, LEASED, SHARED)")
	f.StringVar(&l.SoilType, "soil", "", "soil type")
	f.StringVar(&irrigation, "irrigation", "", "irrigation type (CANAL, WELL, TUBE_WELL, RAIN_FED, SPRINKLER, DRIP, OTHER)")
	f.StringVar(&crop, "crop", "", "crop currently grown")
	f.StringVar(&l.Location, "location", "", "free-text location")
	f.Float64Var(&lat, "lat", 0, "latitude")
	f.Float64Var(&lon, "lon", 0, "longitude")
	_ = cmd.MarkFlagRequired("area")
	return cmd
}

func newLandListCmd(a *app) *cobra.Command {
	var crop, soil string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List land holdings",
		Long: `List prints the user's holdings, optionally only those growing a crop or
on a soil type.

Example:
  krishi land list
  krishi land list --crop wheat
  krishi land list --soil BLACK --json`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			if crop != "" && soil != "" {
				return usagef("use either --crop or --soil")
			}
			user := userFlag(cmd)
			return a.withStore(func(store types.Store) error {
				table, err := store.LandHoldings()
				if err != nil {
					return err
				}
				holdings, err := firstSnapshot(cmd.Context(), func(ctx context.Context) <-chan []types.LandHolding {
					switch {
					case crop != "":
						return table.WatchByCrop(ctx, user, crop)
					case soil != "":
						return table.WatchBySoilType(ctx, user, strings.ToUpper(soil))
					}
					return table.WatchByUser(ctx, user)
				})
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), holdings)
				}
				printHoldings(cmd.OutOrStdout(), holdings)
				return nil
			})
		}),
	}
	cmd.Flags().StringVar(&crop, "crop", "", "only holdings growing this crop")
	cmd.Flags().StringVar(&soil, "soil", "", "only holdings with this soil type")
	return cmd
}

func printHoldings(w io.Writer, holdings []types.LandHolding) {
	if len(holdings) == 0 {
		fmt.Fprintln(w, "No land holdings found.")
		return
	}
	rows := make([][]string, len(holdings))
	for i, l := range holdings {
		rows[i] = []string{l.ID, formatFloat(l.Area), l.OwnershipType, l.SoilType, orDash(l.IrrigationType), orDash(l.CurrentCrop)}
	}
	printTable(w, []string{"ID", "ACRES", "OWNERSHIP", "SOIL", "IRRIGATION", "CROP"}, rows)
	fmt.Fprintf(w, "Total: %d holding(s)\n", len(holdings))
}

func newLandGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one land holding",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				table, err := store.LandHoldings()
				if err != nil {
					return err
				}
				l, err := table.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("land holding %q: %w", args[0], err)
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), l)
				}
				printHoldings(cmd.OutOrStdout(), []types.LandHolding{*l})
				return nil
			})
		}),
	}
}

func newLandDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a land holding",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.LandHoldings()
				if err != nil {
					return err
				}
				if err := table.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("land holding %q: %w", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted", args[0])
				return nil
			})
		}),
	}
}

func newLandSetCropCmd(a *app) *cobra.Command {
	var clearCrop bool
	cmd := &cobra.Command{
		Use:   "set-crop <id> [crop]",
		Short: "Change or clear the crop grown on a holding",
		Args:  cobra.RangeArgs(1, 2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			var crop *string
			switch {
			case clearCrop && len(args) == 2:
				return usagef("give a crop or --clear, not both")
			case len(args) == 2:
				crop = &args[1]
			case !clearCrop:
				return usagef("give a crop or --clear")
			}
			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.LandHoldings()
				if err != nil {
					return err
				}
				if err := table.UpdateCurrentCrop(cmd.Context(), args[0], crop); err != nil {
					return fmt.Errorf("land holding %q: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Crop on %s: %s\n", args[0], orDash(crop))
				return nil
			})
		}),
	}
	cmd.Flags().BoolVar(&clearCrop, "clear", false, "clear the current crop")
	return cmd
}

func newLandTotalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print the total area of the user's holdings",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			user := userFlag(cmd)
			return a.withStore(func(store types.Store) error {
				table, err := store.LandHoldings()
				if err != nil {
					return err
				}
				total, err := table.TotalArea(cmd.Context(), user)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{"user_id": user, "total_area": total})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s acres\n", formatFloat(total))
				return nil
			})
		}),
	}
}

func newLandSetAreaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-area <id> <acres>",
		Short: "Change the area of a holding",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			area, err := strconv.ParseFloat(args[1], 64)
			if err != nil || area < 0 {
				return usagef("area must be a non-negative number, got %q", args[1])
			}
			return a.withWrite(cmd, func(store types.Store) error {
				table, err := store.LandHoldings()
				if err != nil {
					return err
				}
				if err := table.UpdateArea(cmd.Context(), args[0], area); err != nil {
					return fmt.Errorf("land holding %q: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Area of %s: %s acres\n", args[0], formatFloat(area))
				return nil
			})
		}),
	}
}
