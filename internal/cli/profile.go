package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/krishi/internal/onboarding"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the farmer profile",
	}
	cmd.AddCommand(newProfileShowCmd(a), newProfileEditCmd(a))
	return cmd
}

func newProfileShowCmd(a *app) *cobra.Command {
	var contextLine bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the onboarded profile",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				p, err := onboarding.NewService(store).Profile(cmd.Context())
				if err != nil {
					return err
				}
				switch {
				case a.flags.jsonMode:
					return printJSON(cmd.OutOrStdout(), p)
				case contextLine:
					fmt.Fprintln(cmd.OutOrStdout(), p.ContextString())
				default:
					printProfile(cmd.OutOrStdout(), p)
				}
				return nil
			})
		}),
	}
	cmd.Flags().BoolVar(&contextLine, "context", false, "print the context line sent with chat questions")
	return cmd
}

func newProfileEditCmd(a *app) *cobra.Command {
	var (
		name, language string
		age            int
		area, lat, lon float64
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change fields of the onboarded profile",
		Long: `Edit changes only the fields given as flags.

Example:
  krishi profile edit --land-area 3
  krishi profile edit --language Tamil --lat 11.0 --lon 76.96`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var e onboarding.Edit
			if f.Changed("name") {
				e.Name = &name
			}
			if f.Changed("age") {
				if age < 0 {
					return usagef("--age must not be negative")
				}
				e.Age = &age
			}
			if f.Changed("land-area") {
				if area < 0 {
					return usagef("--land-area must not be negative")
				}
				e.LandArea = &area
			}
			if f.Changed("language") {
				e.Language = &language
			}
			if f.Changed("lat") != f.Changed("lon") {
				return usagef("--lat and --lon go together")
			}
			if f.Changed("lat") {
				e.Location = &types.Location{Latitude: lat, Longitude: lon}
			}

			return a.withWrite(cmd, func(store types.Store) error {
				p, err := onboarding.NewService(store).UpdateProfile(cmd.Context(), e)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), p)
				}
				printProfile(cmd.OutOrStdout(), p)
				return nil
			})
		}),
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "farmer name")
	f.IntVar(&age, "age", 0, "age in years")
	f.Float64Var(&area, "land-area", 0, "land area in acres")
	f.StringVar(&language, "language", "", "preferred language")
	f.Float64Var(&lat, "lat", 0, "latitude in decimal degrees")
	f.Float64Var(&lon, "lon", 0, "longitude in decimal degrees")
	return cmd
}
