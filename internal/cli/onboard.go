package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/krishi/internal/onboarding"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

func newOnboardCmd(a *app) *cobra.Command {
	var (
		form     onboarding.Form
		lat, lon float64
	)
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Create the farmer profile",
		Long: `Onboard stores the farmer profile used as context for every question.
Running it again replaces the profile. Without --lat/--lon the location
defaults to New Delhi unless --require-location is set.

Example:
  krishi onboard --name Ravi --age 42 --land-area 2.5 --language Hindi
  krishi onboard --name Ravi --age 42 --land-area 2.5 --language pa --lat 30.9 --lon 75.85`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			if latSet != lonSet {
				return usagef("--lat and --lon go together")
			}
			if latSet {
				form.Location = &types.Location{Latitude: lat, Longitude: lon}
			}

			return a.withWrite(cmd, func(store types.Store) error {
				p, err := onboarding.NewService(store).Submit(cmd.Context(), form)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), p)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Onboarding complete.")
				printProfile(cmd.OutOrStdout(), p)
				return nil
			})
		}),
	}
	f := cmd.Flags()
	f.StringVar(&form.Name, "name", "", "farmer name")
	f.StringVar(&form.Age, "age", "", "age in years")
	f.StringVar(&form.LandArea, "land-area", "", "land area in acres")
	f.StringVar(&form.Language, "language", "", "preferred language ("+languageNames()+")")
	f.Float64Var(&lat, "lat", 0, "latitude in decimal degrees")
	f.Float64Var(&lon, "lon", 0, "longitude in decimal degrees")
	f.BoolVar(&form.RequireLocation, "require-location", false, "fail instead of using the default location")
	return cmd
}

func languageNames() string {
	names := make([]string, len(types.SupportedLanguages))
	for i, l := range types.SupportedLanguages {
		names[i] = l.Name
	}
	return strings.Join(names, ", ")
}

func printProfile(w io.Writer, p *types.UserProfile) {
	fmt.Fprintf(w, "Name:       %s\n", p.Name)
	fmt.Fprintf(w, "Age:        %d\n", p.Age)
	fmt.Fprintf(w, "Land area:  %s acres\n", formatFloat(p.LandArea))
	fmt.Fprintf(w, "Location:   %s, %s\n", formatFloat(p.Latitude), formatFloat(p.Longitude))
	fmt.Fprintf(w, "Language:   %s\n", p.PreferredLanguage)
	fmt.Fprintf(w, "Since:      %s\n", p.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(w, "Last seen:  %s\n", p.LastActive.Format("2006-01-02 15:04"))
}
