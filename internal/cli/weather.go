package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/krishi/internal/onboarding"
	"github.com/mesh-intelligence/krishi/internal/weather"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

// maxForecastDays is the longest forecast the provider serves.
const maxForecastDays = 16

func newWeatherCmd(a *app) *cobra.Command {
	var (
		lat, lon    float64
		days        int
		currentOnly bool
		from, to    string
		timezone    string
	)
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Show current weather and the forecast",
		Long: `Weather fetches conditions for --lat/--lon, or for the onboarded profile's
location, or for New Delhi when neither is available.

Example:
  krishi weather
  krishi weather --current
  krishi weather --days 3 --lat 30.9 --lon 75.85
  krishi weather --from 2025-06-01 --to 2025-06-30`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("lat") != f.Changed("lon") {
				return usagef("--lat and --lon go together")
			}
			if days < 1 || days > maxForecastDays {
				return usagef("--days must be between 1 and %d", maxForecastDays)
			}
			if (from == "") != (to == "") {
				return usagef("--from and --to go together")
			}
			start, err := parseDate("from", from)
			if err != nil {
				return err
			}
			end, err := parseDate("to", to)
			if err != nil {
				return err
			}
			if start != nil && end.Before(*start) {
				return usagef("--to is before --from")
			}

			loc := types.Location{Latitude: lat, Longitude: lon}
			if !f.Changed("lat") {
				loc = a.profileLocation(cmd.Context())
			}

			client, err := a.weatherClient()
			if err != nil {
				return err
			}
			var resp *weather.Response
			switch {
			case start != nil:
				resp, err = client.Historical(cmd.Context(), loc.Latitude, loc.Longitude, *start, *end)
			case currentOnly:
				resp, err = client.Current(cmd.Context(), loc.Latitude, loc.Longitude)
			default:
				resp, err = client.Forecast(cmd.Context(), loc.Latitude, loc.Longitude, weather.ForecastOptions{
					Hourly:   []string{},
					Timezone: timezone,
					Days:     days,
				})
			}
			if err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			printWeather(cmd.OutOrStdout(), resp)
			return nil
		}),
	}
	f := cmd.Flags()
	f.Float64Var(&lat, "lat", 0, "latitude")
	f.Float64Var(&lon, "lon", 0, "longitude")
	f.IntVar(&days, "days", 7, "forecast days (1-16)")
	f.BoolVar(&currentOnly, "current", false, "current conditions only")
	f.StringVar(&from, "from", "", "historical start date, YYYY-MM-DD")
	f.StringVar(&to, "to", "", "historical end date, YYYY-MM-DD")
	f.StringVar(&timezone, "timezone", "", "timezone for forecast times (default auto)")
	return cmd
}

// profileLocation is the onboarded profile's location, or the default one.
func (a *app) profileLocation(ctx context.Context) types.Location {
	loc := onboarding.DefaultLocation
	_ = a.withStore(func(store types.Store) error {
		p, err := onboarding.NewService(store).Profile(ctx)
		if err == nil {
			loc = p.Location()
		}
		return nil
	})
	return loc
}

func printWeather(w io.Writer, r *weather.Response) {
	fmt.Fprintf(w, "Location: %s, %s (%s)\n", formatFloat(r.Latitude), formatFloat(r.Longitude), r.Timezone)

	if c := r.Current; c != nil {
		u := r.CurrentUnits
		if u == nil {
			u = &weather.CurrentUnits{Temperature2m: "°C", ApparentTemperature: "°C", WindSpeed10m: "km/h", Precipitation: "mm"}
		}
		fmt.Fprintf(w, "Now:      %s%s (feels like %s%s), %s\n",
			formatFloat(c.Temperature2m), u.Temperature2m,
			formatFloat(c.ApparentTemperature), u.ApparentTemperature,
			weather.DescribeCode(c.WeatherCode))
		fmt.Fprintf(w, "          humidity %d%%, wind %s %s, rain %s %s, UV %s\n",
			c.RelativeHumidity2m, formatFloat(c.WindSpeed10m), u.WindSpeed10m,
			formatFloat(c.Precipitation), u.Precipitation, formatFloat(c.UVIndex))
	}

	days := r.Daily.Days()
	if len(days) == 0 {
		return
	}
	rows := make([][]string, len(days))
	for i, d := range days {
		rows[i] = []string{
			d.Date,
			strconv.FormatFloat(d.Max, 'f', 1, 64),
			strconv.FormatFloat(d.Min, 'f', 1, 64),
			strconv.FormatFloat(d.Rain, 'f', 1, 64),
			weather.DescribeCode(d.WeatherCode),
		}
	}
	printTable(w, []string{"DATE", "MAX", "MIN", "RAIN", "CONDITIONS"}, rows)
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the assistant backend is up",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			client, err := a.remoteClient()
			if err != nil {
				return err
			}
			h, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), h)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", client.BaseURL(), h.Status)
			return nil
		}),
	}
}
