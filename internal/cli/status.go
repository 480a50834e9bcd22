package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/krishi/internal/onboarding"
	"github.com/mesh-intelligence/krishi/internal/weather"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

// statusReport is what `krishi status` prints.
type statusReport struct {
	Backend    string  `json:"backend"`
	BackendErr string  `json:"backend_error,omitempty"`
	Weather    string  `json:"weather"`
	WeatherErr string  `json:"weather_error,omitempty"`
	Onboarded  bool    `json:"onboarded"`
	Holdings   int     `json:"land_holdings"`
	LandArea   float64 `json:"land_area"`
	Crops      int     `json:"active_crops"`
	Elapsed    string  `json:"elapsed"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the backend and weather services and summarize local data",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				began := time.Now()
				rep, err := a.collectStatus(cmd.Context(), store)
				if err != nil {
					return err
				}
				rep.Elapsed = time.Since(began).Round(time.Millisecond).String()

				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					if err := printJSON(out, rep); err != nil {
						return err
					}
				} else {
					printStatus(out, rep)
				}
				if rep.BackendErr != "" || rep.WeatherErr != "" {
					return sysError(errors.New("one or more services are unreachable"))
				}
				return nil
			})
		}),
	}
}

func printStatus(w io.Writer, r *statusReport) {
	line := func(name, ok, failed string) {
		if failed != "" {
			fmt.Fprintf(w, "%-10s error: %s\n", name+":", failed)
			return
		}
		fmt.Fprintf(w, "%-10s %s\n", name+":", ok)
	}
	line("backend", r.Backend, r.BackendErr)
	line("weather", r.Weather, r.WeatherErr)
	fmt.Fprintf(w, "%-10s %t\n", "onboarded:", r.Onboarded)
	fmt.Fprintf(w, "%-10s %d holding(s), %s acres, %d active crop(s)\n", "land:", r.Holdings, formatFloat(r.LandArea), r.Crops)
	fmt.Fprintf(w, "%-10s %s\n", "checked in", r.Elapsed)
}

// collectStatus checks the backend and the weather service concurrently
// while it reads the local summary. Check failures are recorded in the
// report; only local storage errors are returned.
func (a *app) collectStatus(ctx context.Context, store types.Store) (*statusReport, error) {
	rep := &statusReport{}
	loc := onboarding.DefaultLocation

	p, err := onboarding.NewService(store).Profile(ctx)
	switch {
	case err == nil:
		rep.Onboarded = true
		loc = p.Location()
	case !errors.Is(err, types.ErrNotOnboarded):
		return nil, err
	}

	client, err := a.remoteClient()
	if err != nil {
		return nil, err
	}
	wc, err := a.weatherClient()
	if err != nil {
		return nil, err
	}

	var g errgroup.Group
	g.Go(func() error {
		h, err := client.Health(ctx)
		if err != nil {
			rep.BackendErr = err.Error()
			return nil
		}
		rep.Backend = client.BaseURL() + " " + h.Status
		return nil
	})
	g.Go(func() error {
		r, err := wc.Current(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			rep.WeatherErr = err.Error()
			return nil
		}
		if r.Current != nil {
			rep.Weather = fmt.Sprintf("%s, %s°C", weather.DescribeCode(r.Current.WeatherCode), formatFloat(r.Current.Temperature2m))
		} else {
			rep.Weather = "ok"
		}
		return nil
	})
	g.Go(func() error {
		holdings, err := store.LandHoldings()
		if err != nil {
			return err
		}
		list, err := firstSnapshot(ctx, func(ctx context.Context) <-chan []types.LandHolding {
			return holdings.WatchByUser(ctx, defaultUserID)
		})
		if err != nil {
			return err
		}
		rep.Holdings = len(list)
		rep.LandArea, err = holdings.TotalArea(ctx, defaultUserID)
		if err != nil {
			return err
		}

		crops, err := store.Crops()
		if err != nil {
			return err
		}
		rep.Crops, err = crops.ActiveCount(ctx, defaultUserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rep, nil
}
