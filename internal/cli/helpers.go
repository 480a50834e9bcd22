package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mesh-intelligence/krishi/internal/logging"
	"github.com/mesh-intelligence/krishi/internal/paths"
	"github.com/mesh-intelligence/krishi/internal/remote"
	"github.com/mesh-intelligence/krishi/internal/weather"
	"github.com/mesh-intelligence/krishi/pkg/sqlite"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

// snapshotTimeout bounds how long a list command waits for the first
// result of a live query.
const snapshotTimeout = 5 * time.Second

// defaultUserID is the owner of holdings, crops and preferences unless
// --user says otherwise.
var defaultUserID = strconv.Itoa(types.ProfileID)

func (a *app) dataDir() (string, error) {
	return paths.ResolveDataDir(a.flags.dataDir, a.settings.DataDir)
}

// openStore resolves the data directory and attaches a SQLite store. The
// caller must Detach it.
func (a *app) openStore() (types.Store, error) {
	dir, err := a.dataDir()
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	store := sqlite.NewBackend()
	if err := store.Attach(types.Config{DataDir: dir}); err != nil {
		return nil, sysError(fmt.Errorf("attach store: %w", err))
	}
	return store, nil
}

// withStore runs fn against an attached store and detaches afterwards.
func (a *app) withStore(fn func(types.Store) error) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Detach()
	return fn(store)
}

func (a *app) remoteClient() (*remote.Client, error) {
	c, err := remote.NewClient(a.settings.BackendURL,
		remote.WithTimeout(a.settings.Timeout),
		remote.WithLogger(logging.For("remote")),
	)
	if err != nil {
		return nil, userError(fmt.Errorf("backend_url: %w", err))
	}
	return c, nil
}

func (a *app) weatherClient() (*weather.Client, error) {
	c, err := weather.NewClient(a.settings.WeatherURL,
		weather.WithTimeout(a.settings.Timeout),
		weather.WithLogger(logging.For("weather")),
	)
	if err != nil {
		return nil, userError(fmt.Errorf("weather_url: %w", err))
	}
	return c, nil
}

func (a *app) audioDir() (string, error) {
	dir, err := paths.ResolveAudioDir(a.settings.AudioDir)
	if err != nil {
		return "", sysError(fmt.Errorf("resolve audio dir: %w", err))
	}
	return dir, nil
}

// firstSnapshot reads one result from a live query and stops it.
func firstSnapshot[T any](ctx context.Context, start func(context.Context) <-chan T) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	var zero T
	select {
	case v, ok := <-start(ctx):
		if !ok {
			return zero, types.ErrStoreDetached
		}
		return v, nil
	case <-ctx.Done():
		return zero, fmt.Errorf("live query: %w", ctx.Err())
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes rows under header with aligned columns, trimming the
// padding tabwriter leaves at line ends.
func printTable(w io.Writer, header []string, rows [][]string) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// parseDate accepts YYYY-MM-DD; empty means nil.
func parseDate(flag, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return nil, usagef("--%s: want YYYY-MM-DD, got %q", flag, s)
	}
	return &t, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "true", "1", "enable", "enabled":
		return true, nil
	case "off", "no", "false", "0", "disable", "disabled":
		return false, nil
	}
	return false, usagef("want on or off, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
