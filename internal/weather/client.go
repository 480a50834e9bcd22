// Package weather is a client for the Open-Meteo forecast API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/krishi/internal/logging"
)

// DefaultBaseURL is the public Open-Meteo endpoint.
const DefaultBaseURL = "https://api.open-meteo.com/"

// ErrMalformed reports a response whose series do not line up.
var ErrMalformed = errors.New("malformed weather response")

// Variables requested by default.
var (
	CurrentVariables = []string{
		"temperature_2m", "relative_humidity_2m", "apparent_temperature", "precipitation",
		"weather_code", "wind_speed_10m", "wind_direction_10m", "pressure_msl", "visibility", "uv_index",
	}
	HourlyVariables = []string{
		"temperature_2m", "relative_humidity_2m", "precipitation", "weather_code",
		"wind_speed_10m", "wind_direction_10m", "uv_index",
	}
	DailyVariables = []string{
		"temperature_2m_max", "temperature_2m_min", "precipitation_sum", "weather_code", "uv_index_max",
	}
	HistoricalDailyVariables = []string{
		"temperature_2m_max", "temperature_2m_min", "precipitation_sum", "weather_code",
	}
)

const (
	defaultTimezone = "auto"
	defaultDays     = 7
	maxDays         = 16
	dateLayout      = "2006-01-02"
)

// ForecastOptions selects what Forecast asks for. Nil slices use the default
// variable lists; an empty non-nil slice leaves the block out.
type ForecastOptions struct {
	Current  []string
	Hourly   []string
	Daily    []string
	Timezone string
	Days     int
}

// Client queries one Open-Meteo endpoint.
type Client struct {
	base *url.URL
	http *http.Client
	log  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient returns a client for baseURL, or DefaultBaseURL when empty.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse weather url: %w", err)
	}
	c := &Client{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  logging.For("weather"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Forecast fetches current conditions and hourly and daily forecasts.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, opts ForecastOptions) (*Response, error) {
	q := coords(lat, lon)
	setList(q, "current", opts.Current, CurrentVariables)
	setList(q, "hourly", opts.Hourly, HourlyVariables)
	setList(q, "daily", opts.Daily, DailyVariables)
	q.Set("timezone", orDefault(opts.Timezone, defaultTimezone))

	days := opts.Days
	if days <= 0 {
		days = defaultDays
	}
	if days > maxDays {
		return nil, fmt.Errorf("forecast days %d exceeds %d", days, maxDays)
	}
	q.Set("forecast_days", strconv.Itoa(days))

	return c.get(ctx, q)
}

// Current fetches only the current conditions.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Response, error) {
	q := coords(lat, lon)
	q.Set("current", strings.Join(CurrentVariables, ","))
	q.Set("timezone", defaultTimezone)
	return c.get(ctx, q)
}

// Historical fetches daily values between start and end, inclusive.
func (c *Client) Historical(ctx context.Context, lat, lon float64, start, end time.Time) (*Response, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("historical range: end %s before start %s", end.Format(dateLayout), start.Format(dateLayout))
	}
	q := coords(lat, lon)
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))
	q.Set("daily", strings.Join(HistoricalDailyVariables, ","))
	q.Set("timezone", defaultTimezone)
	return c.get(ctx, q)
}

func (c *Client) get(ctx context.Context, q url.Values) (*Response, error) {
	target := c.base.ResolveReference(&url.URL{Path: "v1/forecast", RawQuery: q.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	defer resp.Body.Close()
	c.log.Debug().Str("url", target.String()).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, providerError(resp)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("weather: decode response: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// providerError surfaces Open-Meteo's {"error":true,"reason":"..."} body.
func providerError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var body struct {
		Reason string `json:"reason"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Reason != "" {
		return fmt.Errorf("weather: HTTP %d: %s", resp.StatusCode, body.Reason)
	}
	return fmt.Errorf("weather: HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

func coords(lat, lon float64) url.Values {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	return q
}

func setList(q url.Values, key string, vars, defaults []string) {
	if vars == nil {
		vars = defaults
	}
	if len(vars) > 0 {
		q.Set(key, strings.Join(vars, ","))
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
