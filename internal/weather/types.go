package weather

import "fmt"

// Response is an Open-Meteo forecast. Hourly and Daily are present only
// when requested; each series is a set of parallel arrays indexed by Time.
type Response struct {
	Latitude             float64       `json:"latitude"`
	Longitude            float64       `json:"longitude"`
	GenerationTimeMs     float64       `json:"generationtime_ms"`
	UTCOffsetSeconds     int           `json:"utc_offset_seconds"`
	Timezone             string        `json:"timezone"`
	TimezoneAbbreviation string        `json:"timezone_abbreviation"`
	Elevation            float64       `json:"elevation"`
	Current              *Current      `json:"current,omitempty"`
	CurrentUnits         *CurrentUnits `json:"current_units,omitempty"`
	Hourly               *Hourly       `json:"hourly,omitempty"`
	HourlyUnits          *HourlyUnits  `json:"hourly_units,omitempty"`
	Daily                *Daily        `json:"daily,omitempty"`
	DailyUnits           *DailyUnits   `json:"daily_units,omitempty"`
}

// Current holds the conditions at one instant.
type Current struct {
	Time                string  `json:"time"`
	Interval            int     `json:"interval"`
	Temperature2m       float64 `json:"temperature_2m"`
	RelativeHumidity2m  int     `json:"relative_humidity_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	Precipitation       float64 `json:"precipitation"`
	WeatherCode         int     `json:"weather_code"`
	WindSpeed10m        float64 `json:"wind_speed_10m"`
	WindDirection10m    int     `json:"wind_direction_10m"`
	PressureMSL         float64 `json:"pressure_msl"`
	Visibility          float64 `json:"visibility"`
	UVIndex             float64 `json:"uv_index"`
}

// CurrentUnits mirrors Current with the unit of each field.
type CurrentUnits struct {
	Time                string `json:"time"`
	Interval            string `json:"interval"`
	Temperature2m       string `json:"temperature_2m"`
	RelativeHumidity2m  string `json:"relative_humidity_2m"`
	ApparentTemperature string `json:"apparent_temperature"`
	Precipitation       string `json:"precipitation"`
	WeatherCode         string `json:"weather_code"`
	WindSpeed10m        string `json:"wind_speed_10m"`
	WindDirection10m    string `json:"wind_direction_10m"`
	PressureMSL         string `json:"pressure_msl"`
	Visibility          string `json:"visibility"`
	UVIndex             string `json:"uv_index"`
}

type Hourly struct {
	Time               []string  `json:"time"`
	Temperature2m      []float64 `json:"temperature_2m"`
	RelativeHumidity2m []int     `json:"relative_humidity_2m"`
	Precipitation      []float64 `json:"precipitation"`
	WeatherCode        []int     `json:"weather_code"`
	WindSpeed10m       []float64 `json:"wind_speed_10m"`
	WindDirection10m   []int     `json:"wind_direction_10m"`
	UVIndex            []float64 `json:"uv_index"`
}

type HourlyUnits struct {
	Time               string `json:"time"`
	Temperature2m      string `json:"temperature_2m"`
	RelativeHumidity2m string `json:"relative_humidity_2m"`
	Precipitation      string `json:"precipitation"`
	WeatherCode        string `json:"weather_code"`
	WindSpeed10m       string `json:"wind_speed_10m"`
	WindDirection10m   string `json:"wind_direction_10m"`
	UVIndex            string `json:"uv_index"`
}

type Daily struct {
	Time             []string  `json:"time"`
	Temperature2mMax []float64 `json:"temperature_2m_max"`
	Temperature2mMin []float64 `json:"temperature_2m_min"`
	PrecipitationSum []float64 `json:"precipitation_sum"`
	WeatherCode      []int     `json:"weather_code"`
	UVIndexMax       []float64 `json:"uv_index_max"`
}

type DailyUnits struct {
	Time             string `json:"time"`
	Temperature2mMax string `json:"temperature_2m_max"`
	Temperature2mMin string `json:"temperature_2m_min"`
	PrecipitationSum string `json:"precipitation_sum"`
	WeatherCode      string `json:"weather_code"`
	UVIndexMax       string `json:"uv_index_max"`
}

// Validate checks that every series requested alongside Time has one value
// per timestamp. A series the provider omitted entirely is allowed.
func (r *Response) Validate() error {
	if h := r.Hourly; h != nil {
		n := len(h.Time)
		if err := sameLength("hourly", n, map[string]int{
			"temperature_2m":       len(h.Temperature2m),
			"relative_humidity_2m": len(h.RelativeHumidity2m),
			"precipitation":        len(h.Precipitation),
			"weather_code":         len(h.WeatherCode),
			"wind_speed_10m":       len(h.WindSpeed10m),
			"wind_direction_10m":   len(h.WindDirection10m),
			"uv_index":             len(h.UVIndex),
		}); err != nil {
			return err
		}
	}
	if d := r.Daily; d != nil {
		n := len(d.Time)
		if err := sameLength("daily", n, map[string]int{
			"temperature_2m_max": len(d.Temperature2mMax),
			"temperature_2m_min": len(d.Temperature2mMin),
			"precipitation_sum":  len(d.PrecipitationSum),
			"weather_code":       len(d.WeatherCode),
			"uv_index_max":       len(d.UVIndexMax),
		}); err != nil {
			return err
		}
	}
	return nil
}

func sameLength(block string, n int, series map[string]int) error {
	for name, got := range series {
		if got != 0 && got != n {
			return fmt.Errorf("%w: %s.%s has %d values for %d timestamps", ErrMalformed, block, name, got, n)
		}
	}
	return nil
}

// Day is one row of a daily series, for display.
type Day struct {
	Date        string
	Max, Min    float64
	Rain        float64
	WeatherCode int
	UVIndexMax  float64
}

// Days zips the daily series into rows. Call Validate first.
func (d *Daily) Days() []Day {
	if d == nil {
		return nil
	}
	out := make([]Day, len(d.Time))
	for i, date := range d.Time {
		out[i] = Day{
			Date:        date,
			Max:         at(d.Temperature2mMax, i),
			Min:         at(d.Temperature2mMin, i),
			Rain:        at(d.PrecipitationSum, i),
			WeatherCode: at(d.WeatherCode, i),
			UVIndexMax:  at(d.UVIndexMax, i),
		}
	}
	return out
}

func at[T any](s []T, i int) T {
	var zero T
	if i < len(s) {
		return s[i]
	}
	return zero
}
