package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/krishi/pkg/types"
)

// env is an isolated config and data directory plus fake services.
type env struct {
	configDir string
	dataDir   string
	backend   *httptest.Server
	weather   *httptest.Server

	mu    sync.Mutex
	chats []types.ChatRequest
}

func (e *env) chatRequests() []types.ChatRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]types.ChatRequest(nil), e.chats...)
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	e := &env{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/v1/chat", func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		e.mu.Lock()
		e.chats = append(e.chats, req)
		e.mu.Unlock()
		w.Write([]byte(`{"text":"Irrigate in the early morning."}`))
	})
	mux.HandleFunc("/v1/image/classify", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"label":"leaf_rust","score":0.91,"top_k":[{"label":"leaf_rust","score":0.91},{"label":"healthy","score":0.05}]}`))
	})
	e.backend = httptest.NewServer(mux)
	t.Cleanup(e.backend.Close)

	e.weather = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		w.Write([]byte(`{"latitude":28.6,"longitude":77.2,"timezone":"Asia/Kolkata",` +
			`"current":{"time":"2026-10-17T10:00","temperature_2m":31.5,"relative_humidity_2m":40,` +
			`"apparent_temperature":33,"precipitation":0,"weather_code":2,"wind_speed_10m":12.5,"uv_index":6},` +
			`"daily":{"time":["2026-10-17","2026-10-18"],"temperature_2m_max":[33,32.5],"temperature_2m_min":[21,20.4],` +
			`"precipitation_sum":[0,1.2],"weather_code":[2,61],"uv_index_max":[7,5]}}`))
	}))
	t.Cleanup(e.weather.Close)

	t.Setenv("KRISHI_BACKEND_URL", e.backend.URL)
	t.Setenv("KRISHI_WEATHER_URL", e.weather.URL)
	t.Setenv("KRISHI_AUDIO_DIR", filepath.Join(root, "audio"))
	t.Setenv("KRISHI_DATA_DIR", "")
	t.Setenv("KRISHI_PLAYER", "")
	t.Setenv("KRISHI_RECORDER", "")
	t.Setenv("KRISHI_DEBUG", "")
	return e
}

// run executes krishi with the env's directories and returns stdout.
func (e *env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, "", args...)
	require.NoError(t, err, out)
	return out
}

func (e *env) onboard(t *testing.T) {
	t.Helper()
	e.mustRun(t, "onboard", "--name", "Ravi", "--age", "42", "--land-area", "2.5", "--language", "hindi")
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "version")
	assert.Contains(t, out, "krishi v")
	assert.Contains(t, out, "module: github.com/mesh-intelligence/krishi")
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "init")
	assert.Contains(t, out, "krishi initialized successfully")
	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(e.dataDir, "krishisevak.db"))

	e.mustRun(t, "init")
}

func TestOnboardAndProfile(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "", "profile", "show")
	assert.ErrorIs(t, err, types.ErrNotOnboarded)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = e.run(t, "", "onboard", "--name", "Ravi")
	assert.ErrorIs(t, err, types.ErrMissingField)
	assert.Equal(t, exitUserError, exitCode(err))

	e.onboard(t)
	out := e.mustRun(t, "profile", "show", "--context")
	assert.Equal(t,
		"Farmer Name: Ravi; Age: 42; Land Area(acres): 2.5; Location(lat,lon): 28.6139, 77.209; Preferred Language: Hindi\n",
		out)

	e.mustRun(t, "profile", "edit", "--land-area", "3", "--lat", "30.9", "--lon", "75.85")
	out = e.mustRun(t, "--json", "profile", "show")
	var p types.UserProfile
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, 3.0, p.LandArea)
	assert.Equal(t, 30.9, p.Latitude)
	assert.Equal(t, "Ravi", p.Name)

	_, err = e.run(t, "", "profile", "edit", "--lat", "1")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestLandCommands(t *testing.T) {
	e := newEnv(t)

	id := strings.TrimSpace(e.mustRun(t, "land", "add", "--area", "1.5", "--soil", "alluvial", "--irrigation", "tube_well", "--crop", "wheat"))
	require.NotEmpty(t, id)
	e.mustRun(t, "land", "add", "--area", "0.5", "--soil", "black", "--ownership", "leased")

	out := e.mustRun(t, "land", "list")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "TUBE_WELL")
	assert.Contains(t, out, "Total: 2 holding(s)")

	out = e.mustRun(t, "land", "list", "--crop", "wheat")
	assert.Contains(t, out, "Total: 1 holding(s)")

	assert.Equal(t, "2 acres\n", e.mustRun(t, "land", "total"))

	e.mustRun(t, "land", "set-crop", id, "--clear")
	out = e.mustRun(t, "land", "list", "--crop", "wheat")
	assert.Contains(t, out, "No land holdings found.")

	e.mustRun(t, "land", "set-area", id, "4")
	var l types.LandHolding
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "land", "get", id)), &l))
	assert.Equal(t, 4.0, l.Area)
	assert.Nil(t, l.CurrentCrop)

	e.mustRun(t, "land", "delete", id)
	_, err := e.run(t, "", "land", "get", id)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))

	assert.Contains(t, e.mustRun(t, "land", "list", "--user", "2"), "No land holdings found.")
}

func TestCropCommands(t *testing.T) {
	e := newEnv(t)

	wheat := strings.TrimSpace(e.mustRun(t, "crop", "add", "wheat", "--area", "1.5", "--season", "rabi", "--planted", "2025-11-10"))
	e.mustRun(t, "crop", "add", "rice", "--area", "1", "--season", "kharif")
	e.mustRun(t, "crop", "add", "wheat", "--area", "2", "--status", "harvested")

	assert.Equal(t, "Active crops: 2\nActive area:  2.5 acres\n", e.mustRun(t, "crop", "stats"))
	assert.Equal(t, "rice\nwheat\n", e.mustRun(t, "crop", "names"))

	out := e.mustRun(t, "crop", "list", "--season", "RABI")
	assert.Contains(t, out, wheat)
	assert.Contains(t, out, "2025-11-10")
	assert.Contains(t, out, "Total: 1 crop(s)")

	e.mustRun(t, "crop", "status", wheat, "failed")
	e.mustRun(t, "crop", "harvest", wheat, "2026-04-01")
	var c types.Crop
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "crop", "get", wheat)), &c))
	assert.Equal(t, types.CropStatusFailed, c.Status)
	require.NotNil(t, c.ExpectedHarvestDate)
	assert.Equal(t, "2026-04-01", c.ExpectedHarvestDate.Format("2006-01-02"))

	_, err := e.run(t, "", "crop", "add", "maize", "--planted", "10/11/2025")
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = e.run(t, "", "crop", "list", "--status", "ACTIVE", "--name", "rice")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestPrefsCommands(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "", "prefs", "show")
	assert.ErrorIs(t, err, types.ErrNotFound)

	e.onboard(t)
	var p types.UserPreferences
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "prefs", "show")), &p))
	assert.Equal(t, *types.DefaultPreferences("1"), p)

	assert.Equal(t, "weather_updates: off\n", e.mustRun(t, "prefs", "set", "weather-updates", "off"))
	assert.Equal(t, "large_text: on\n", e.mustRun(t, "prefs", "toggle", "large_text"))
	e.mustRun(t, "prefs", "cache-size", "250")

	out := e.mustRun(t, "prefs", "show")
	assert.Contains(t, out, "cache_size")
	assert.Contains(t, out, "250 MB")
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "prefs", "show")), &p))
	assert.False(t, p.WeatherUpdates)
	assert.True(t, p.LargeText)
	assert.True(t, p.PriceAlerts)

	_, err = e.run(t, "", "prefs", "set", "dark_mode", "on")
	assert.ErrorIs(t, err, types.ErrUnknownPreference)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = e.run(t, "", "prefs", "cache-size", "-5")
	assert.Equal(t, exitUserError, exitCode(err))

	assert.Contains(t, e.mustRun(t, "prefs", "init"), "already exist")
	e.mustRun(t, "prefs", "init", "--force")
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "prefs", "show")), &p))
	assert.True(t, p.WeatherUpdates)
}

func TestChatMessage(t *testing.T) {
	e := newEnv(t)
	e.onboard(t)

	out := e.mustRun(t, "chat", "-m", "When do I water wheat?")
	assert.Equal(t, "Irrigate in the early morning.\n", out)

	chats := e.chatRequests()
	require.Len(t, chats, 1)
	assert.Equal(t, "When do I water wheat?", chats[0].Message)
	assert.Equal(t, types.DefaultSessionID, chats[0].SessionID)
	assert.Contains(t, chats[0].UserContext, "Farmer Name: Ravi")
}

func TestChatREPL(t *testing.T) {
	e := newEnv(t)
	img := filepath.Join(t.TempDir(), "leaf.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpeg"), 0o644))

	out, err := e.run(t, "/help\nhello there\n/image "+img+"\n/record\n/bogus\n/quit\nnot sent\n", "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "Welcome to KrishiSevak!")
	assert.Contains(t, out, "/record          start or stop a voice recording")
	assert.Contains(t, out, "krishi: Irrigate in the early morning.")
	assert.Contains(t, out, "krishi: Detected: leaf_rust (confidence 91%)")
	assert.Contains(t, out, "krishi: Failed to start recording: no recorder configured")
	assert.Contains(t, out, "unknown command /bogus")
	chats := e.chatRequests()
	require.Len(t, chats, 1)
	assert.Empty(t, chats[0].UserContext)
}

func TestClassify(t *testing.T) {
	e := newEnv(t)
	img := filepath.Join(t.TempDir(), "leaf.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o644))

	out := e.mustRun(t, "classify", img)
	assert.Contains(t, out, "Detected: leaf_rust (confidence 91%)")
	assert.Contains(t, out, "healthy")

	_, err := e.run(t, "", "classify", filepath.Join(t.TempDir(), "missing.png"))
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestWeather(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "weather")
	assert.Contains(t, out, "Now:      31.5°C (feels like 33°C), Partly cloudy")
	assert.Contains(t, out, "2026-10-18")
	assert.Contains(t, out, "Slight rain")

	_, err := e.run(t, "", "weather", "--days", "30")
	assert.Equal(t, exitUserError, exitCode(err))
	_, err = e.run(t, "", "weather", "--from", "2026-01-02", "--to", "2026-01-01")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestHealthAndStatus(t *testing.T) {
	e := newEnv(t)
	e.onboard(t)
	e.mustRun(t, "land", "add", "--area", "1.25")

	assert.Equal(t, e.backend.URL+"/: ok\n", e.mustRun(t, "health"))

	var rep statusReport
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "--json", "status")), &rep))
	assert.True(t, rep.Onboarded)
	assert.Equal(t, 1, rep.Holdings)
	assert.Equal(t, 1.25, rep.LandArea)
	assert.Equal(t, "Partly cloudy, 31.5°C", rep.Weather)
	assert.Empty(t, rep.BackendErr)

	e.backend.Close()
	out, err := e.run(t, "", "status")
	assert.Equal(t, exitSysError, exitCode(err))
	assert.Contains(t, out, "backend:   error:")
	assert.Contains(t, out, "weather:   Partly cloudy")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"usage", usagef("bad"), exitUserError},
		{"system", sysError(errors.New("disk full")), exitSysError},
		{"cobra argument error", errors.New("accepts 1 arg(s), received 0"), exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}

	wrapped := run(func(*cobra.Command, []string) error { return types.ErrNotFound })
	assert.Equal(t, exitUserError, exitCode(wrapped(nil, nil)))
	wrapped = run(func(*cobra.Command, []string) error { return errors.New("connection refused") })
	assert.Equal(t, exitSysError, exitCode(wrapped(nil, nil)))
}

func TestBackupRestore(t *testing.T) {
	e := newEnv(t)
	e.onboard(t)
	id := strings.TrimSpace(e.mustRun(t, "land", "add", "--area", "2"))

	dir := filepath.Join(t.TempDir(), "snap")
	assert.Contains(t, e.mustRun(t, "backup", dir), dir)

	other := newEnv(t)
	var counts map[string]int
	require.NoError(t, json.Unmarshal([]byte(other.mustRun(t, "--json", "restore", dir)), &counts))
	assert.Equal(t, 1, counts[types.TableUsers])
	assert.Equal(t, 1, counts[types.TableLandHoldings])
	assert.Equal(t, 1, counts[types.TableUserPreferences])

	assert.Contains(t, other.mustRun(t, "land", "list"), id)
	assert.Contains(t, other.mustRun(t, "profile", "show"), "Ravi")
}

func TestAutoBackup(t *testing.T) {
	e := newEnv(t)
	backup := filepath.Join(e.dataDir, "backup")

	e.onboard(t)
	assert.FileExists(t, filepath.Join(backup, types.TableUsers+".jsonl"))

	id := strings.TrimSpace(e.mustRun(t, "land", "add", "--area", "2"))
	data, err := os.ReadFile(filepath.Join(backup, types.TableLandHoldings+".jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), id)

	e.mustRun(t, "prefs", "set", "auto_backup", "off")
	require.NoError(t, os.RemoveAll(backup))
	e.mustRun(t, "land", "add", "--area", "3")
	assert.NoDirExists(t, backup)
}
