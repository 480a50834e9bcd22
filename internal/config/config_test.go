package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/krishi/pkg/krishi"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

// clearEnv blanks every KRISHI_* override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(EnvPrefix+"_"+strings.ToUpper(key), "")
	}
}

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "cfg")

	s, err := Load(dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
	assert.Equal(t, krishi.DefaultBackendURL, s.BackendURL)
	assert.Equal(t, DefaultWeatherURL, s.WeatherURL)
	assert.Equal(t, DefaultTimeout, s.Timeout)
	assert.Equal(t, types.DefaultSessionID, s.SessionID)
	assert.Empty(t, s.DataDir)
	assert.False(t, s.Debug)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), s.File)
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	body := `backend_url: http://backend.local:9000/
timeout: 5s
session_id: farm-42
data_dir: /srv/krishi
player: ffplay -nodisp -autoexit {file}
debug: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://backend.local:9000/", s.BackendURL)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, "farm-42", s.SessionID)
	assert.Equal(t, "/srv/krishi", s.DataDir)
	assert.Equal(t, "ffplay -nodisp -autoexit {file}", s.Player)
	assert.True(t, s.Debug)
	assert.Equal(t, DefaultWeatherURL, s.WeatherURL, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("backend_url: http://file/\ndata_dir: /from/file\n"), 0o644))

	t.Setenv("KRISHI_BACKEND_URL", "http://env/")
	t.Setenv("KRISHI_DATA_DIR", "/from/env")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://env/", s.BackendURL)
	assert.Equal(t, "/from/file", s.DataDir, "data_dir env is resolved by paths, below config.yaml")
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("backend_url: [unclosed\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestWriteDefault_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session_id: mine\n"), 0o644))

	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "session_id: mine\n", string(data))
}

func TestWriteDefault_IsValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got fileLayout
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "30s", got.Timeout)
	assert.Equal(t, types.DefaultSessionID, got.SessionID)
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is fine", func(t *testing.T) {
		assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("sets unset variables only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("KRISHI_SESSION_ID=from-dotenv\nKRISHI_PLAYER=from-dotenv\n"), 0o644))

		t.Setenv("KRISHI_SESSION_ID", "")
		os.Unsetenv("KRISHI_SESSION_ID")
		t.Setenv("KRISHI_PLAYER", "already-set")

		require.NoError(t, loadDotEnv(path))
		assert.Equal(t, "from-dotenv", os.Getenv("KRISHI_SESSION_ID"))
		assert.Equal(t, "already-set", os.Getenv("KRISHI_PLAYER"))
	})
}

func TestSetDataDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("backend_url: http://farm.local:9000/\n"), 0o644))

	require.NoError(t, SetDataDir(dir, "/var/lib/krishi"))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/krishi", s.DataDir)
	assert.Equal(t, "http://farm.local:9000/", s.BackendURL)
}
