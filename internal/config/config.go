// Package config loads krishi settings from config.yaml, the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/krishi/pkg/krishi"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// EnvPrefix prefixes every environment override, e.g. KRISHI_BACKEND_URL.
	EnvPrefix = "KRISHI"
)

// Config keys.
const (
	KeyBackendURL = "backend_url"
	KeyWeatherURL = "weather_url"
	KeyTimeout    = "timeout"
	KeySessionID  = "session_id"
	KeyDataDir    = "data_dir"
	KeyAudioDir   = "audio_dir"
	KeyPlayer     = "player"
	KeyRecorder   = "recorder"
	KeyDebug      = "debug"
)

// Defaults.
const (
	DefaultWeatherURL = "https://api.open-meteo.com/"
	DefaultTimeout    = 30 * time.Second
)

// envKeys are bound to KRISHI_<KEY>. data_dir and audio_dir are left out:
// their environment variables sit below config.yaml in the paths
// precedence chain, so the paths package reads them itself.
var envKeys = []string{
	KeyBackendURL, KeyWeatherURL, KeyTimeout, KeySessionID,
	KeyPlayer, KeyRecorder, KeyDebug,
}

// Settings is the resolved configuration.
type Settings struct {
	BackendURL string
	WeatherURL string
	Timeout    time.Duration
	SessionID  string
	DataDir    string // config.yaml value only; see paths.ResolveDataDir
	AudioDir   string
	Player     string // command line; {file} is replaced by the audio path
	Recorder   string // command line; {file} is replaced by the output path
	Debug      bool

	// File is the config.yaml that was read, empty when none existed.
	File string
}

// fileLayout is the shape written to a fresh config.yaml.
type fileLayout struct {
	BackendURL string `yaml:"backend_url"`
	WeatherURL string `yaml:"weather_url"`
	Timeout    string `yaml:"timeout"`
	SessionID  string `yaml:"session_id"`
	DataDir    string `yaml:"data_dir,omitempty"`
	AudioDir   string `yaml:"audio_dir,omitempty"`
	Player     string `yaml:"player"`
	Recorder   string `yaml:"recorder"`
	Debug      bool   `yaml:"debug"`
}

const configHeader = `# krishi configuration
# Every key can be overridden with KRISHI_<KEY>, e.g. KRISHI_BACKEND_URL.
# player and recorder are command lines; {file} is replaced by the audio path.

`

// LoadDotEnv loads KEY=value pairs from .env in the working directory into
// the process environment. Variables already set win. A missing file is not
// an error.
func LoadDotEnv() error {
	return loadDotEnv(".env")
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads config.yaml from configDir, creating the directory and a default
// file on first run, then applies KRISHI_* environment overrides.
func Load(configDir string) (Settings, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return Settings{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := WriteDefault(filepath.Join(configDir, configFileExt)); err != nil {
		return Settings{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(KeyBackendURL, krishi.DefaultBackendURL)
	v.SetDefault(KeyWeatherURL, DefaultWeatherURL)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeySessionID, types.DefaultSessionID)
	v.SetDefault(KeyDebug, false)

	v.SetEnvPrefix(EnvPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return Settings{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := Settings{
		BackendURL: v.GetString(KeyBackendURL),
		WeatherURL: v.GetString(KeyWeatherURL),
		Timeout:    v.GetDuration(KeyTimeout),
		SessionID:  v.GetString(KeySessionID),
		DataDir:    v.GetString(KeyDataDir),
		AudioDir:   v.GetString(KeyAudioDir),
		Player:     v.GetString(KeyPlayer),
		Recorder:   v.GetString(KeyRecorder),
		Debug:      v.GetBool(KeyDebug),
		File:       v.ConfigFileUsed(),
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.SessionID == "" {
		s.SessionID = types.DefaultSessionID
	}
	return s, nil
}

// WriteDefault writes a default config.yaml at path unless a file is
// already there.
func WriteDefault(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(fileLayout{
		BackendURL: krishi.DefaultBackendURL,
		WeatherURL: DefaultWeatherURL,
		Timeout:    DefaultTimeout.String(),
		SessionID:  types.DefaultSessionID,
	})
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}

// SetDataDir records dataDir as data_dir in configDir/config.yaml, creating
// the file if needed. Other keys are kept; the header comment is not.
func SetDataDir(configDir, dataDir string) error {
	path := filepath.Join(configDir, configFileExt)
	if err := WriteDefault(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	v.Set(KeyDataDir, dataDir)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
