package types

import (
	"errors"
	"time"
)

// DefaultBusyTimeout is how long a connection waits on a locked database
// before failing.
const DefaultBusyTimeout = 5 * time.Second

// Config locates the local store for Store.Attach.
type Config struct {
	// DataDir holds the database file. It is created if missing.
	DataDir string `json:"data_dir" yaml:"data_dir"`
	// BusyTimeout defaults to DefaultBusyTimeout when zero.
	BusyTimeout time.Duration `json:"busy_timeout,omitempty" yaml:"busy_timeout,omitempty"`
}

// Config validation errors.
var (
	ErrDataDirEmpty    = errors.New("data dir must not be empty")
	ErrNegativeTimeout = errors.New("busy timeout must not be negative")
)

// Validate checks that the Config is usable.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.BusyTimeout < 0 {
		return ErrNegativeTimeout
	}
	return nil
}

// Timeout returns BusyTimeout or its default.
func (c Config) Timeout() time.Duration {
	if c.BusyTimeout == 0 {
		return DefaultBusyTimeout
	}
	return c.BusyTimeout
}
