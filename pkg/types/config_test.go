package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty data dir returns ErrDataDirEmpty",
			config:  Config{},
			wantErr: ErrDataDirEmpty,
		},
		{
			name:    "negative busy timeout returns ErrNegativeTimeout",
			config:  Config{DataDir: "/tmp/data", BusyTimeout: -time.Second},
			wantErr: ErrNegativeTimeout,
		},
		{
			name:   "data dir only",
			config: Config{DataDir: "/tmp/data"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigTimeout(t *testing.T) {
	assert.Equal(t, DefaultBusyTimeout, Config{DataDir: "d"}.Timeout())
	assert.Equal(t, 250*time.Millisecond, Config{DataDir: "d", BusyTimeout: 250 * time.Millisecond}.Timeout())
}
