package types

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreferenceField(t *testing.T) {
	tests := []struct {
		in      string
		want    PreferenceField
		wantErr error
	}{
		{in: "price_alerts", want: PrefPriceAlerts},
		{in: "Large-Text", want: PrefLargeText},
		{in: " data_sync ", want: PrefDataSync},
		{in: "cache_size", wantErr: ErrUnknownPreference},
		{in: "", wantErr: ErrUnknownPreference},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePreferenceField(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreferencesSetToggleTouchesOneField(t *testing.T) {
	for _, f := range PreferenceFields() {
		t.Run(string(f), func(t *testing.T) {
			p := DefaultPreferences("u1")
			before := *p

			old, err := p.Toggle(f)
			require.NoError(t, err)
			require.NoError(t, p.SetToggle(f, !old))

			// Flip it back through the struct copy and compare everything else.
			require.NoError(t, before.SetToggle(f, !old))
			assert.Equal(t, before, *p)
		})
	}
}

func TestPreferenceFieldsSorted(t *testing.T) {
	fields := PreferenceFields()
	assert.Len(t, fields, 16)
	assert.True(t, sort.SliceIsSorted(fields, func(i, j int) bool { return fields[i] < fields[j] }))
}
