package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinOpeningHours(t *testing.T) {
	// Base date for testing: 2026-02-08
	at := func(h, m int) time.Time { return time.Date(2026, 2, 8, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		openStr  string
		closeStr string
		start    time.Time
		end      time.Time
		want     bool
		wantErr  bool
	}{
		{name: "inside", openStr: "09:00:00", closeStr: "18:00:00", start: at(10, 0), end: at(11, 0), want: true},
		{name: "touching both edges", openStr: "09:00", closeStr: "18:00", start: at(9, 0), end: at(18, 0), want: true},
		{name: "starts before opening", openStr: "09:00", closeStr: "18:00", start: at(8, 30), end: at(9, 30), want: false},
		{name: "ends after closing", openStr: "09:00", closeStr: "18:00", start: at(17, 30), end: at(18, 30), want: false},
		{
			name: "runs to midnight when open until 24:00", openStr: "06:00:00", closeStr: "24:00:00",
			start: at(23, 0), end: time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC), want: true,
		},
		{
			name: "runs past midnight", openStr: "06:00", closeStr: "24:00",
			start: at(23, 0), end: time.Date(2026, 2, 9, 0, 30, 0, 0, time.UTC), want: false,
		},
		{name: "bad open string", openStr: "nine", closeStr: "18:00", start: at(10, 0), end: at(11, 0), wantErr: true},
		{name: "bad close string", openStr: "09:00", closeStr: "25:00", start: at(10, 0), end: at(11, 0), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WithinOpeningHours(tt.openStr, tt.closeStr, tt.start, tt.end)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClockMinutes(t *testing.T) {
	good := map[string]int{
		"06:00:00": 6 * 60,
		"09:30":    9*60 + 30,
		"23:59":    23*60 + 59,
		"24:00":    24 * 60,
		"24:00:00": 24 * 60,
	}
	for in, want := range good {
		got, err := parseClockMinutes(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "nine", "24:01", "25:00", "12:60", "12:30:61"} {
		_, err := parseClockMinutes(in)
		assert.Error(t, err, in)
	}
}
