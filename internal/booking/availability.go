package booking

import (
	"fmt"
	"time"
)

// Layouts of TIME columns rendered as text.
var clockLayouts = []string{"15:04:05", "15:04"}

// parseClockMinutes parses "HH:MM" or "HH:MM:SS" into minutes since midnight.
// "24:00" is accepted as end of day.
func parseClockMinutes(s string) (int, error) {
	if s == "24:00" || s == "24:00:00" {
		return 24 * 60, nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// WithinOpeningHours reports whether the slot [start, end) lies inside the
// daily opening window. start and end must already be in the club's timezone.
// A slot ending exactly at midnight of the following day counts as ending at 24:00.
func WithinOpeningHours(opensAt, closesAt string, start, end time.Time) (bool, error) {
	openMin, err := parseClockMinutes(opensAt)
	if err != nil {
		return false, err
	}
	closeMin, err := parseClockMinutes(closesAt)
	if err != nil {
		return false, err
	}

	from := start.Hour()*60 + start.Minute()
	to := end.Hour()*60 + end.Minute()

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		// Only a slot running up to the very end of the day is representable.
		if to != 0 || !end.Equal(time.Date(sy, sm, sd+1, 0, 0, 0, 0, end.Location())) {
			return false, nil
		}
		to = 24 * 60
	}

	return from >= openMin && to <= closeMin, nil
}
