package recurring

import (
	"slices"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Expander turns a rule into concrete occurrences. It is pure and safe for
// concurrent use.
type Expander struct {
	maxOccurrences int
}

func NewExpander(maxOccurrences int) *Expander {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}
	return &Expander{maxOccurrences: maxOccurrences}
}

// Expand returns the occurrences of rule in ascending date order, each booked
// for window. An empty weekday set yields no occurrences and no error; callers
// decide whether that is acceptable.
//
// A cursor starts at StartDate and advances by the cadence (7 days, 14 days
// or one calendar month) while it is not after EndDate. Each cursor step
// contributes the selected days of the Sunday-started week containing the
// cursor that fall within [StartDate, EndDate]. Monthly cursors keep
// StartDate's day of month, clamped to the month's last day.
func (e *Expander) Expand(rule Rule, window Window) ([]Occurrence, error) {
	if len(rule.Weekdays) == 0 {
		return []Occurrence{}, nil
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	start, end := CivilDate(rule.StartDate), CivilDate(rule.EndDate)

	var (
		dates []time.Time
		err   error
	)
	switch rule.Cadence {
	case CadenceWeekly:
		dates, err = e.weekly(start, end, 1, rule.Weekdays)
	case CadenceBiweekly:
		dates, err = e.weekly(start, end, 2, rule.Weekdays)
	case CadenceMonthly:
		dates, err = e.monthly(start, end, rule.Weekdays)
	}
	if err != nil {
		return nil, err
	}

	occs := make([]Occurrence, len(dates))
	for i, d := range dates {
		occs[i] = Occurrence{Date: d, Start: window.Start, End: window.End()}
	}
	return occs, nil
}

func (e *Expander) weekly(start, end time.Time, interval int, weekdays []time.Weekday) ([]time.Time, error) {
	byDay := make([]rrule.Weekday, 0, len(weekdays))
	for _, wd := range uniqueWeekdays(weekdays) {
		byDay = append(byDay, rruleWeekdays[wd])
	}

	// The last cursor step is the final stride from start that is not after
	// end. Its week bounds the series.
	stride := 7 * interval
	last := start.AddDate(0, 0, int(end.Sub(start).Hours()/24)/stride*stride)
	until := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))
	if until.After(end) {
		until = end
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  interval,
		Wkst:      rrule.SU,
		Byweekday: byDay,
		Dtstart:   start,
		Until:     until,
	})
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	next := r.Iterator()
	for {
		d, ok := next()
		if !ok {
			break
		}
		if len(dates) == e.maxOccurrences {
			return nil, ErrTooManyOccurrences
		}
		dates = append(dates, CivilDate(d))
	}
	return dates, nil
}

func (e *Expander) monthly(start, end time.Time, weekdays []time.Weekday) ([]time.Time, error) {
	days := uniqueWeekdays(weekdays)

	var dates []time.Time
	for n := 0; ; n++ {
		cursor := addMonthsClamped(start, n)
		if cursor.After(end) {
			break
		}
		weekStart := cursor.AddDate(0, 0, -int(cursor.Weekday()))
		for _, wd := range days {
			d := weekStart.AddDate(0, 0, int(wd))
			if d.Before(start) || d.After(end) {
				continue
			}
			if len(dates) == e.maxOccurrences {
				return nil, ErrTooManyOccurrences
			}
			dates = append(dates, d)
		}
	}
	return dates, nil
}

// addMonthsClamped moves t forward by n calendar months, keeping its day of
// month unless the target month is shorter. Callers always count from the
// series start; a clamp must not carry over into later months.
func addMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := min(t.Day(), lastDay)
	return first.AddDate(0, 0, day-1)
}

func uniqueWeekdays(weekdays []time.Weekday) []time.Weekday {
	out := slices.Clone(weekdays)
	slices.Sort(out)
	return slices.Compact(out)
}
