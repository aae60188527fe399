package recurring

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/court-booking-scheduler/internal/pkg/apperror"
)

var (
	ErrEmptyWeekdaySelection = apperror.New(http.StatusUnprocessableEntity, "at least one weekday must be selected")
	ErrTooManyOccurrences    = apperror.New(http.StatusUnprocessableEntity, "recurrence produces too many occurrences")
	ErrInvalidDateRange      = apperror.New(http.StatusBadRequest, "start date must not be after end date")
	ErrInvalidWeekday        = apperror.New(http.StatusBadRequest, "weekday must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidCadence        = apperror.New(http.StatusBadRequest, "cadence must be weekly, biweekly or monthly")
	ErrInvalidWindow         = apperror.New(http.StatusBadRequest, "duration must be whole minutes and the slot must end by midnight")
	ErrInvalidClock          = apperror.New(http.StatusBadRequest, "time of day must be formatted as HH:MM")
	ErrInvalidDate           = apperror.New(http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
	ErrHasConflicts          = apperror.New(http.StatusConflict, "some dates are unavailable; skip them or change the schedule")
	ErrNoValidOccurrences    = apperror.New(http.StatusUnprocessableEntity, "no dates left to book")
	ErrSessionRecomputing    = apperror.New(http.StatusConflict, "availability is still being checked")
	ErrInvalidIdentity       = apperror.New(http.StatusBadRequest, "exactly one of client or visitor must be given")
	ErrInvalidResolutionMode = apperror.New(http.StatusBadRequest, "resolution mode must be block or skip_conflicts")
	ErrSessionNotFound       = apperror.New(http.StatusNotFound, "recurring session not found")
	ErrResourceRequired      = apperror.New(http.StatusBadRequest, "resource is required")
	ErrResourceNotFound      = apperror.New(http.StatusNotFound, "resource not found")
)

const (
	DefaultMaxOccurrences = 500
	DefaultConcurrency    = 6
)

// Reasons understood from the availability oracle. Anything else is treated
// as a clash with another reservation.
const (
	ReasonPast        = "past"
	ReasonBlocked     = "blocked"
	ReasonCheckFailed = "check failed"
)

type Cadence string

const (
	CadenceWeekly   Cadence = "weekly"
	CadenceBiweekly Cadence = "biweekly"
	CadenceMonthly  Cadence = "monthly"
)

func (c Cadence) Valid() bool {
	switch c {
	case CadenceWeekly, CadenceBiweekly, CadenceMonthly:
		return true
	}
	return false
}

type ResolutionMode string

const (
	ModeBlock         ResolutionMode = "block"
	ModeSkipConflicts ResolutionMode = "skip_conflicts"
)

func (m ResolutionMode) Valid() bool {
	return m == ModeBlock || m == ModeSkipConflicts
}

type State string

const (
	StateStable      State = "stable"
	StateRecomputing State = "recomputing"
)

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date. Dates are naive: they are
// stored at midnight UTC and only their year, month and day are meaningful.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// CivilDate drops the time of day and location of t.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// Clock is a time of day in minutes since midnight. 24:00 is only valid as
// the end of a window.
type Clock int

const minutesPerDay = 24 * 60

func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidClock
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant at which this clock time falls on date in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(c)/60, int(c)%60, 0, 0, loc)
}

// Window is the daily time slot booked on every occurrence.
type Window struct {
	Start    Clock
	Duration time.Duration
}

func (w Window) End() Clock {
	return w.Start + Clock(w.Duration/time.Minute)
}

func (w Window) Validate() error {
	if w.Start < 0 || w.Start >= minutesPerDay {
		return ErrInvalidClock
	}
	if w.Duration <= 0 || w.Duration%time.Minute != 0 || w.End() > minutesPerDay {
		return ErrInvalidWindow
	}
	return nil
}

// Rule describes which calendar dates a recurring booking covers.
type Rule struct {
	StartDate time.Time
	EndDate   time.Time
	Cadence   Cadence
	Weekdays  []time.Weekday
}

// Validate reports the first problem with the rule. An empty weekday set is
// checked last.
func (r Rule) Validate() error {
	if r.StartDate.After(r.EndDate) {
		return ErrInvalidDateRange
	}
	if !r.Cadence.Valid() {
		return ErrInvalidCadence
	}
	for _, wd := range r.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return ErrInvalidWeekday
		}
	}
	if len(r.Weekdays) == 0 {
		return ErrEmptyWeekdaySelection
	}
	return nil
}

// Occurrence is one concrete date of a recurring booking.
type Occurrence struct {
	Date  time.Time
	Start Clock
	End   Clock
}

// ConflictInfo explains why an occurrence cannot be booked as is.
// Resolvable conflicts clash with another reservation; unresolvable ones
// (past, blocked, failed checks) can never be booked.
type ConflictInfo struct {
	Occurrence     Occurrence
	Reason         string
	Resolvable     bool
	ConflictingRef string
}

// BatchPlan is the final set of occurrences to book.
type BatchPlan struct {
	ToSubmit []Occurrence
	Skipped  []ConflictInfo
}

// Availability is the oracle's answer for one slot.
type Availability struct {
	Available      bool
	Reason         string
	ConflictingRef string
}

// Oracle answers whether a court is free on a date between two clock times.
// Implementations must be safe for concurrent use and free of side effects.
type Oracle interface {
	Check(ctx context.Context, resourceID string, date time.Time, start, end Clock) (Availability, error)
}

type Visitor struct {
	Name  string
	Phone string
}

// Identity is who the reservations are made by and for.
type Identity struct {
	OperatorID string
	ClientRef  string
	Visitor    *Visitor
}

func (id Identity) Validate() error {
	hasVisitor := id.Visitor != nil && strings.TrimSpace(id.Visitor.Name) != ""
	hasClient := strings.TrimSpace(id.ClientRef) != ""
	if hasVisitor == hasClient {
		return ErrInvalidIdentity
	}
	return nil
}

// Payload is one reservation-creation request.
type Payload struct {
	ResourceID string
	Date       time.Time
	Start      Clock
	End        Clock
	OperatorID string
	ClientRef  string
	Visitor    *Visitor
	Notes      string
}

// SubmitResult is the outcome of one payload. Err is nil on success.
type SubmitResult struct {
	Payload   Payload
	BookingID string
	Err       error
}

// Submitter creates reservations. Items succeed or fail independently.
type Submitter interface {
	SubmitBatch(ctx context.Context, payloads []Payload) []SubmitResult
}
