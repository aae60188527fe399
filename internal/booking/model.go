package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/court-booking-scheduler/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "booking not found")
	ErrTimeConflict        = apperror.New(http.StatusConflict, "time slot already booked")
	ErrInvalidTimeRange    = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrResourceNotFound    = apperror.New(http.StatusNotFound, "resource not found")
	ErrPermissionDenied    = apperror.New(http.StatusForbidden, "permission denied")
	ErrStartTimePast       = apperror.New(http.StatusBadRequest, "cannot create booking in the past")
	ErrOutsideOpeningHours = apperror.New(http.StatusConflict, "court is closed at the requested time")
	ErrMissingParty        = apperror.New(http.StatusBadRequest, "a client or a visitor name is required")
	ErrAlreadyCancelled    = apperror.New(http.StatusConflict, "booking is already cancelled")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Reasons reported by CheckAvailability when a slot cannot be booked.
const (
	ReasonPast                = "past"
	ReasonBlocked             = "blocked"
	ReasonExistingReservation = "existing_reservation"
)

type Booking struct {
	ID           string
	ResourceID   string
	ResourceName string
	ClientID     string // empty for visitor bookings
	VisitorName  string
	VisitorPhone string
	CreatedBy    string
	StartTime    time.Time
	EndTime      time.Time
	Status       Status
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InvolvesUser reports whether userID booked the slot or is the client it was booked for.
func (b *Booking) InvolvesUser(userID string) bool {
	return userID != "" && (b.CreatedBy == userID || b.ClientID == userID)
}

// Availability is the answer to "can this court be booked for this slot".
type Availability struct {
	Available            bool
	Reason               string
	ConflictingBookingID string
}

type Filter struct {
	UserID     string // bookings created by or for this user
	ResourceID string
	Status     string
	StartTime  *time.Time // Filter bookings ending after this time
	EndTime    *time.Time // Filter bookings starting before this time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
