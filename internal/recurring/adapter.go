package recurring

import (
	"context"
	"time"

	"github.com/nekogravitycat/court-booking-scheduler/internal/booking"
)

// BookingOracle answers availability from the booking service. Dates and
// clock times are interpreted in the club's timezone.
type BookingOracle struct {
	bookings booking.Service
	loc      *time.Location
}

func NewBookingOracle(bookings booking.Service, loc *time.Location) *BookingOracle {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingOracle{bookings: bookings, loc: loc}
}

func (o *BookingOracle) Check(ctx context.Context, resourceID string, date time.Time, start, end Clock) (Availability, error) {
	a, err := o.bookings.CheckAvailability(ctx, resourceID, start.On(date, o.loc), end.On(date, o.loc))
	if err != nil {
		return Availability{}, err
	}

	out := Availability{Available: a.Available, ConflictingRef: a.ConflictingBookingID}
	switch a.Reason {
	case booking.ReasonPast:
		out.Reason = ReasonPast
	case booking.ReasonBlocked:
		out.Reason = ReasonBlocked
	default:
		out.Reason = a.Reason
	}
	return out, nil
}

// BookingSubmitter creates reservations through the booking service, one
// independent insert per payload.
type BookingSubmitter struct {
	bookings booking.Service
	loc      *time.Location
}

func NewBookingSubmitter(bookings booking.Service, loc *time.Location) *BookingSubmitter {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingSubmitter{bookings: bookings, loc: loc}
}

func (s *BookingSubmitter) SubmitBatch(ctx context.Context, payloads []Payload) []SubmitResult {
	reqs := make([]booking.CreateRequest, len(payloads))
	for i, p := range payloads {
		req := booking.CreateRequest{
			CreatedBy:  p.OperatorID,
			ClientID:   p.ClientRef,
			ResourceID: p.ResourceID,
			StartTime:  p.Start.On(p.Date, s.loc),
			EndTime:    p.End.On(p.Date, s.loc),
			Notes:      p.Notes,
		}
		if p.Visitor != nil {
			req.VisitorName = p.Visitor.Name
			req.VisitorPhone = p.Visitor.Phone
		}
		reqs[i] = req
	}

	batch := s.bookings.CreateBatch(ctx, reqs)

	results := make([]SubmitResult, len(payloads))
	for i, p := range payloads {
		results[i] = SubmitResult{Payload: p, Err: batch[i].Err}
		if batch[i].Booking != nil {
			results[i].BookingID = batch[i].Booking.ID
		}
	}
	return results
}
