package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/court-booking-scheduler/internal/booking"
)

type fakeBookings struct {
	booking.Service // unused methods panic

	checked []time.Time
	answer  booking.Availability
	created []booking.CreateRequest
}

func (f *fakeBookings) CheckAvailability(_ context.Context, _ string, start, end time.Time) (*booking.Availability, error) {
	f.checked = append(f.checked, start, end)
	a := f.answer
	return &a, nil
}

func (f *fakeBookings) CreateBatch(_ context.Context, reqs []booking.CreateRequest) []booking.BatchResult {
	f.created = append(f.created, reqs...)
	out := make([]booking.BatchResult, len(reqs))
	for i := range reqs {
		if i == 1 {
			out[i] = booking.BatchResult{Err: booking.ErrTimeConflict}
			continue
		}
		out[i] = booking.BatchResult{Booking: &booking.Booking{ID: "b-" + FormatDate(reqs[i].StartTime)}}
	}
	return out
}

func TestBookingOracle(t *testing.T) {
	loc := time.FixedZone("club", 8*3600)
	fb := &fakeBookings{answer: booking.Availability{Reason: booking.ReasonExistingReservation, ConflictingBookingID: "b-9"}}
	o := NewBookingOracle(fb, loc)

	a, err := o.Check(context.Background(), "court-1", date("2024-03-04"), 18*60, 19*60+30)
	require.NoError(t, err)
	assert.Equal(t, Availability{Reason: booking.ReasonExistingReservation, ConflictingRef: "b-9"}, a)
	assert.Equal(t, []time.Time{
		time.Date(2024, 3, 4, 18, 0, 0, 0, loc),
		time.Date(2024, 3, 4, 19, 30, 0, 0, loc),
	}, fb.checked)

	fb.answer = booking.Availability{Reason: booking.ReasonPast}
	a, err = o.Check(context.Background(), "court-1", date("2024-03-04"), 18*60, 19*60+30)
	require.NoError(t, err)
	assert.False(t, Classify(Occurrence{}, a, nil).Resolvable)
}

func TestBookingSubmitter(t *testing.T) {
	fb := &fakeBookings{}
	s := NewBookingSubmitter(fb, time.UTC)

	payloads := []Payload{
		{ResourceID: "court-1", Date: date("2024-03-04"), Start: 600, End: 660, OperatorID: "op", ClientRef: "c-1"},
		{ResourceID: "court-1", Date: date("2024-03-11"), Start: 600, End: 660, OperatorID: "op", ClientRef: "c-1"},
		{ResourceID: "court-1", Date: date("2024-03-18"), Start: 600, End: 660, OperatorID: "op", Visitor: &Visitor{Name: "Ana", Phone: "1"}, Notes: "n"},
	}

	results := s.SubmitBatch(context.Background(), payloads)
	require.Len(t, results, 3)

	assert.Equal(t, "b-2024-03-04", results[0].BookingID)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, booking.ErrTimeConflict)
	assert.Empty(t, results[1].BookingID)
	assert.Equal(t, payloads[2], results[2].Payload)

	require.Len(t, fb.created, 3)
	assert.Equal(t, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), fb.created[0].StartTime)
	assert.Equal(t, time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC), fb.created[0].EndTime)
	assert.Equal(t, "op", fb.created[0].CreatedBy)
	assert.Equal(t, "c-1", fb.created[0].ClientID)
	assert.Equal(t, "Ana", fb.created[2].VisitorName)
	assert.Equal(t, "1", fb.created[2].VisitorPhone)
	assert.Equal(t, "n", fb.created[2].Notes)
}
