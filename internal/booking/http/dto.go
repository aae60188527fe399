package http

import (
	"time"

	"github.com/nekogravitycat/court-booking-scheduler/internal/booking"
	"github.com/nekogravitycat/court-booking-scheduler/internal/pkg/request"
	resHttp "github.com/nekogravitycat/court-booking-scheduler/internal/resource/http"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	ResourceID    string     `form:"resource_id" binding:"omitempty,uuid"`
	Status        string     `form:"status" binding:"omitempty,oneof=pending confirmed cancelled"`
	StartTimeFrom *time.Time `form:"start_time_from" time_format:"2006-01-02T15:04:05Z07:00"`
	StartTimeTo   *time.Time `form:"start_time_to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string     `form:"sort_by" binding:"omitempty,oneof=start_time end_time created_at status"`
}

// Validate performs custom validation for ListBookingsRequest.
func (r *ListBookingsRequest) Validate() error {
	if r.StartTimeFrom != nil && r.StartTimeTo != nil && r.StartTimeFrom.After(*r.StartTimeTo) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

type VisitorBody struct {
	Name  string `json:"name" binding:"required,max=120"`
	Phone string `json:"phone" binding:"omitempty,max=40"`
}

type CreateBookingBody struct {
	ResourceID string       `json:"resource_id" binding:"required,uuid"`
	StartTime  time.Time    `json:"start_time" binding:"required"`
	EndTime    time.Time    `json:"end_time" binding:"required"`
	ClientID   string       `json:"client_id" binding:"omitempty,uuid"`
	Visitor    *VisitorBody `json:"visitor"`
	Notes      string       `json:"notes" binding:"max=500"`
}

// Validate performs custom validation for CreateBookingBody.
func (r *CreateBookingBody) Validate() error {
	if !r.EndTime.After(r.StartTime) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

// AvailabilityQuery is the single-slot availability check.
type AvailabilityQuery struct {
	ResourceID string    `form:"resource_id" binding:"required,uuid"`
	StartTime  time.Time `form:"start_time" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	EndTime    time.Time `form:"end_time" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

type AvailabilityResponse struct {
	ResourceID           string    `json:"resource_id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Available            bool      `json:"available"`
	Reason               string    `json:"reason,omitempty"`
	ConflictingBookingID string    `json:"conflicting_booking_id,omitempty"`
}

type VisitorResponse struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type BookingResponse struct {
	ID        string               `json:"id"`
	Resource  resHttp.ResourceTag  `json:"resource"`
	ClientID  string               `json:"client_id,omitempty"`
	Visitor   *VisitorResponse     `json:"visitor,omitempty"`
	CreatedBy string               `json:"created_by"`
	StartTime time.Time            `json:"start_time"`
	EndTime   time.Time            `json:"end_time"`
	Status    string               `json:"status"`
	Notes     string               `json:"notes,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:        b.ID,
		Resource:  resHttp.ResourceTag{ID: b.ResourceID, Name: b.ResourceName},
		ClientID:  b.ClientID,
		CreatedBy: b.CreatedBy,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    string(b.Status),
		Notes:     b.Notes,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.VisitorName != "" {
		resp.Visitor = &VisitorResponse{Name: b.VisitorName, Phone: b.VisitorPhone}
	}
	return resp
}
