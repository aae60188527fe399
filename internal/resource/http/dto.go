package http

import (
	"time"

	"github.com/nekogravitycat/court-booking-scheduler/internal/pkg/request"
	"github.com/nekogravitycat/court-booking-scheduler/internal/resource"
)

// ResourceTag is the compact form of a court embedded in other responses.
type ResourceTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListResourcesRequest struct {
	request.ListParams
	LocationID string `form:"location_id" binding:"omitempty,uuid"`
}

type ResourceResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LocationID   string    `json:"location_id"`
	LocationName string    `json:"location_name"`
	Open         bool      `json:"open"`
	OpensAt      string    `json:"opens_at"`
	ClosesAt     string    `json:"closes_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:           r.ID,
		Name:         r.Name,
		LocationID:   r.LocationID,
		LocationName: r.LocationName,
		Open:         r.LocationOpen,
		OpensAt:      r.OpeningHoursStart,
		ClosesAt:     r.OpeningHoursEnd,
		CreatedAt:    r.CreatedAt,
	}
}
