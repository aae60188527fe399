package resource

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/court-booking-scheduler/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, "resource not found")
)

// Resource represents a bookable court together with the opening rules of
// the location it belongs to.
type Resource struct {
	ID                string
	LocationID        string
	LocationName      string
	Name              string
	LocationOpen      bool   // false when the location is administratively closed
	OpeningHoursStart string // Format: HH:MM:SS
	OpeningHoursEnd   string // Format: HH:MM:SS
	CreatedAt         time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	LocationID string
	Page       int
	PageSize   int
	SortOrder  string
}
