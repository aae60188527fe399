package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nekogravitycat/court-booking-scheduler/internal/resource"
)

type CreateRequest struct {
	CreatedBy    string
	ClientID     string
	VisitorName  string
	VisitorPhone string
	ResourceID   string
	StartTime    time.Time
	EndTime      time.Time
	Notes        string
}

// BatchResult is the outcome of one item of CreateBatch.
// Exactly one of Booking and Err is set.
type BatchResult struct {
	Booking *Booking
	Err     error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	// CreateBatch creates every request independently and in order. A failing
	// item does not roll back or stop the others.
	CreateBatch(ctx context.Context, reqs []CreateRequest) []BatchResult
	GetByID(ctx context.Context, id string, userID string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Cancel(ctx context.Context, id string, userID string) (*Booking, error)
	// CheckAvailability answers whether the court is free for [start, end).
	// It has no side effects and is safe for concurrent use.
	CheckAvailability(ctx context.Context, resourceID string, start, end time.Time) (*Availability, error)
}

type service struct {
	repo       Repository
	resService resource.Service
	loc        *time.Location
	now        func() time.Time
}

// NewService builds the booking service. loc is the club's timezone, used to
// compare slots against location opening hours.
func NewService(repo Repository, resService resource.Service, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:       repo,
		resService: resService,
		loc:        loc,
		now:        time.Now,
	}
}

func (s *service) lookupResource(ctx context.Context, resourceID string) (*resource.Resource, error) {
	res, err := s.resService.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return res, nil
}

func (s *service) CheckAvailability(ctx context.Context, resourceID string, start, end time.Time) (*Availability, error) {
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}

	res, err := s.lookupResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	return s.availability(ctx, res, start, end)
}

func (s *service) availability(ctx context.Context, res *resource.Resource, start, end time.Time) (*Availability, error) {
	if start.Before(s.now()) {
		return &Availability{Reason: ReasonPast}, nil
	}

	if !res.LocationOpen {
		return &Availability{Reason: ReasonBlocked}, nil
	}
	open, err := WithinOpeningHours(res.OpeningHoursStart, res.OpeningHoursEnd, start.In(s.loc), end.In(s.loc))
	if err != nil {
		return nil, fmt.Errorf("opening hours of location %s: %w", res.LocationID, err)
	}
	if !open {
		return &Availability{Reason: ReasonBlocked}, nil
	}

	conflictID, err := s.repo.FindOverlap(ctx, res.ID, start, end)
	if err != nil {
		return nil, err
	}
	if conflictID != "" {
		return &Availability{Reason: ReasonExistingReservation, ConflictingBookingID: conflictID}, nil
	}

	return &Availability{Available: true}, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	// 1. Validate input
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeRange
	}
	req.VisitorName = strings.TrimSpace(req.VisitorName)
	if req.ClientID == "" && req.VisitorName == "" {
		return nil, ErrMissingParty
	}

	// 2. Validate resource and slot
	res, err := s.lookupResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	avail, err := s.availability(ctx, res, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		switch avail.Reason {
		case ReasonPast:
			return nil, ErrStartTimePast
		case ReasonBlocked:
			return nil, ErrOutsideOpeningHours
		default:
			return nil, ErrTimeConflict
		}
	}

	// 3. Create booking
	b := &Booking{
		ResourceID:   res.ID,
		ResourceName: res.Name,
		ClientID:     req.ClientID,
		VisitorName:  req.VisitorName,
		VisitorPhone: strings.TrimSpace(req.VisitorPhone),
		CreatedBy:    req.CreatedBy,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Status:       StatusPending,
		Notes:        req.Notes,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) CreateBatch(ctx context.Context, reqs []CreateRequest) []BatchResult {
	results := make([]BatchResult, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			results[i] = BatchResult{Err: err}
			continue
		}
		b, err := s.Create(ctx, req)
		results[i] = BatchResult{Booking: b, Err: err}
	}
	return results
}

func (s *service) GetByID(ctx context.Context, id string, userID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.InvolvesUser(userID) {
		// Hide other parties' bookings entirely.
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Cancel(ctx context.Context, id string, userID string) (*Booking, error) {
	b, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if b.StartTime.Before(s.now()) {
		return nil, ErrStartTimePast
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	b.Status = StatusCancelled
	return b, nil
}
