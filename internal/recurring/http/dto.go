package http

import (
	"errors"
	"time"

	"github.com/nekogravitycat/court-booking-scheduler/internal/pkg/apperror"
	"github.com/nekogravitycat/court-booking-scheduler/internal/recurring"
)

// DefaultWait is how long GET ?wait=true waits for a session to settle.
const DefaultWait = 5 * time.Second

type CreateSessionBody struct {
	ResourceID      string `json:"resource_id" binding:"required,uuid"`
	StartDate       string `json:"start_date" binding:"required"`
	EndDate         string `json:"end_date" binding:"required"`
	Cadence         string `json:"cadence" binding:"required,oneof=weekly biweekly monthly"`
	Weekdays        []int  `json:"weekdays"`
	StartTime       string `json:"start_time" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=1440"`
	ResolutionMode  string `json:"resolution_mode" binding:"omitempty,oneof=block skip_conflicts"`
}

// ToCreateRequest parses dates and times. Rule-level problems such as an
// empty weekday selection are left to the session, which reports them in its
// snapshot.
func (b *CreateSessionBody) ToCreateRequest(ownerID string) (recurring.CreateRequest, error) {
	start, err := recurring.ParseDate(b.StartDate)
	if err != nil {
		return recurring.CreateRequest{}, err
	}
	end, err := recurring.ParseDate(b.EndDate)
	if err != nil {
		return recurring.CreateRequest{}, err
	}
	clock, err := recurring.ParseClock(b.StartTime)
	if err != nil {
		return recurring.CreateRequest{}, err
	}
	weekdays, err := toWeekdays(b.Weekdays)
	if err != nil {
		return recurring.CreateRequest{}, err
	}

	return recurring.CreateRequest{
		OwnerID: ownerID,
		Mode:    recurring.ResolutionMode(b.ResolutionMode),
		Inputs: recurring.Inputs{
			ResourceID: b.ResourceID,
			Rule: recurring.Rule{
				StartDate: start,
				EndDate:   end,
				Cadence:   recurring.Cadence(b.Cadence),
				Weekdays:  weekdays,
			},
			Window: recurring.Window{
				Start:    clock,
				Duration: time.Duration(b.DurationMinutes) * time.Minute,
			},
		},
	}, nil
}

// UpdateSessionBody is a partial edit; omitted fields keep their value.
type UpdateSessionBody struct {
	ResourceID      *string `json:"resource_id" binding:"omitempty,uuid"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	Cadence         *string `json:"cadence" binding:"omitempty,oneof=weekly biweekly monthly"`
	Weekdays        *[]int  `json:"weekdays"`
	StartTime       *string `json:"start_time"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=1,max=1440"`
}

func (b *UpdateSessionBody) ToEdit() (recurring.Edit, error) {
	var e recurring.Edit

	if b.StartDate != nil {
		d, err := recurring.ParseDate(*b.StartDate)
		if err != nil {
			return e, err
		}
		e.StartDate = &d
	}
	if b.EndDate != nil {
		d, err := recurring.ParseDate(*b.EndDate)
		if err != nil {
			return e, err
		}
		e.EndDate = &d
	}
	if b.Cadence != nil {
		c := recurring.Cadence(*b.Cadence)
		e.Cadence = &c
	}
	if b.Weekdays != nil {
		wds, err := toWeekdays(*b.Weekdays)
		if err != nil {
			return e, err
		}
		e.Weekdays = &wds
	}
	if b.ResourceID != nil {
		e.ResourceID = b.ResourceID
	}
	if b.StartTime != nil {
		c, err := recurring.ParseClock(*b.StartTime)
		if err != nil {
			return e, err
		}
		e.StartTime = &c
	}
	if b.DurationMinutes != nil {
		d := time.Duration(*b.DurationMinutes) * time.Minute
		e.Duration = &d
	}
	return e, nil
}

func toWeekdays(in []int) ([]time.Weekday, error) {
	out := make([]time.Weekday, len(in))
	for i, v := range in {
		if v < 0 || v > 6 {
			return nil, recurring.ErrInvalidWeekday
		}
		out[i] = time.Weekday(v)
	}
	return out, nil
}

type GetSessionQuery struct {
	Wait bool `form:"wait"`
}

type ResolutionBody struct {
	Mode string `json:"mode" binding:"required,oneof=block skip_conflicts"`
}

type VisitorBody struct {
	Name  string `json:"name" binding:"required,max=120"`
	Phone string `json:"phone" binding:"omitempty,max=40"`
}

type SubmitBody struct {
	ClientID string       `json:"client_id" binding:"omitempty,uuid"`
	Visitor  *VisitorBody `json:"visitor"`
	Notes    string       `json:"notes" binding:"max=500"`
}

func (b *SubmitBody) Identity(operatorID string) recurring.Identity {
	id := recurring.Identity{OperatorID: operatorID, ClientRef: b.ClientID}
	if b.Visitor != nil {
		id.Visitor = &recurring.Visitor{Name: b.Visitor.Name, Phone: b.Visitor.Phone}
	}
	return id
}

type RuleResponse struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Cadence   string `json:"cadence"`
	Weekdays  []int  `json:"weekdays"`
}

type WindowResponse struct {
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type OccurrenceResponse struct {
	Date      string `json:"date"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type ConflictResponse struct {
	OccurrenceResponse
	Reason               string `json:"reason"`
	Resolvable           bool   `json:"resolvable"`
	ConflictingBookingID string `json:"conflicting_booking_id,omitempty"`
}

type SessionResponse struct {
	ID             string               `json:"id"`
	State          string               `json:"state"`
	Generation     uint64               `json:"generation"`
	ResourceID     string               `json:"resource_id"`
	Rule           RuleResponse         `json:"rule"`
	Window         WindowResponse       `json:"window"`
	ResolutionMode string               `json:"resolution_mode"`
	Occurrences    []OccurrenceResponse `json:"occurrences"`
	Conflicts      []ConflictResponse   `json:"conflicts"`
	Error          string               `json:"error,omitempty"`
	Warning        string               `json:"warning,omitempty"`
}

type PlanResponse struct {
	ToSubmit []OccurrenceResponse `json:"to_submit"`
	Skipped  []ConflictResponse   `json:"skipped"`
}

type SubmitItemResponse struct {
	OccurrenceResponse
	BookingID string `json:"booking_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type SubmitResponse struct {
	Created int                  `json:"created"`
	Failed  int                  `json:"failed"`
	Skipped int                  `json:"skipped"`
	Items   []SubmitItemResponse `json:"items"`
	// SkippedItems are the conflicting dates that were left out.
	SkippedItems []ConflictResponse `json:"skipped_items"`
}

func newOccurrenceResponse(o recurring.Occurrence) OccurrenceResponse {
	return OccurrenceResponse{
		Date:      recurring.FormatDate(o.Date),
		Weekday:   int(o.Date.Weekday()),
		StartTime: o.Start.String(),
		EndTime:   o.End.String(),
	}
}

func newConflictResponses(cs []recurring.ConflictInfo) []ConflictResponse {
	out := make([]ConflictResponse, len(cs))
	for i, c := range cs {
		out[i] = ConflictResponse{
			OccurrenceResponse:   newOccurrenceResponse(c.Occurrence),
			Reason:               c.Reason,
			Resolvable:           c.Resolvable,
			ConflictingBookingID: c.ConflictingRef,
		}
	}
	return out
}

func newOccurrenceResponses(occs []recurring.Occurrence) []OccurrenceResponse {
	out := make([]OccurrenceResponse, len(occs))
	for i, o := range occs {
		out[i] = newOccurrenceResponse(o)
	}
	return out
}

func NewSessionResponse(s recurring.Snapshot) SessionResponse {
	weekdays := make([]int, len(s.Inputs.Rule.Weekdays))
	for i, wd := range s.Inputs.Rule.Weekdays {
		weekdays[i] = int(wd)
	}

	resp := SessionResponse{
		ID:         s.ID,
		State:      string(s.State),
		Generation: s.Generation,
		ResourceID: s.Inputs.ResourceID,
		Rule: RuleResponse{
			StartDate: recurring.FormatDate(s.Inputs.Rule.StartDate),
			EndDate:   recurring.FormatDate(s.Inputs.Rule.EndDate),
			Cadence:   string(s.Inputs.Rule.Cadence),
			Weekdays:  weekdays,
		},
		Window: WindowResponse{
			StartTime:       s.Inputs.Window.Start.String(),
			EndTime:         s.Inputs.Window.End().String(),
			DurationMinutes: int(s.Inputs.Window.Duration / time.Minute),
		},
		ResolutionMode: string(s.Mode),
		Occurrences:    newOccurrenceResponses(s.Occurrences),
		Conflicts:      newConflictResponses(s.Conflicts),
		Warning:        s.Warning,
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	return resp
}

func NewPlanResponse(p *recurring.BatchPlan) PlanResponse {
	return PlanResponse{
		ToSubmit: newOccurrenceResponses(p.ToSubmit),
		Skipped:  newConflictResponses(p.Skipped),
	}
}

func NewSubmitResponse(s *recurring.SubmitSummary) SubmitResponse {
	items := make([]SubmitItemResponse, len(s.Results))
	for i, r := range s.Results {
		items[i] = SubmitItemResponse{
			OccurrenceResponse: newOccurrenceResponse(recurring.Occurrence{
				Date: r.Payload.Date, Start: r.Payload.Start, End: r.Payload.End,
			}),
			BookingID: r.BookingID,
		}
		if r.Err != nil {
			items[i].Error = itemError(r.Err)
		}
	}

	return SubmitResponse{
		Created:      s.Created,
		Failed:       s.Failed,
		Skipped:      s.Skipped,
		Items:        items,
		SkippedItems: newConflictResponses(s.Plan.Skipped),
	}
}

// itemError exposes user-facing messages only.
func itemError(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "failed to create booking"
}
