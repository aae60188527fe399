package recurring

import (
	"strings"
)

// Plan decides which occurrences of snap to book.
//
// In Block mode any conflict rejects the whole plan. In SkipConflicts mode
// every conflicting occurrence is left out, resolvable or not: skipping means
// not booking, never booking over another reservation.
func Plan(snap Snapshot, mode ResolutionMode) (*BatchPlan, error) {
	if snap.State != StateStable {
		return nil, ErrSessionRecomputing
	}
	if snap.Err != nil {
		return nil, snap.Err
	}

	switch mode {
	case ModeBlock:
		if len(snap.Conflicts) > 0 {
			return nil, ErrHasConflicts
		}
		if len(snap.Occurrences) == 0 {
			return nil, ErrNoValidOccurrences
		}
		return &BatchPlan{
			ToSubmit: append([]Occurrence(nil), snap.Occurrences...),
			Skipped:  []ConflictInfo{},
		}, nil

	case ModeSkipConflicts:
		conflicted := make(map[string]struct{}, len(snap.Conflicts))
		for _, c := range snap.Conflicts {
			conflicted[FormatDate(c.Occurrence.Date)] = struct{}{}
		}

		plan := &BatchPlan{
			ToSubmit: []Occurrence{},
			Skipped:  append([]ConflictInfo{}, snap.Conflicts...),
		}
		for _, occ := range snap.Occurrences {
			if _, ok := conflicted[FormatDate(occ.Date)]; !ok {
				plan.ToSubmit = append(plan.ToSubmit, occ)
			}
		}
		if len(plan.ToSubmit) == 0 {
			return nil, ErrNoValidOccurrences
		}
		return plan, nil

	default:
		return nil, ErrInvalidResolutionMode
	}
}

// Payloads shapes a plan into reservation requests for one court.
func Payloads(plan *BatchPlan, resourceID string, identity Identity, notes string) ([]Payload, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	var visitor *Visitor
	if identity.Visitor != nil && strings.TrimSpace(identity.Visitor.Name) != "" {
		visitor = &Visitor{
			Name:  strings.TrimSpace(identity.Visitor.Name),
			Phone: strings.TrimSpace(identity.Visitor.Phone),
		}
	}

	payloads := make([]Payload, len(plan.ToSubmit))
	for i, occ := range plan.ToSubmit {
		payloads[i] = Payload{
			ResourceID: resourceID,
			Date:       occ.Date,
			Start:      occ.Start,
			End:        occ.End,
			OperatorID: identity.OperatorID,
			ClientRef:  strings.TrimSpace(identity.ClientRef),
			Visitor:    visitor,
			Notes:      notes,
		}
	}
	return payloads, nil
}
