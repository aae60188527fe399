package recurring

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Detection is the result of checking every occurrence of a pass.
type Detection struct {
	// Conflicts follows the order of the checked occurrences.
	Conflicts []ConflictInfo
	Checked   int
	Failed    int
}

// AllFailed reports whether no oracle call succeeded, which usually means the
// oracle itself is unreachable.
func (d *Detection) AllFailed() bool {
	return d.Checked > 0 && d.Failed == d.Checked
}

// Detector checks occurrences against the oracle with bounded fan-out.
type Detector struct {
	oracle      Oracle
	concurrency int
	callTimeout time.Duration
	logger      *zap.Logger
}

func NewDetector(oracle Oracle, concurrency int, callTimeout time.Duration, logger *zap.Logger) *Detector {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		oracle:      oracle,
		concurrency: concurrency,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Detect checks every occurrence on resourceID. Oracle failures do not abort
// the pass: the occurrence is reported as an unresolvable conflict. The only
// error returned is ctx's, in which case the partial result is dropped.
func (d *Detector) Detect(ctx context.Context, resourceID string, occs []Occurrence) (*Detection, error) {
	found := make([]*ConflictInfo, len(occs))
	failed := make([]bool, len(occs))

	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for i, occ := range occs {
		if ctx.Err() != nil {
			break
		}
		i, occ := i, occ
		g.Go(func() error {
			callCtx := ctx
			if d.callTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, d.callTimeout)
				defer cancel()
			}

			a, err := d.oracle.Check(callCtx, resourceID, occ.Date, occ.Start, occ.End)
			if err != nil {
				failed[i] = true
				d.logger.Warn("availability check failed",
					zap.String("resource_id", resourceID),
					zap.String("date", FormatDate(occ.Date)),
					zap.Error(err),
				)
			}
			found[i] = Classify(occ, a, err)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	det := &Detection{Conflicts: []ConflictInfo{}, Checked: len(occs)}
	for i, c := range found {
		if failed[i] {
			det.Failed++
		}
		if c != nil {
			det.Conflicts = append(det.Conflicts, *c)
		}
	}
	return det, nil
}

// Classify converts one oracle answer into a conflict, or nil when the slot
// is free. A failed check is never taken as availability.
func Classify(occ Occurrence, a Availability, err error) *ConflictInfo {
	if err != nil {
		return &ConflictInfo{Occurrence: occ, Reason: ReasonCheckFailed}
	}
	if a.Available {
		return nil
	}

	switch a.Reason {
	case ReasonPast, ReasonBlocked:
		return &ConflictInfo{Occurrence: occ, Reason: a.Reason}
	default:
		return &ConflictInfo{
			Occurrence:     occ,
			Reason:         a.Reason,
			Resolvable:     true,
			ConflictingRef: a.ConflictingRef,
		}
	}
}
