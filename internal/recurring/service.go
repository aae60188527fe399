package recurring

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/court-booking-scheduler/internal/resource"
)

// MaxWait bounds how long Get may block waiting for a session to settle.
const MaxWait = 10 * time.Second

type CreateRequest struct {
	OwnerID string
	Inputs  Inputs
	Mode    ResolutionMode
}

type SubmitRequest struct {
	SessionID string
	Identity  Identity // Identity.OperatorID owns the session
	Notes     string
}

// SubmitSummary reports a submission item by item. Failed items are not
// retried; the operator reviews them and submits again.
type SubmitSummary struct {
	Plan    *BatchPlan
	Results []SubmitResult
	Created int
	Failed  int
	Skipped int
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Snapshot, error)
	// Get returns the session's snapshot. With wait > 0 it first waits, at
	// most wait (capped at MaxWait), for the session to become Stable.
	Get(ctx context.Context, id, ownerID string, wait time.Duration) (Snapshot, error)
	Update(ctx context.Context, id, ownerID string, edit Edit) (Snapshot, error)
	SetResolutionMode(ctx context.Context, id, ownerID string, mode ResolutionMode) (Snapshot, error)
	Recheck(ctx context.Context, id, ownerID string) (Snapshot, error)
	Plan(ctx context.Context, id, ownerID string) (*BatchPlan, error)
	Submit(ctx context.Context, req SubmitRequest) (*SubmitSummary, error)
	Close(ctx context.Context, id, ownerID string) error
}

type Config struct {
	Debounce time.Duration
}

type service struct {
	registry   *Registry
	expander   *Expander
	detector   *Detector
	submitter  Submitter
	resService resource.Service
	cfg        Config
	logger     *zap.Logger
}

func NewService(
	registry *Registry,
	expander *Expander,
	detector *Detector,
	submitter Submitter,
	resService resource.Service,
	cfg Config,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		registry:   registry,
		expander:   expander,
		detector:   detector,
		submitter:  submitter,
		resService: resService,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *service) checkResource(ctx context.Context, resourceID string) error {
	if resourceID == "" {
		return ErrResourceRequired
	}
	if _, err := s.resService.GetByID(ctx, resourceID); err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return ErrResourceNotFound
		}
		return err
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (Snapshot, error) {
	if req.Mode == "" {
		req.Mode = ModeBlock
	}
	if !req.Mode.Valid() {
		return Snapshot{}, ErrInvalidResolutionMode
	}
	if err := s.checkResource(ctx, req.Inputs.ResourceID); err != nil {
		return Snapshot{}, err
	}

	sess := NewSession(SessionConfig{
		ID:       uuid.NewString(),
		OwnerID:  req.OwnerID,
		Inputs:   req.Inputs,
		Mode:     req.Mode,
		Debounce: s.cfg.Debounce,
	}, s.expander, s.detector, s.logger)
	s.registry.Add(sess)

	s.logger.Info("recurring session opened",
		zap.String("session_id", sess.ID()),
		zap.String("owner_id", req.OwnerID),
		zap.String("resource_id", req.Inputs.ResourceID),
	)
	return sess.Snapshot(), nil
}

func (s *service) Get(ctx context.Context, id, ownerID string, wait time.Duration) (Snapshot, error) {
	sess, err := s.registry.Get(id, ownerID)
	if err != nil {
		return Snapshot{}, err
	}
	if wait <= 0 {
		return sess.Snapshot(), nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, min(wait, MaxWait))
	defer cancel()
	// A timeout still yields the latest snapshot, marked Recomputing.
	snap, _ := sess.WaitStable(waitCtx)
	return snap, nil
}

func (s *service) Update(ctx context.Context, id, ownerID string, edit Edit) (Snapshot, error) {
	sess, err := s.registry.Get(id, ownerID)
	if err != nil {
		return Snapshot{}, err
	}
	if edit.ResourceID != nil {
		if err := s.checkResource(ctx, *edit.ResourceID); err != nil {
			return Snapshot{}, err
		}
	}
	if err := sess.Update(edit); err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *service) SetResolutionMode(ctx context.Context, id, ownerID string, mode ResolutionMode) (Snapshot, error) {
	sess, err := s.registry.Get(id, ownerID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := sess.SetResolutionMode(mode); err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *service) Recheck(ctx context.Context, id, ownerID string) (Snapshot, error) {
	sess, err := s.registry.Get(id, ownerID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := sess.Recheck(); err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *service) Plan(ctx context.Context, id, ownerID string) (*BatchPlan, error) {
	sess, err := s.registry.Get(id, ownerID)
	if err != nil {
		return nil, err
	}
	return sess.Plan()
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*SubmitSummary, error) {
	sess, err := s.registry.Get(req.SessionID, req.Identity.OperatorID)
	if err != nil {
		return nil, err
	}

	snap := sess.Snapshot()
	plan, err := Plan(snap, snap.Mode)
	if err != nil {
		return nil, err
	}
	payloads, err := Payloads(plan, snap.Inputs.ResourceID, req.Identity, req.Notes)
	if err != nil {
		return nil, err
	}

	results := s.submitter.SubmitBatch(ctx, payloads)

	summary := &SubmitSummary{
		Plan:    plan,
		Results: results,
		Skipped: len(plan.Skipped),
	}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Created++
		}
	}

	s.logger.Info("recurring batch submitted",
		zap.String("session_id", sess.ID()),
		zap.String("resource_id", snap.Inputs.ResourceID),
		zap.Uint64("generation", snap.Generation),
		zap.Int("created", summary.Created),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)

	// The new bookings now conflict with the session's own dates.
	if err := sess.Recheck(); err != nil {
		s.logger.Warn("recheck after submit failed", zap.String("session_id", sess.ID()), zap.Error(err))
	}
	return summary, nil
}

func (s *service) Close(ctx context.Context, id, ownerID string) error {
	if err := s.registry.Remove(id, ownerID); err != nil {
		return err
	}
	s.logger.Info("recurring session closed", zap.String("session_id", id))
	return nil
}
