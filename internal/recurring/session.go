package recurring

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

const warningOracleUnavailable = "availability could not be checked for any date; retry the check"

// Inputs are the operator-editable fields of a session.
type Inputs struct {
	Rule       Rule
	ResourceID string
	Window     Window
}

// Validate reports whether the inputs can be expanded and checked.
func (in Inputs) Validate() error {
	if in.ResourceID == "" {
		return ErrResourceRequired
	}
	if err := in.Rule.Validate(); err != nil {
		return err
	}
	return in.Window.Validate()
}

// Edit is a partial change to a session's inputs. Nil fields are left as is.
type Edit struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Cadence    *Cadence
	Weekdays   *[]time.Weekday
	ResourceID *string
	StartTime  *Clock
	Duration   *time.Duration
}

func (e Edit) IsEmpty() bool {
	return e.StartDate == nil && e.EndDate == nil && e.Cadence == nil && e.Weekdays == nil &&
		e.ResourceID == nil && e.StartTime == nil && e.Duration == nil
}

func (e Edit) apply(in Inputs) Inputs {
	if e.StartDate != nil {
		in.Rule.StartDate = CivilDate(*e.StartDate)
	}
	if e.EndDate != nil {
		in.Rule.EndDate = CivilDate(*e.EndDate)
	}
	if e.Cadence != nil {
		in.Rule.Cadence = *e.Cadence
	}
	if e.Weekdays != nil {
		in.Rule.Weekdays = slices.Clone(*e.Weekdays)
	}
	if e.ResourceID != nil {
		in.ResourceID = *e.ResourceID
	}
	if e.StartTime != nil {
		in.Window.Start = *e.StartTime
	}
	if e.Duration != nil {
		in.Window.Duration = *e.Duration
	}
	return in
}

// Snapshot is a consistent read of a session. Its slices are shared with the
// session and must not be modified.
type Snapshot struct {
	ID          string
	OwnerID     string
	Inputs      Inputs
	Mode        ResolutionMode
	State       State
	Generation  uint64
	Occurrences []Occurrence
	Conflicts   []ConflictInfo
	// Err is a validation error that prevented the last pass from expanding
	// the rule. Occurrences and Conflicts are empty when it is set.
	Err     error
	Warning string
}

// Session holds one recurring booking being composed by an operator.
//
// Every change to the inputs bumps the generation and schedules a new
// detection pass after the debounce delay. A pass only applies its result if
// the generation is unchanged when it finishes; otherwise the result is
// dropped and the session stays Recomputing until the newest pass lands.
type Session struct {
	id       string
	ownerID  string
	expander *Expander
	detector *Detector
	debounce time.Duration
	logger   *zap.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	inputs      Inputs
	mode        ResolutionMode
	state       State
	generation  uint64
	occurrences []Occurrence
	conflicts   []ConflictInfo
	err         error
	warning     string
	timer       *time.Timer
	cancelPass  context.CancelFunc
	settled     chan struct{}
	lastActive  time.Time
	closed      bool
}

type SessionConfig struct {
	ID       string
	OwnerID  string
	Inputs   Inputs
	Mode     ResolutionMode
	Debounce time.Duration
}

// NewSession creates a session and starts its first detection pass right away.
func NewSession(cfg SessionConfig, expander *Expander, detector *Detector, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := cfg.Mode
	if !mode.Valid() {
		mode = ModeBlock
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       cfg.ID,
		ownerID:  cfg.OwnerID,
		expander: expander,
		detector: detector,
		debounce: cfg.Debounce,
		logger:   logger.With(zap.String("session_id", cfg.ID)),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		inputs:   cfg.Inputs,
		mode:     mode,
		state:    StateStable,
	}
	s.inputs.Rule.StartDate = CivilDate(s.inputs.Rule.StartDate)
	s.inputs.Rule.EndDate = CivilDate(s.inputs.Rule.EndDate)
	s.inputs.Rule.Weekdays = slices.Clone(s.inputs.Rule.Weekdays)

	s.mu.Lock()
	s.lastActive = s.now()
	s.invalidateLocked(0)
	s.mu.Unlock()
	return s
}

func (s *Session) ID() string      { return s.id }
func (s *Session) OwnerID() string { return s.ownerID }

// Update applies an edit and schedules a debounced recompute.
func (s *Session) Update(e Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionNotFound
	}
	s.lastActive = s.now()
	if e.IsEmpty() {
		return nil
	}
	s.inputs = e.apply(s.inputs)
	s.invalidateLocked(s.debounce)
	return nil
}

// SetResolutionMode changes how conflicts are handled at planning time. It
// does not change occurrences or conflicts, so no recompute is needed.
func (s *Session) SetResolutionMode(mode ResolutionMode) error {
	if !mode.Valid() {
		return ErrInvalidResolutionMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionNotFound
	}
	s.lastActive = s.now()
	s.mode = mode
	return nil
}

// Recheck runs detection again with unchanged inputs, without debounce.
func (s *Session) Recheck() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionNotFound
	}
	s.lastActive = s.now()
	s.invalidateLocked(0)
	return nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	return s.snapshotLocked()
}

// WaitStable blocks until the session is Stable or ctx is done, then returns
// the latest snapshot. On ctx expiry the snapshot is returned with ctx's error.
func (s *Session) WaitStable(ctx context.Context) (Snapshot, error) {
	for {
		s.mu.Lock()
		if s.state == StateStable || s.closed {
			snap := s.snapshotLocked()
			s.mu.Unlock()
			return snap, nil
		}
		settled := s.settled
		s.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
}

// Plan computes the batch to submit in the current resolution mode.
func (s *Session) Plan() (*BatchPlan, error) {
	snap := s.Snapshot()
	return Plan(snap, snap.Mode)
}

// LastActive is the time of the last operator interaction.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close stops pending and in-flight work. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancelPass != nil {
		s.cancelPass()
		s.cancelPass = nil
	}
	s.cancel()
	s.settleLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	in := s.inputs
	in.Rule.Weekdays = slices.Clone(in.Rule.Weekdays)
	return Snapshot{
		ID:          s.id,
		OwnerID:     s.ownerID,
		Inputs:      in,
		Mode:        s.mode,
		State:       s.state,
		Generation:  s.generation,
		Occurrences: s.occurrences,
		Conflicts:   s.conflicts,
		Err:         s.err,
		Warning:     s.warning,
	}
}

// invalidateLocked starts a new generation: the pending timer and any
// in-flight pass of the previous generation are abandoned.
func (s *Session) invalidateLocked(delay time.Duration) {
	s.generation++
	gen := s.generation

	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancelPass != nil {
		s.cancelPass()
		s.cancelPass = nil
	}
	if s.state == StateStable {
		s.state = StateRecomputing
		s.settled = make(chan struct{})
	}

	s.timer = time.AfterFunc(delay, func() { s.run(gen) })
}

func (s *Session) settleLocked() {
	if s.state == StateStable {
		return
	}
	s.state = StateStable
	close(s.settled)
}

func (s *Session) run(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	in := s.inputs

	occs, err := s.expand(in)
	if err != nil {
		s.occurrences = []Occurrence{}
		s.conflicts = []ConflictInfo{}
		s.err = err
		s.warning = ""
		s.settleLocked()
		s.mu.Unlock()
		s.logger.Debug("recurrence rejected", zap.Uint64("generation", gen), zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelPass = cancel
	s.mu.Unlock()

	started := time.Now()
	det, err := s.detector.Detect(ctx, in.ResourceID, occs)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation {
		s.logger.Debug("discarding stale detection result",
			zap.Uint64("generation", gen),
			zap.Uint64("current_generation", s.generation),
		)
		return
	}
	s.cancelPass = nil
	if err != nil {
		// Only the session's own context can cancel a current pass.
		return
	}

	s.occurrences = occs
	s.conflicts = det.Conflicts
	s.err = nil
	s.warning = ""
	if det.AllFailed() {
		s.warning = warningOracleUnavailable
	}
	s.settleLocked()

	s.logger.Info("availability checked",
		zap.Uint64("generation", gen),
		zap.String("resource_id", in.ResourceID),
		zap.Int("occurrences", len(occs)),
		zap.Int("conflicts", len(det.Conflicts)),
		zap.Int("failed_checks", det.Failed),
		zap.Duration("took", time.Since(started)),
	)
}

// expand validates the inputs and expands the rule. An empty weekday set is
// rejected here even though the expander accepts it.
func (s *Session) expand(in Inputs) ([]Occurrence, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	occs, err := s.expander.Expand(in.Rule, in.Window)
	if err != nil {
		return nil, err
	}
	return occs, nil
}
