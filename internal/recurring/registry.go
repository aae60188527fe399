package recurring

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Registry keeps the open sessions of all operators in memory.
type Registry struct {
	idleTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	cron     *cron.Cron
}

func NewRegistry(idleTTL time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		idleTTL:  idleTTL,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get returns the session if it exists and belongs to ownerID. Sessions of
// other operators are reported as not found.
func (r *Registry) Get(id, ownerID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.OwnerID() != ownerID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove closes and forgets a session.
func (r *Registry) Remove(id, ownerID string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok || s.OwnerID() != ownerID {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	r.mu.Unlock()

	s.Close()
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ReapIdle closes sessions untouched for longer than the idle TTL and returns
// how many were closed.
func (r *Registry) ReapIdle(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}

	var idle []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.LastActive()) > r.idleTTL {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

// Start runs the idle reaper on a cron schedule such as "@every 1m".
func (r *Registry) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if n := r.ReapIdle(r.now()); n > 0 {
			r.logger.Info("reaped idle recurring sessions", zap.Int("count", n))
		}
	}); err != nil {
		return fmt.Errorf("invalid reap schedule %q: %w", schedule, err)
	}

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()

	c.Start()
	return nil
}

// Stop halts the reaper and closes every session.
func (r *Registry) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	for _, s := range sessions {
		s.Close()
	}
}
