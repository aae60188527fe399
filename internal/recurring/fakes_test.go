package recurring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var errOracleDown = errors.New("oracle unreachable")

// fakeOracle answers from a table keyed by resource and date. Unknown dates
// are available.
type fakeOracle struct {
	mu      sync.Mutex
	answers map[string]Availability
	fail    map[string]bool
	failAll bool
	// delay, when set, is applied before answering.
	delay func(date time.Time) time.Duration
	// gate, when set for a resource, blocks calls until it is closed. The
	// call ignores ctx so that a stale pass really finishes late.
	gate map[string]chan struct{}

	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		answers: make(map[string]Availability),
		fail:    make(map[string]bool),
		gate:    make(map[string]chan struct{}),
	}
}

func oracleKey(resourceID string, d time.Time) string {
	return fmt.Sprintf("%s/%s", resourceID, FormatDate(d))
}

func (o *fakeOracle) set(resourceID, day string, a Availability) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.answers[oracleKey(resourceID, date(day))] = a
}

func (o *fakeOracle) failOn(resourceID, day string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail[oracleKey(resourceID, date(day))] = true
}

func (o *fakeOracle) block(resourceID string) chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := make(chan struct{})
	o.gate[resourceID] = ch
	return ch
}

func (o *fakeOracle) Check(ctx context.Context, resourceID string, d time.Time, start, end Clock) (Availability, error) {
	o.calls.Add(1)
	n := o.inFlight.Add(1)
	defer o.inFlight.Add(-1)
	for {
		seen := o.maxSeen.Load()
		if n <= seen || o.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	o.mu.Lock()
	gate := o.gate[resourceID]
	delay := o.delay
	o.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if delay != nil {
		select {
		case <-time.After(delay(d)):
		case <-ctx.Done():
			return Availability{}, ctx.Err()
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	key := oracleKey(resourceID, d)
	if o.failAll || o.fail[key] {
		return Availability{}, errOracleDown
	}
	if a, ok := o.answers[key]; ok {
		return a, nil
	}
	return Availability{Available: true}, nil
}

// fakeSubmitter records payloads and fails dates listed in reject.
type fakeSubmitter struct {
	mu       sync.Mutex
	reject   map[string]error
	received []Payload
	seq      int
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{reject: make(map[string]error)}
}

func (s *fakeSubmitter) SubmitBatch(_ context.Context, payloads []Payload) []SubmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, payloads...)

	results := make([]SubmitResult, len(payloads))
	for i, p := range payloads {
		results[i] = SubmitResult{Payload: p}
		if err, ok := s.reject[FormatDate(p.Date)]; ok {
			results[i].Err = err
			continue
		}
		s.seq++
		results[i].BookingID = fmt.Sprintf("booking-%d", s.seq)
	}
	return results
}
