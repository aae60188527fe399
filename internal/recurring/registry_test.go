package recurring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryOwnership(t *testing.T) {
	r := NewRegistry(time.Hour, zap.NewNop())
	s := newTestSession(t, newFakeOracle(), mondaysInMarch("court-1"), 0, nil)
	r.Add(s)

	got, err := r.Get("session-1", "operator-1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = r.Get("session-1", "someone-else")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.Get("missing", "operator-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, r.Remove("session-1", "someone-else"), ErrSessionNotFound)
	require.NoError(t, r.Remove("session-1", "operator-1"))
	assert.Zero(t, r.Len())
	assert.ErrorIs(t, s.Recheck(), ErrSessionNotFound, "removed sessions are closed")
}

func TestRegistryReapIdle(t *testing.T) {
	r := NewRegistry(30*time.Minute, zap.NewNop())
	s := newTestSession(t, newFakeOracle(), mondaysInMarch("court-1"), 0, nil)
	r.Add(s)

	last := s.LastActive()
	assert.Zero(t, r.ReapIdle(last.Add(29*time.Minute)))
	assert.Equal(t, 1, r.Len())

	assert.Equal(t, 1, r.ReapIdle(last.Add(31*time.Minute)))
	assert.Zero(t, r.Len())
	assert.ErrorIs(t, s.Recheck(), ErrSessionNotFound)
}

func TestRegistryCronReaper(t *testing.T) {
	r := NewRegistry(time.Millisecond, zap.NewNop())
	require.Error(t, r.Start("every now and then"))

	r.Add(newTestSession(t, newFakeOracle(), mondaysInMarch("court-1"), 0, nil))
	// cron rounds sub-second intervals up to one second.
	require.NoError(t, r.Start("@every 10ms"))
	defer r.Stop()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestRegistryStopClosesSessions(t *testing.T) {
	r := NewRegistry(time.Hour, zap.NewNop())
	s := newTestSession(t, newFakeOracle(), mondaysInMarch("court-1"), 0, nil)
	r.Add(s)

	r.Stop()
	assert.Zero(t, r.Len())
	assert.ErrorIs(t, s.Recheck(), ErrSessionNotFound)
}
