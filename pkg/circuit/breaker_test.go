package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerTripsOnThreshold(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 3, ResetTimeout: time.Minute, SuccessThreshold: 2})

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 3, ResetTimeout: time.Minute, SuccessThreshold: 2})

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.Snapshot().Failures)

	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenReclosesAfterSuccessThreshold(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 3, ResetTimeout: 50 * time.Millisecond, SuccessThreshold: 2})

	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	time.Sleep(60 * time.Millisecond)

	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, StateHalfOpen, b.State())
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 1, ResetTimeout: time.Millisecond, SuccessThreshold: 2})

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())

	time.Sleep(5 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, 2, b.Snapshot().TripCount)
}

func TestBreakerSnapshotTracksTimeInState(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 1, ResetTimeout: time.Second, SuccessThreshold: 1})
	time.Sleep(5 * time.Millisecond)
	snap := b.Snapshot()
	assert.GreaterOrEqual(t, snap.TimeInState, 5*time.Millisecond)
	assert.Equal(t, "test", snap.Name)
}

func TestGroupGetCreatesAndReuses(t *testing.T) {
	g := NewGroup(Config{FailureThreshold: 2, ResetTimeout: time.Second, SuccessThreshold: 1})
	a := g.Get("pacer")
	b := g.Get("pacer")
	assert.Same(t, a, b)

	a.RecordFailure()
	a.RecordFailure()
	assert.Equal(t, 1, g.TotalTrips())
}
