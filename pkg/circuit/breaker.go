// Package circuit implements a per-endpoint circuit breaker: a failure-
// tripped gate guarding an outbound poll against a flaky upstream.
package circuit

import (
	"sync"
	"time"
)

// State is one of the breaker's three states.
type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config parameterizes a Breaker. FailureThreshold is consecutive failures
// from Closed before tripping to Open. ResetTimeout is how long Open waits
// before allowing a probe into HalfOpen. SuccessThreshold is the number of
// consecutive HalfOpen successes required to close again.
type Config struct {
	Name             string
	FailureThreshold int
	ResetTimeout     time.Duration
	SuccessThreshold int
	OnStateChange    func(from, to State)
}

// Breaker guards a single endpoint. Every operation holds b.mu for its
// entire duration: durations are short and each breaker is uncontended
// (one poller owns it), so a single exclusive mutex is simpler than the
// split atomic/mutex discipline a highly contended breaker would need.
type Breaker struct {
	name             string
	failureThreshold int
	resetTimeout     time.Duration
	successThreshold int
	onStateChange    func(from, to State)

	mu             sync.Mutex
	state          State
	failures       int
	successes      int
	tripCount      int
	lastFailureAt  time.Time
	stateChangedAt time.Time
}

// Snapshot is a point-in-time view of a Breaker's state and counters.
type Snapshot struct {
	Name          string
	State         State
	Failures      int
	Successes     int
	TripCount     int
	TimeInState   time.Duration
	LastFailureAt time.Time
}

// New constructs a Breaker in the Closed state.
func New(cfg Config) *Breaker {
	return &Breaker{
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		resetTimeout:     cfg.ResetTimeout,
		successThreshold: cfg.SuccessThreshold,
		onStateChange:    cfg.OnStateChange,
		state:            StateClosed,
		stateChangedAt:   time.Now(),
	}
}

// Allow reports whether a request may proceed. Closed and HalfOpen always
// allow. Open allows exactly when the reset timeout has elapsed, and doing
// so is itself the transition into HalfOpen.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(b.lastFailureAt) >= b.resetTimeout {
			b.successes = 0
			b.transitionTo(StateHalfOpen)
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess reports a successful call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.failures = 0
			b.successes = 0
			b.transitionTo(StateClosed)
		}
	}
}

// RecordFailure reports a failed call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.lastFailureAt = time.Now()
			b.tripCount++
			b.transitionTo(StateOpen)
		}
	case StateOpen:
		b.lastFailureAt = time.Now()
	case StateHalfOpen:
		b.lastFailureAt = time.Now()
		b.successes = 0
		b.tripCount++
		b.transitionTo(StateOpen)
	}
}

// transitionTo must be called with b.mu held.
func (b *Breaker) transitionTo(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.stateChangedAt = time.Now()
	if b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}

// Snapshot returns the breaker's current state, counters, and time spent
// in the current state.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		Name:          b.name,
		State:         b.state,
		Failures:      b.failures,
		Successes:     b.successes,
		TripCount:     b.tripCount,
		TimeInState:   time.Since(b.stateChangedAt),
		LastFailureAt: b.lastFailureAt,
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Group is a named registry of Breakers sharing a Config template,
// letting the supervisor and metrics server enumerate every poller's
// breaker without each poller having to publish its own reference.
type Group struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	template Config
}

// NewGroup creates a Group. template.Name is ignored; each Get call sets
// the name to the requested key.
func NewGroup(template Config) *Group {
	return &Group{
		breakers: make(map[string]*Breaker),
		template: template,
	}
}

// Get returns the named breaker, creating it from the group's template
// config on first use.
func (g *Group) Get(name string) *Breaker {
	g.mu.RLock()
	b, ok := g.breakers[name]
	g.mu.RUnlock()
	if ok {
		return b
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok = g.breakers[name]; ok {
		return b
	}
	cfg := g.template
	cfg.Name = name
	b = New(cfg)
	g.breakers[name] = b
	return b
}

// TotalTrips sums the trip count across every breaker in the group, for
// the aggregate circuit_breaker_trips metric.
func (g *Group) TotalTrips() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	total := 0
	for _, b := range g.breakers {
		total += b.Snapshot().TripCount
	}
	return total
}

// Snapshots returns every breaker's snapshot, keyed by name.
func (g *Group) Snapshots() map[string]Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]Snapshot, len(g.breakers))
	for name, b := range g.breakers {
		out[name] = b.Snapshot()
	}
	return out
}
