// Package poller implements the shared polling skeleton every source
// package (pacer, edgar, fmcsa, courtlistener) plugs into: wait for the
// poll interval or shutdown, check the circuit breaker, fetch, evaluate
// each record, dedupe, and enqueue.
package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/freightsignal/sentinel/internal/bus"
	"github.com/freightsignal/sentinel/internal/dedup"
	"github.com/freightsignal/sentinel/internal/metrics"
	"github.com/freightsignal/sentinel/internal/model"
	"github.com/freightsignal/sentinel/pkg/circuit"
)

// FetchErrorKind distinguishes the outcomes the shared loop treats
// differently. Transport failures and HTTP 429 both trip the breaker and
// log at warn. A non-2xx status other than 429, and a parse failure,
// are both logged at debug and do not count against the breaker.
type FetchErrorKind int

const (
	FetchErrorTransport FetchErrorKind = iota
	FetchErrorRateLimited
	FetchErrorOtherStatus
	FetchErrorParse
)

// FetchError wraps an error from Source.Fetch with the category the
// shared loop needs to decide breaker bookkeeping.
type FetchError struct {
	Kind FetchErrorKind
	Err  error
}

func (e *FetchError) Error() string { return e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// Source is the contract a concrete source package implements. Evaluate
// receives one fetched record and decides, using whatever source-specific
// logic applies (text classification, a structured policy table, or
// both), whether it represents a distress signal worth emitting.
type Source[R any] interface {
	// Name identifies the source for logging.
	Name() string
	// Fetch retrieves one cycle's worth of records. A non-nil error
	// should be a *FetchError so the shared loop can categorize it.
	Fetch(ctx context.Context) ([]R, error)
	// Evaluate decides whether record r is a signal worth publishing. ok
	// is false to skip the record entirely (quick-check miss, below
	// confidence threshold, no death signal, etc).
	Evaluate(r R) (event model.Event, dedupKey string, ok bool)
}

// Poller runs a Source's fetch/evaluate cycle on a fixed interval, guarded
// by a circuit breaker, feeding accepted events into the shared bus.
type Poller[R any] struct {
	source       Source[R]
	breaker      *circuit.Breaker
	dedup        *dedup.Deduplicator
	bus          *bus.Bus
	collector    *metrics.Collector
	pollInterval time.Duration
	log          zerolog.Logger

	eventsEmitted  atomic.Uint64
	errorsObserved atomic.Uint64
}

// New constructs a Poller. collector receives per-source event and error
// counts for the metrics endpoint.
func New[R any](source Source[R], breaker *circuit.Breaker, dd *dedup.Deduplicator, b *bus.Bus, collector *metrics.Collector, pollInterval time.Duration, log zerolog.Logger) *Poller[R] {
	return &Poller[R]{
		source:       source,
		breaker:      breaker,
		dedup:        dd,
		bus:          b,
		collector:    collector,
		pollInterval: pollInterval,
		log:          log.With().Str("source", source.Name()).Logger(),
	}
}

// Run executes the poll loop until ctx is cancelled. It returns nil on a
// clean shutdown; it never returns a non-nil error, since every failure
// mode short of ctx cancellation is handled by logging and continuing.
func (p *Poller[R]) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller[R]) cycle(ctx context.Context) {
	if !p.breaker.Allow() {
		p.log.Debug().Msg("circuit breaker open, skipping cycle")
		return
	}

	records, err := p.source.Fetch(ctx)
	if err != nil {
		p.errorsObserved.Add(1)
		p.collector.IncrementSourceErrors(p.source.Name())
		var fe *FetchError
		switch {
		case errors.As(err, &fe) && fe.Kind == FetchErrorOtherStatus:
			p.log.Debug().Err(err).Msg("non-2xx response")
			return
		case errors.As(err, &fe) && fe.Kind == FetchErrorParse:
			p.log.Debug().Err(err).Msg("parse failure, skipping cycle")
			return
		case errors.As(err, &fe) && fe.Kind == FetchErrorRateLimited:
			p.breaker.RecordFailure()
			p.log.Warn().Err(err).Msg("rate limited")
			return
		default:
			p.breaker.RecordFailure()
			p.log.Warn().Err(err).Msg("fetch failed")
			return
		}
	}
	p.breaker.RecordSuccess()

	for _, r := range records {
		event, key, ok := p.source.Evaluate(r)
		if !ok {
			continue
		}
		if !p.dedup.CheckAndInsert(key) {
			p.collector.IncrementDeduplicated()
			p.log.Debug().Str("dedup_key", key).Msg("duplicate suppressed")
			continue
		}
		if !p.bus.TryEnqueue(event) {
			p.log.Error().Str("dedup_key", key).Msg("event bus full, dropping event")
			continue
		}
		p.eventsEmitted.Add(1)
		p.collector.IncrementDetected()
		p.collector.IncrementSourceEvents(p.source.Name())
	}
}

// EventsEmitted returns the running count of events this poller has
// enqueued, for the metrics server.
func (p *Poller[R]) EventsEmitted() uint64 { return p.eventsEmitted.Load() }

// ErrorsObserved returns the running count of fetch errors, for the
// metrics server.
func (p *Poller[R]) ErrorsObserved() uint64 { return p.errorsObserved.Load() }
