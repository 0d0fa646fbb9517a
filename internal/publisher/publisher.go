// Package publisher drains the event bus in batches and pushes each event
// to the downstream broker.
package publisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/freightsignal/sentinel/internal/bus"
	"github.com/freightsignal/sentinel/internal/metrics"
	"github.com/freightsignal/sentinel/internal/model"
)

// BatchSize is the maximum number of events drained per cycle.
const BatchSize = 50

// IdleSleep is how long the publisher waits when the bus is empty.
const IdleSleep = 100 * time.Millisecond

// drainGrace bounds the final drain's broker round trips after shutdown
// fires, so a hung broker cannot hold the process past the supervisor's
// grace period.
const drainGrace = 5 * time.Second

// Sink is the downstream destination for serialized events. pkg/broker
// satisfies it.
type Sink interface {
	Publish(ctx context.Context, e model.Event) error
}

// Publisher is the bus's single consumer.
type Publisher struct {
	bus       *bus.Bus
	sink      Sink
	collector *metrics.Collector
	log       zerolog.Logger
}

// New constructs a Publisher.
func New(b *bus.Bus, sink Sink, collector *metrics.Collector, log zerolog.Logger) *Publisher {
	return &Publisher{
		bus:       b,
		sink:      sink,
		collector: collector,
		log:       log.With().Str("component", "publisher").Logger(),
	}
}

// Run drains the bus until ctx is cancelled or the bus closes. On
// cancellation it performs one final drain of whatever is buffered, then
// exits. A failed publish is logged and counted; the event is lost, per
// the at-least-once-with-drops contract.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.finalDrain()
			return nil
		default:
		}

		batch, closed := p.bus.DequeueBatch(BatchSize)
		if len(batch) > 0 {
			p.publishBatch(ctx, batch)
		}
		if closed {
			return nil
		}
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				p.finalDrain()
				return nil
			case <-time.After(IdleSleep):
			}
		}
	}
}

// finalDrain empties the bus once after shutdown, publishing under a
// fresh bounded context since the run context is already cancelled.
func (p *Publisher) finalDrain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainGrace)
	defer cancel()

	for {
		batch, closed := p.bus.DequeueBatch(BatchSize)
		if len(batch) > 0 {
			p.publishBatch(ctx, batch)
		}
		if len(batch) < BatchSize || closed {
			return
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context, batch []model.Event) {
	for _, e := range batch {
		if err := p.sink.Publish(ctx, e); err != nil {
			p.collector.IncrementRedisFailures()
			p.log.Error().Err(err).Str("company", e.CompanyName).Msg("publish failed, event lost")
			continue
		}
		p.collector.IncrementPublished()
	}
}
