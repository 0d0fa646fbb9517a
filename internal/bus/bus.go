// Package bus implements the bounded in-process event bus between pollers
// and the publisher: multi-producer, single-consumer, non-blocking on
// both ends.
package bus

import "github.com/freightsignal/sentinel/internal/model"

// DefaultCapacity is the bus's capacity at startup.
const DefaultCapacity = 10000

// DefaultBatchSize is the consumer's batch dequeue size.
const DefaultBatchSize = 50

// Bus is a bounded FIFO of Events. The zero value is not usable; build
// one with New. Producers call TryEnqueue, the single consumer calls
// DequeueBatch, and the owner of every producer handle calls Close once
// all producers are done so the consumer can observe end-of-stream.
type Bus struct {
	ch chan model.Event
}

// New constructs a Bus with the given capacity.
func New(capacity int) *Bus {
	return &Bus{ch: make(chan model.Event, capacity)}
}

// TryEnqueue attempts to add e without blocking. It returns false if the
// bus is full, in which case the event is dropped: a poller stalling its
// own cadence to wait on a slow consumer would be worse than losing one
// event.
func (b *Bus) TryEnqueue(e model.Event) bool {
	select {
	case b.ch <- e:
		return true
	default:
		return false
	}
}

// DequeueBatch drains up to max events without blocking. closed reports
// whether the bus has been closed and is now fully drained; once closed
// is true no further events will ever arrive and the caller should stop
// polling.
func (b *Bus) DequeueBatch(max int) (batch []model.Event, closed bool) {
	for len(batch) < max {
		select {
		case e, ok := <-b.ch:
			if !ok {
				return batch, true
			}
			batch = append(batch, e)
		default:
			return batch, false
		}
	}
	return batch, false
}

// Close signals that no further events will be enqueued. The consumer
// continues to observe buffered events via DequeueBatch until drained.
func (b *Bus) Close() {
	close(b.ch)
}
