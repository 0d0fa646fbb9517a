package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	busPkg "github.com/freightsignal/sentinel/internal/bus"
	"github.com/freightsignal/sentinel/internal/metrics"
	"github.com/freightsignal/sentinel/internal/model"
)

type fakeSink struct {
	mu        sync.Mutex
	published []model.Event
	failNext  int
}

func (s *fakeSink) Publish(ctx context.Context, e model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return errors.New("broker unavailable")
	}
	s.published = append(s.published, e)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

func newEvent(name string) model.Event {
	return model.NewEvent(name, model.SourcePacer, model.Chapter11, 0.8, model.ClassificationCarrier)
}

func TestRunPublishesBufferedEventsAndExitsOnClose(t *testing.T) {
	b := busPkg.New(100)
	sink := &fakeSink{}
	p := New(b, sink, metrics.New(), zerolog.Nop())

	require.True(t, b.TryEnqueue(newEvent("Acme Freight")))
	require.True(t, b.TryEnqueue(newEvent("Zenith Logistics")))
	b.Close()

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publisher did not exit on closed bus")
	}
	assert.Equal(t, 2, sink.count())
}

func TestRunDrainsOnShutdown(t *testing.T) {
	b := busPkg.New(100)
	sink := &fakeSink{}
	collector := metrics.New()
	p := New(b, sink, collector, zerolog.Nop())

	for i := 0; i < 75; i++ {
		require.True(t, b.TryEnqueue(newEvent("Acme Freight")))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 75, sink.count())
	assert.Equal(t, uint64(75), collector.Snapshot().TotalEventsPublished)
}

func TestRunContinuesPastPublishFailures(t *testing.T) {
	b := busPkg.New(100)
	sink := &fakeSink{failNext: 2}
	collector := metrics.New()
	p := New(b, sink, collector, zerolog.Nop())

	for i := 0; i < 5; i++ {
		require.True(t, b.TryEnqueue(newEvent("Acme Freight")))
	}
	b.Close()

	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, 3, sink.count())
	snap := collector.Snapshot()
	assert.Equal(t, uint64(2), snap.RedisPublishFailures)
	assert.Equal(t, uint64(3), snap.TotalEventsPublished)
}

func TestRunIdlesOnEmptyBusUntilEventArrives(t *testing.T) {
	b := busPkg.New(100)
	sink := &fakeSink{}
	p := New(b, sink, metrics.New(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.True(t, b.TryEnqueue(newEvent("Late Arrival Trucking")))

	assert.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publisher did not exit on cancellation")
	}
}
