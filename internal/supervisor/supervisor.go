// Package supervisor wires the engine together: it constructs the shared
// components, spawns one task per poller plus the publisher and the
// metrics server, distributes the shutdown signal, and bounds the drain.
package supervisor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/freightsignal/sentinel/internal/bus"
	"github.com/freightsignal/sentinel/internal/classifier"
	"github.com/freightsignal/sentinel/internal/config"
	"github.com/freightsignal/sentinel/internal/dedup"
	"github.com/freightsignal/sentinel/internal/metrics"
	"github.com/freightsignal/sentinel/internal/poller"
	"github.com/freightsignal/sentinel/internal/poller/courtlistener"
	"github.com/freightsignal/sentinel/internal/poller/edgar"
	"github.com/freightsignal/sentinel/internal/poller/fmcsa"
	"github.com/freightsignal/sentinel/internal/poller/pacer"
	"github.com/freightsignal/sentinel/internal/publisher"
	"github.com/freightsignal/sentinel/pkg/broker"
	"github.com/freightsignal/sentinel/pkg/circuit"
)

// ShutdownGrace bounds how long the supervisor waits for tasks to drain
// after the shutdown signal before abandoning them.
const ShutdownGrace = 10 * time.Second

// Run builds every component from cfg and blocks until ctx is cancelled
// and the pipeline has drained (or the grace period expires). It returns
// a non-nil error only for startup failures.
func Run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	log.Info().Int("cpus", runtime.NumCPU()).Msg("starting freight distress sentinel")

	cls := classifier.New()

	collector := metrics.New()

	dd, err := dedup.New(cfg.DedupExpectedItems, cfg.DedupFPRate, cfg.DedupCacheCapacity, cfg.DedupRotationInterval)
	if err != nil {
		return fmt.Errorf("supervisor: build deduplicator: %w", err)
	}
	dd.OnRotate(collector.IncrementBloomRotations)

	b := bus.New(bus.DefaultCapacity)

	breakers := circuit.NewGroup(circuit.Config{
		FailureThreshold: cfg.BreakerFailureThreshold,
		ResetTimeout:     cfg.BreakerResetTimeout,
		SuccessThreshold: cfg.BreakerSuccessThreshold,
		OnStateChange: func(from, to circuit.State) {
			if to == circuit.StateOpen {
				collector.IncrementCircuitBreakerTrips(1)
			}
		},
	})

	brk, err := broker.Connect(ctx, broker.Config{
		URL:     cfg.RedisURL,
		Channel: cfg.RedisChannel,
		LogKey:  cfg.RedisLogKey,
	}, log)
	if err != nil {
		return fmt.Errorf("supervisor: connect broker: %w", err)
	}
	defer brk.Close()

	pub := publisher.New(b, brk, collector, log)

	pacerPoller := poller.New[pacer.Item](
		pacer.New(cfg.PacerBaseURL, cfg.UserAgent, cls, cfg.MinConfidence),
		breakers.Get(metrics.SourcePacer), dd, b, collector, cfg.PacerInterval, log)
	edgarPoller := poller.New[edgar.Hit](
		edgar.New(cfg.EdgarBaseURL, cfg.UserAgent, cls, cfg.MinConfidence),
		breakers.Get(metrics.SourceEdgar), dd, b, collector, cfg.EdgarInterval, log)
	fmcsaPoller := poller.New[fmcsa.Record](
		fmcsa.New(cfg.FmcsaBaseURL, cfg.UserAgent, cls),
		breakers.Get(metrics.SourceFmcsa), dd, b, collector, cfg.FmcsaInterval, log)
	clPoller := poller.New[courtlistener.Result](
		courtlistener.New(cfg.CourtListenerBaseURL, cfg.UserAgent, cls, cfg.MinConfidence),
		breakers.Get(metrics.SourceCourtListener), dd, b, collector, cfg.CourtListenerInterval, log)

	g, gctx := errgroup.WithContext(ctx)

	// Producers get their own WaitGroup so the bus can be closed exactly
	// when the last poller exits, letting the publisher observe
	// end-of-stream after the final drain.
	var producers sync.WaitGroup
	runProducer := func(run func(context.Context) error) {
		producers.Add(1)
		g.Go(func() error {
			defer producers.Done()
			return run(gctx)
		})
	}
	runProducer(pacerPoller.Run)
	runProducer(edgarPoller.Run)
	runProducer(fmcsaPoller.Run)
	runProducer(clPoller.Run)
	g.Go(func() error {
		producers.Wait()
		b.Close()
		return nil
	})

	g.Go(func() error { return pub.Run(gctx) })
	g.Go(func() error {
		return metrics.Serve(gctx, fmt.Sprintf(":%d", cfg.MetricsPort), collector, log)
	})

	waitErr := make(chan error, 1)
	go func() { waitErr <- g.Wait() }()

	select {
	case err := <-waitErr:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, draining")
		select {
		case err := <-waitErr:
			log.Info().Msg("drained cleanly")
			return err
		case <-time.After(ShutdownGrace):
			log.Warn().Dur("grace", ShutdownGrace).Msg("grace period expired, abandoning remaining tasks")
			return nil
		}
	}
}
