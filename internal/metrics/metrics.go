// Package metrics collects atomic counters for every source and serves
// them as a JSON snapshot over a hand-written HTTP/1.1 response, one per
// accepted connection.
package metrics

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is the JSON body served by the metrics endpoint. Field names
// and the set of fields are fixed to match the operator dashboard this
// engine feeds.
type Snapshot struct {
	TotalEventsDetected     uint64  `json:"total_events_detected"`
	TotalEventsPublished    uint64  `json:"total_events_published"`
	TotalEventsDeduplicated uint64  `json:"total_events_deduplicated"`
	PacerEvents             uint64  `json:"pacer_events"`
	EdgarEvents             uint64  `json:"edgar_events"`
	FmcsaEvents             uint64  `json:"fmcsa_events"`
	CourtListenerEvents     uint64  `json:"court_listener_events"`
	PacerErrors             uint64  `json:"pacer_errors"`
	EdgarErrors             uint64  `json:"edgar_errors"`
	FmcsaErrors             uint64  `json:"fmcsa_errors"`
	CourtListenerErrors     uint64  `json:"court_listener_errors"`
	UptimeSeconds           uint64  `json:"uptime_seconds"`
	EventsPerMinute         float64 `json:"events_per_minute"`
	CircuitBreakerTrips     uint64  `json:"circuit_breaker_trips"`
	BloomFilterRotations    uint64  `json:"bloom_filter_rotations"`
	RedisPublishFailures    uint64  `json:"redis_publish_failures"`
	Status                  string  `json:"status"`
}

// Source names match the constants in internal/model.
const (
	SourcePacer         = "pacer"
	SourceEdgar         = "edgar"
	SourceFmcsa         = "fmcsa"
	SourceCourtListener = "court_listener"
)

// Collector holds every atomic counter the snapshot reports.
type Collector struct {
	totalDetected     atomic.Uint64
	totalPublished    atomic.Uint64
	totalDeduplicated atomic.Uint64

	pacerEvents, edgarEvents, fmcsaEvents, courtListenerEvents atomic.Uint64
	pacerErrors, edgarErrors, fmcsaErrors, courtListenerErrors atomic.Uint64

	circuitBreakerTrips  atomic.Uint64
	bloomFilterRotations atomic.Uint64
	redisPublishFailures atomic.Uint64

	startedAt time.Time
}

// New constructs a Collector with its uptime clock starting now.
func New() *Collector {
	return &Collector{startedAt: time.Now()}
}

func (c *Collector) IncrementDetected()     { c.totalDetected.Add(1) }
func (c *Collector) IncrementPublished()    { c.totalPublished.Add(1) }
func (c *Collector) IncrementDeduplicated() { c.totalDeduplicated.Add(1) }

// IncrementSourceEvents bumps the per-source event counter for source.
func (c *Collector) IncrementSourceEvents(source string) {
	switch source {
	case SourcePacer:
		c.pacerEvents.Add(1)
	case SourceEdgar:
		c.edgarEvents.Add(1)
	case SourceFmcsa:
		c.fmcsaEvents.Add(1)
	case SourceCourtListener:
		c.courtListenerEvents.Add(1)
	}
}

// IncrementSourceErrors bumps the per-source error counter for source.
func (c *Collector) IncrementSourceErrors(source string) {
	switch source {
	case SourcePacer:
		c.pacerErrors.Add(1)
	case SourceEdgar:
		c.edgarErrors.Add(1)
	case SourceFmcsa:
		c.fmcsaErrors.Add(1)
	case SourceCourtListener:
		c.courtListenerErrors.Add(1)
	}
}

func (c *Collector) IncrementCircuitBreakerTrips(n int) {
	c.circuitBreakerTrips.Add(uint64(n))
}

func (c *Collector) IncrementBloomRotations() { c.bloomFilterRotations.Add(1) }
func (c *Collector) IncrementRedisFailures()  { c.redisPublishFailures.Add(1) }

// Snapshot takes a lock-free read of every counter.
func (c *Collector) Snapshot() Snapshot {
	uptime := uint64(time.Since(c.startedAt).Seconds())
	detected := c.totalDetected.Load()

	var eventsPerMinute float64
	if uptime > 0 {
		eventsPerMinute = (float64(detected) / float64(uptime)) * 60.0
	}

	return Snapshot{
		TotalEventsDetected:     detected,
		TotalEventsPublished:    c.totalPublished.Load(),
		TotalEventsDeduplicated: c.totalDeduplicated.Load(),
		PacerEvents:             c.pacerEvents.Load(),
		EdgarEvents:             c.edgarEvents.Load(),
		FmcsaEvents:             c.fmcsaEvents.Load(),
		CourtListenerEvents:     c.courtListenerEvents.Load(),
		PacerErrors:             c.pacerErrors.Load(),
		EdgarErrors:             c.edgarErrors.Load(),
		FmcsaErrors:             c.fmcsaErrors.Load(),
		CourtListenerErrors:     c.courtListenerErrors.Load(),
		UptimeSeconds:           uptime,
		EventsPerMinute:         eventsPerMinute,
		CircuitBreakerTrips:     c.circuitBreakerTrips.Load(),
		BloomFilterRotations:    c.bloomFilterRotations.Load(),
		RedisPublishFailures:    c.redisPublishFailures.Load(),
		Status:                  "operational",
	}
}

// Serve accepts connections on addr and writes one hand-written HTTP/1.1
// response per connection, deliberately not parsing the request line:
// any bytes sent by the client get the current snapshot back. It returns
// when ctx is cancelled.
func Serve(ctx context.Context, addr string, collector *Collector, log zerolog.Logger) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Info().Str("addr", addr).Msg("metrics server listening")

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Error().Err(err).Msg("metrics server accept error")
				return err
			}
		}
		go respond(conn, collector, log)
	}
}

func respond(conn net.Conn, collector *Collector, log zerolog.Logger) {
	defer conn.Close()

	body, err := json.MarshalIndent(collector.Snapshot(), "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("metrics snapshot marshal failed")
		body = []byte("{}")
	}

	response := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: application/json\r\n" +
		"Access-Control-Allow-Origin: *\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"\r\n" + string(body)

	_, _ = conn.Write([]byte(response))
}
