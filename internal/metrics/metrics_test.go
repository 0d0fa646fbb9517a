package metrics

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotFieldsAndEventsPerMinute(t *testing.T) {
	c := New()
	c.startedAt = time.Now().Add(-60 * time.Second)

	c.IncrementDetected()
	c.IncrementDetected()
	c.IncrementPublished()
	c.IncrementDeduplicated()
	c.IncrementSourceEvents(SourcePacer)
	c.IncrementSourceErrors(SourceEdgar)
	c.IncrementCircuitBreakerTrips(3)
	c.IncrementBloomRotations()
	c.IncrementRedisFailures()

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap.TotalEventsDetected)
	assert.Equal(t, uint64(1), snap.TotalEventsPublished)
	assert.Equal(t, uint64(1), snap.TotalEventsDeduplicated)
	assert.Equal(t, uint64(1), snap.PacerEvents)
	assert.Equal(t, uint64(1), snap.EdgarErrors)
	assert.Equal(t, uint64(3), snap.CircuitBreakerTrips)
	assert.Equal(t, uint64(1), snap.BloomFilterRotations)
	assert.Equal(t, uint64(1), snap.RedisPublishFailures)
	assert.Equal(t, "operational", snap.Status)
	assert.InDelta(t, 2.0, snap.EventsPerMinute, 0.01)
}

func TestServeRespondsWithHandWrittenHTTPResponse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- Serve(ctx, addr, c, zerolog.Nop()) }()
	time.Sleep(20 * time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("anything at all\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(statusLine, "HTTP/1.1 200 OK"))

	var headers []string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		headers = append(headers, line)
	}
	assert.Contains(t, strings.Join(headers, "\n"), "Content-Type: application/json")

	body := make([]byte, 0)
	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		body = append(body, buf[:n]...)
		if err != nil {
			break
		}
	}

	var snap Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "operational", snap.Status)

	cancel()
}
