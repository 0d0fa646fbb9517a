package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightsignal/sentinel/internal/model"
)

func testEvent() model.Event {
	return model.NewEvent("Acme Freight LLC", model.SourceEdgar, model.Chapter11, 0.5, model.ClassificationCarrier)
}

func TestTryEnqueueBoundedAndLossyOnOverflow(t *testing.T) {
	b := New(4)
	for i := 0; i < 4; i++ {
		require.True(t, b.TryEnqueue(testEvent()))
	}
	assert.False(t, b.TryEnqueue(testEvent()))
}

func TestDequeueBatchDrainsUpToMax(t *testing.T) {
	b := New(10)
	for i := 0; i < 7; i++ {
		require.True(t, b.TryEnqueue(testEvent()))
	}
	batch, closed := b.DequeueBatch(5)
	assert.Len(t, batch, 5)
	assert.False(t, closed)

	batch, closed = b.DequeueBatch(5)
	assert.Len(t, batch, 2)
	assert.False(t, closed)
}

func TestDequeueBatchEmptyReturnsImmediately(t *testing.T) {
	b := New(10)
	batch, closed := b.DequeueBatch(50)
	assert.Empty(t, batch)
	assert.False(t, closed)
}

func TestCloseDrainsThenReportsClosed(t *testing.T) {
	b := New(10)
	require.True(t, b.TryEnqueue(testEvent()))
	require.True(t, b.TryEnqueue(testEvent()))
	b.Close()

	batch, closed := b.DequeueBatch(50)
	assert.Len(t, batch, 2)
	assert.True(t, closed)

	batch, closed = b.DequeueBatch(50)
	assert.Empty(t, batch)
	assert.True(t, closed)
}
