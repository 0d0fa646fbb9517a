package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeduplicator(t *testing.T, rotation time.Duration) *Deduplicator {
	t.Helper()
	d, err := New(10000, 0.01, 1000, rotation)
	require.NoError(t, err)
	return d
}

func TestCheckAndInsertIdempotent(t *testing.T) {
	d := newTestDeduplicator(t, time.Hour)
	assert.True(t, d.CheckAndInsert("bankruptcy:acme_freight:chapter_11"))
	assert.False(t, d.CheckAndInsert("bankruptcy:acme_freight:chapter_11"))
	assert.False(t, d.CheckAndInsert("bankruptcy:acme_freight:chapter_11"))
}

func TestCheckAndInsertDistinctKeysIndependent(t *testing.T) {
	d := newTestDeduplicator(t, time.Hour)
	assert.True(t, d.CheckAndInsert("acme:carrier"))
	assert.True(t, d.CheckAndInsert("zenith:broker"))
	assert.False(t, d.CheckAndInsert("acme:carrier"))
	assert.False(t, d.CheckAndInsert("zenith:broker"))
}

func TestRotationForgetsKeys(t *testing.T) {
	d := newTestDeduplicator(t, time.Millisecond)
	require.True(t, d.CheckAndInsert("rotating-key"))
	time.Sleep(5 * time.Millisecond)

	// Evict the exact-match cache entry too, since rotation only replaces
	// the approximate filter; the scenario exercises a key that has aged
	// out of both layers.
	d.cache.Remove("rotating-key")

	assert.True(t, d.CheckAndInsert("rotating-key"))
	stats := d.Stats()
	assert.GreaterOrEqual(t, stats.Rotations, uint64(1))
}

func TestCheckAndInsertRejectsRepeatKey(t *testing.T) {
	d := newTestDeduplicator(t, time.Hour)
	first := d.CheckAndInsert("bankruptcy:acme_freight:chapter_11")
	second := d.CheckAndInsert("bankruptcy:acme_freight:chapter_11")
	assert.True(t, first)
	assert.False(t, second)
}

func TestOnRotateHookFiresPerRotation(t *testing.T) {
	d := newTestDeduplicator(t, time.Millisecond)
	fired := 0
	d.OnRotate(func() { fired++ })

	d.CheckAndInsert("a")
	time.Sleep(5 * time.Millisecond)
	d.CheckAndInsert("b")

	assert.Equal(t, int(d.Stats().Rotations), fired)
	assert.GreaterOrEqual(t, fired, 1)
}

func TestStatsCountChecksAndUnique(t *testing.T) {
	d := newTestDeduplicator(t, time.Hour)
	d.CheckAndInsert("a")
	d.CheckAndInsert("b")
	d.CheckAndInsert("a")

	stats := d.Stats()
	assert.Equal(t, uint64(3), stats.Checks)
	assert.Equal(t, uint64(2), stats.Unique)
	assert.Equal(t, uint64(1), stats.Duplicates)
	assert.Equal(t, 2, stats.CacheSize)
}
