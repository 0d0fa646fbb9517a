// Package dedup suppresses re-emission of events already seen recently. It
// hybridizes a rotating Bloom filter (fast, no false negatives, tunable
// false-positive rate) with a bounded exact LRU cache that backstops the
// filter's false positives.
package dedup

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Deduplicator is safe for concurrent use by any number of callers. Reads
// against the approximate filter are many-reader/single-writer (RWMutex);
// the cache is internally synchronized by hashicorp/golang-lru and every
// access to it — including lookups — mutates recency, so it is always
// treated as exclusive.
type Deduplicator struct {
	expectedItems uint
	fpRate        float64
	rotationEvery time.Duration

	mu     sync.RWMutex // guards filter swap + reads
	filter *bloom.BloomFilter

	cache *lru.Cache[string, struct{}]

	lastRotationNanos atomic.Int64
	onRotate          func()

	checks          atomic.Uint64
	unique          atomic.Uint64
	duplicates      atomic.Uint64
	rotations       atomic.Uint64
	filterMaybeHits atomic.Uint64
}

// Stats is a point-in-time snapshot of the deduplicator's monotonic
// counters plus the cache's current size.
type Stats struct {
	Checks          uint64
	Unique          uint64
	Duplicates      uint64
	Rotations       uint64
	FilterMaybeHits uint64
	CacheSize       int
}

// New constructs a Deduplicator. expectedItems and fpRate size the Bloom
// filter; cacheCapacity bounds the exact LRU cache; rotationEvery is how
// often the filter is replaced with a fresh one of the same parameters.
func New(expectedItems uint, fpRate float64, cacheCapacity int, rotationEvery time.Duration) (*Deduplicator, error) {
	cache, err := lru.New[string, struct{}](cacheCapacity)
	if err != nil {
		return nil, err
	}
	d := &Deduplicator{
		expectedItems: expectedItems,
		fpRate:        fpRate,
		rotationEvery: rotationEvery,
		filter:        bloom.NewWithEstimates(expectedItems, fpRate),
		cache:         cache,
	}
	d.lastRotationNanos.Store(time.Now().UnixNano())
	return d, nil
}

// CheckAndInsert returns true iff key has not been seen in the current
// dedup window, inserting it into both the filter and the cache as a side
// effect. It never returns an error: a corrupted or oversubscribed filter
// simply degrades to "always maybe", and the cache still disambiguates.
func (d *Deduplicator) CheckAndInsert(key string) bool {
	d.checks.Add(1)
	d.maybeRotate()

	d.mu.RLock()
	maybe := d.filter.TestString(key)
	d.mu.RUnlock()

	if !maybe {
		d.insert(key)
		d.unique.Add(1)
		return true
	}

	d.filterMaybeHits.Add(1)
	if _, hit := d.cache.Get(key); hit {
		d.duplicates.Add(1)
		return false
	}

	// Filter false positive: the cache says this key was never actually
	// inserted, so treat it as new.
	d.insert(key)
	d.unique.Add(1)
	return true
}

func (d *Deduplicator) insert(key string) {
	d.mu.Lock()
	d.filter.AddString(key)
	d.mu.Unlock()
	d.cache.Add(key, struct{}{})
}

// maybeRotate is a double-checked gate: under concurrent callers that all
// observe the threshold simultaneously, exactly one of them performs the
// swap because the second check happens under the exclusive lock.
func (d *Deduplicator) maybeRotate() {
	if time.Duration(time.Now().UnixNano()-d.lastRotationNanos.Load()) < d.rotationEvery {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if time.Duration(time.Now().UnixNano()-d.lastRotationNanos.Load()) < d.rotationEvery {
		return
	}
	d.filter = bloom.NewWithEstimates(d.expectedItems, d.fpRate)
	d.lastRotationNanos.Store(time.Now().UnixNano())
	d.rotations.Add(1)
	if d.onRotate != nil {
		d.onRotate()
	}
}

// OnRotate registers fn to be called once per filter rotation, before any
// concurrent use begins. fn runs under the filter's write lock and must
// not call back into the Deduplicator.
func (d *Deduplicator) OnRotate(fn func()) {
	d.onRotate = fn
}

// Stats returns a snapshot of the counters; CacheSize is read on demand.
func (d *Deduplicator) Stats() Stats {
	return Stats{
		Checks:          d.checks.Load(),
		Unique:          d.unique.Load(),
		Duplicates:      d.duplicates.Load(),
		Rotations:       d.rotations.Load(),
		FilterMaybeHits: d.filterMaybeHits.Load(),
		CacheSize:       d.cache.Len(),
	}
}
