package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestLocal(maxEntries int) (*Local, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return newLocal(maxEntries, clock.Now), clock
}

func TestLocalTTLExpiry(t *testing.T) {
	l, clock := newTestLocal(10)

	l.Set("k", []byte("v"), 30*time.Second)

	val, ok := l.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	clock.Advance(29 * time.Second)
	_, ok = l.Get("k")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = l.Get("k")
	assert.False(t, ok)
}

func TestLocalEvictionBound(t *testing.T) {
	const maxSize = 5
	const extra = 3

	l, _ := newTestLocal(maxSize)

	for i := 0; i < maxSize+extra; i++ {
		l.Set(fmt.Sprintf("key-%d", i), []byte("v"), time.Minute)
	}

	assert.Equal(t, maxSize, l.Len())

	// The oldest-inserted keys are the ones gone
	for i := 0; i < extra; i++ {
		assert.False(t, l.Has(fmt.Sprintf("key-%d", i)), "key-%d should be evicted", i)
	}
	for i := extra; i < maxSize+extra; i++ {
		assert.True(t, l.Has(fmt.Sprintf("key-%d", i)), "key-%d should survive", i)
	}
}

func TestLocalEvictionIsInsertionOrderNotAccessOrder(t *testing.T) {
	l, _ := newTestLocal(2)

	l.Set("a", []byte("1"), time.Minute)
	l.Set("b", []byte("2"), time.Minute)

	// Touch "a"; with true LRU this would protect it. Insertion-order
	// eviction still drops it first.
	_, ok := l.Get("a")
	assert.True(t, ok)

	l.Set("c", []byte("3"), time.Minute)

	assert.False(t, l.Has("a"))
	assert.True(t, l.Has("b"))
	assert.True(t, l.Has("c"))
}

func TestLocalOverwriteDoesNotGrow(t *testing.T) {
	l, _ := newTestLocal(3)

	l.Set("k", []byte("v1"), time.Minute)
	l.Set("k", []byte("v2"), time.Minute)

	assert.Equal(t, 1, l.Len())

	val, ok := l.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), val)
}

func TestLocalSweepRemovesExpired(t *testing.T) {
	l, clock := newTestLocal(10)

	l.Set("short", []byte("v"), 10*time.Second)
	l.Set("long", []byte("v"), 10*time.Minute)

	clock.Advance(time.Minute)
	l.sweep()

	assert.Equal(t, 1, l.Len())
	assert.True(t, l.Has("long"))
}

func TestLocalDeleteContaining(t *testing.T) {
	l, _ := newTestLocal(10)

	l.Set("cache:analytics:overview:u1", []byte("v"), time.Minute)
	l.Set("cache:analytics:timeseries:u1", []byte("v"), time.Minute)
	l.Set("cache:accounts:list:u1", []byte("v"), time.Minute)

	l.DeleteContaining("cache:analytics:")

	assert.Equal(t, 1, l.Len())
	assert.True(t, l.Has("cache:accounts:list:u1"))
}
