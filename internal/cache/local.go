package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// DefaultLocalMaxEntries bounds the in-process tier
const DefaultLocalMaxEntries = 1000

// defaultSweepInterval is how often expired local entries are reaped
const defaultSweepInterval = time.Minute

type localEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	elem      *list.Element
}

// Local is the bounded in-process cache tier. Eviction is insertion-order:
// when full, the oldest-inserted entry goes first. This is deliberately
// weaker than LRU; the tier is small and short-lived, so tracking access
// recency is not worth the bookkeeping.
type Local struct {
	mu         sync.Mutex
	entries    map[string]*localEntry
	order      *list.List // front = oldest inserted
	maxEntries int

	now      func() time.Time
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewLocal creates a local tier with the given capacity and starts the
// background expiry sweep. maxEntries <= 0 uses the default.
func NewLocal(maxEntries int) *Local {
	l := newLocal(maxEntries, time.Now)
	go l.sweepLoop(defaultSweepInterval)
	return l
}

// newLocal builds a tier without the sweep goroutine; tests inject the clock
func newLocal(maxEntries int, now func() time.Time) *Local {
	if maxEntries <= 0 {
		maxEntries = DefaultLocalMaxEntries
	}

	return &Local{
		entries:    make(map[string]*localEntry),
		order:      list.New(),
		maxEntries: maxEntries,
		now:        now,
		stopChan:   make(chan struct{}),
	}
}

// Get returns the value for key if present and unexpired
func (l *Local) Get(key string) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return nil, false
	}

	if !l.now().Before(e.expiresAt) {
		l.removeLocked(e)
		return nil, false
	}

	return e.value, true
}

// Set stores a value with TTL, evicting the oldest-inserted entry when full.
// Overwriting an existing key keeps its original insertion position.
func (l *Local) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok {
		e.value = value
		e.expiresAt = l.now().Add(ttl)
		return
	}

	if len(l.entries) >= l.maxEntries {
		if oldest := l.order.Front(); oldest != nil {
			l.removeLocked(oldest.Value.(*localEntry))
		}
	}

	e := &localEntry{
		key:       key,
		value:     value,
		expiresAt: l.now().Add(ttl),
	}
	e.elem = l.order.PushBack(e)
	l.entries[key] = e
}

// Delete removes a key if present
func (l *Local) Delete(keys ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, key := range keys {
		if e, ok := l.entries[key]; ok {
			l.removeLocked(e)
		}
	}
}

// DeleteContaining removes every key containing the substring. The local
// tier matches looser than the remote glob on purpose: it is small and
// short-lived, so over-deleting costs one recompute at most.
func (l *Local) DeleteContaining(substr string) {
	if substr == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		if strings.Contains(key, substr) {
			l.removeLocked(e)
		}
	}
}

// Len returns the number of entries, expired ones included until swept
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// MaxEntries returns the capacity bound
func (l *Local) MaxEntries() int {
	return l.maxEntries
}

// Has reports whether the key is present and unexpired
func (l *Local) Has(key string) bool {
	_, ok := l.Get(key)
	return ok
}

// Close stops the background sweep
func (l *Local) Close() {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
}

func (l *Local) removeLocked(e *localEntry) {
	l.order.Remove(e.elem)
	delete(l.entries, e.key)
}

func (l *Local) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep removes expired entries independent of capacity pressure
func (l *Local) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	for e := l.order.Front(); e != nil; {
		next := e.Next()
		entry := e.Value.(*localEntry)
		if !now.Before(entry.expiresAt) {
			l.removeLocked(entry)
		}
		e = next
	}
}
