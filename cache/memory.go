package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMemoryCap bounds the in-memory store when no cap is configured.
const DefaultMemoryCap = 4096

// Memory is an in-process store: sync.Map for lock-free reads, LRU eviction
// by access stamp once the entry cap is reached, optional TTL expiry checked
// lazily on access.
type Memory struct {
	entries sync.Map // signature -> *memEntry
	cap     int
	ttl     time.Duration

	count   atomic.Int64
	hits    atomic.Int64
	misses  atomic.Int64
	evictMu sync.Mutex

	now func() time.Time
}

type memEntry struct {
	entry    Entry // copy, HitCount tracked separately
	created  time.Time
	accessed atomic.Int64 // unix nanos, LRU stamp
	hits     atomic.Int64
}

func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryCap
	}
	return &Memory{cap: maxEntries, ttl: ttl, now: time.Now}
}

func (m *Memory) Get(_ context.Context, signature string) (*Entry, bool, error) {
	v, ok := m.entries.Load(signature)
	if !ok {
		m.misses.Add(1)
		return nil, false, nil
	}
	me := v.(*memEntry)
	if m.expired(me) {
		m.entries.Delete(signature)
		m.count.Add(-1)
		m.misses.Add(1)
		return nil, false, nil
	}

	me.accessed.Store(m.now().UnixNano())
	m.hits.Add(1)

	out := me.entry
	out.HitCount = me.hits.Add(1)
	return &out, true, nil
}

// Put stores an entry unless the signature is already present. The stored
// copy is detached from the caller.
func (m *Memory) Put(_ context.Context, entry *Entry) error {
	now := m.now()
	me := &memEntry{entry: *entry, created: now}
	if me.entry.CreatedAt.IsZero() {
		me.entry.CreatedAt = now
	}
	me.entry.Changes = append([]byte(nil), entry.Changes...)
	me.accessed.Store(now.UnixNano())

	if _, loaded := m.entries.LoadOrStore(entry.Signature, me); loaded {
		return nil
	}
	if m.count.Add(1) > int64(m.cap) {
		m.evict()
	}
	return nil
}

func (m *Memory) Stats(_ context.Context) (Stats, error) {
	return Stats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Entries: m.count.Load(),
	}, nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) expired(me *memEntry) bool {
	return m.ttl > 0 && m.now().Sub(me.created) > m.ttl
}

// evict removes expired entries first, then the least recently accessed ones
// until the store is back under its cap. Single writer at a time; concurrent
// puts above the cap just wait their turn.
func (m *Memory) evict() {
	m.evictMu.Lock()
	defer m.evictMu.Unlock()

	type stamped struct {
		sig      string
		accessed int64
	}
	var all []stamped
	m.entries.Range(func(k, v any) bool {
		me := v.(*memEntry)
		if m.expired(me) {
			m.entries.Delete(k)
			m.count.Add(-1)
			return true
		}
		all = append(all, stamped{k.(string), me.accessed.Load()})
		return true
	})

	over := m.count.Load() - int64(m.cap)
	for ; over > 0; over-- {
		oldest := -1
		for i := range all {
			if all[i].sig == "" {
				continue
			}
			if oldest < 0 || all[i].accessed < all[oldest].accessed {
				oldest = i
			}
		}
		if oldest < 0 {
			return
		}
		m.entries.Delete(all[oldest].sig)
		m.count.Add(-1)
		all[oldest].sig = ""
	}
}
