// Package keylock provides mutual exclusion per string key.
//
// Entries are reference counted and removed once no goroutine holds or waits
// on them, so the table only grows with the number of keys in use.
package keylock

import (
	"hash/fnv"
	"sync"
)

const shardCount = 64

type entry struct {
	mu   sync.Mutex
	refs int
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Locker serialises work per key. Different keys never contend except for the
// brief shard bookkeeping.
type Locker struct {
	shards [shardCount]shard
}

// New creates an empty Locker
func New() *Locker {
	l := &Locker{}
	for i := range l.shards {
		l.shards[i].entries = make(map[string]*entry)
	}
	return l
}

func (l *Locker) shard(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.shards[h.Sum32()%shardCount]
}

// Lock blocks until key is free and returns the function that releases it
func (l *Locker) Lock(key string) (unlock func()) {
	s := l.shard(key)

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			s.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(s.entries, key)
			}
			s.mu.Unlock()
		})
	}
}

// Len returns the number of keys currently held or awaited
func (l *Locker) Len() int {
	n := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}
