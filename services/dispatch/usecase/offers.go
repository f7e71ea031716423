package usecase

import (
	"sync"
	"sync/atomic"
	"time"
)

// offerSet is the drivers offered one ride. Once closed it accepts no more offers.
type offerSet struct {
	mu       sync.Mutex
	closed   bool
	openedAt time.Time
	drivers  []string
	seen     map[string]struct{}
}

// offerBook tracks offered drivers per ride, partitioned by ride id. Sets of rides
// that nobody accepts or cancels are dropped once older than ttl.
type offerBook struct {
	rides sync.Map // ride id -> *offerSet

	ttl       time.Duration
	now       func() time.Time
	lastSweep atomic.Int64 // unix nanos
}

func newOfferBook(ttl time.Duration, now func() time.Time) *offerBook {
	b := &offerBook{ttl: ttl, now: now}
	b.lastSweep.Store(now().UnixNano())
	return b
}

func (b *offerBook) open(rideID string) {
	now := b.now()
	b.sweep(now)
	b.rides.LoadOrStore(rideID, &offerSet{openedAt: now, seen: make(map[string]struct{})})
}

// sweep drops expired sets. It runs at most once per ttl and only in one caller.
func (b *offerBook) sweep(now time.Time) {
	last := b.lastSweep.Load()
	if now.UnixNano()-last < int64(b.ttl) || !b.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-b.ttl)
	b.rides.Range(func(key, v interface{}) bool {
		s := v.(*offerSet)
		s.mu.Lock()
		expired := s.openedAt.Before(cutoff)
		if expired {
			s.closed = true
		}
		s.mu.Unlock()
		if expired {
			b.rides.Delete(key)
		}
		return true
	})
}

// add records drivers as offered and returns the ones not offered before.
// Nothing is recorded once the set is closed or was never opened.
func (b *offerBook) add(rideID string, drivers []string) []string {
	v, ok := b.rides.Load(rideID)
	if !ok {
		return nil
	}
	s := v.(*offerSet)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	var added []string
	for _, d := range drivers {
		if _, dup := s.seen[d]; dup {
			continue
		}
		s.seen[d] = struct{}{}
		s.drivers = append(s.drivers, d)
		added = append(added, d)
	}
	return added
}

func (b *offerBook) contains(rideID, driverID string) bool {
	v, ok := b.rides.Load(rideID)
	if !ok {
		return false
	}
	s := v.(*offerSet)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.seen[driverID]
	return found
}

// close drops the ride's set and returns every driver it was offered to
func (b *offerBook) close(rideID string) []string {
	v, ok := b.rides.LoadAndDelete(rideID)
	if !ok {
		return nil
	}
	s := v.(*offerSet)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return append([]string(nil), s.drivers...)
}

func (b *offerBook) size() int {
	n := 0
	b.rides.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
