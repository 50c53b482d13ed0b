package ratelimit

import (
	"context"
	"sync"
	"time"
)

type record struct {
	count int
	reset time.Time
}

// MemoryStore keeps attempt records in a mutex-guarded map. Expired records
// self-heal on access; a background sweep bounds memory growth under many
// distinct fingerprints.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]record
	done    chan struct{}
	stop    sync.Once
}

// NewMemoryStore creates a store and starts its sweep goroutine. Call Stop
// to release it.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]record),
		done:    make(chan struct{}),
	}

	go s.sweep(sweepInterval)

	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (int, time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return 0, time.Time{}, false, nil
	}
	if time.Now().After(rec.reset) {
		delete(s.records, key)
		return 0, time.Time{}, false, nil
	}

	return rec.count, rec.reset, true, nil
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	rec, ok := s.records[key]
	if !ok || now.After(rec.reset) {
		rec = record{count: 1, reset: now.Add(window)}
	} else {
		rec.count++
	}
	s.records[key] = rec

	return rec.count, rec.reset, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Len returns the number of tracked fingerprints, including not yet swept
// expired ones.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Stop terminates the sweep goroutine.
func (s *MemoryStore) Stop() {
	s.stop.Do(func() { close(s.done) })
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, rec := range s.records {
				if now.After(rec.reset) {
					delete(s.records, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
