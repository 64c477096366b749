// Package store keeps solved runs in memory so the API can serve them after the
// request that produced them has returned.
package store

import (
	"sync"
	"time"

	"grid-planner/internal/model"
	"grid-planner/internal/optimize"

	"github.com/google/uuid"
)

// Run is a finished (or partially finished) optimization and the network it solved.
type Run struct {
	ID        uuid.UUID
	Outcome   *optimize.Outcome
	Network   *model.Network
	Err       string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RunStore is an in-memory run cache with a fixed time to live.
type RunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*Run
	ttl  time.Duration
	now  func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

const DefaultTTL = time.Hour

// New creates a store and starts its cleanup goroutine. Call Close to stop it.
func New(ttl time.Duration) *RunStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &RunStore{
		runs: make(map[uuid.UUID]*Run),
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go s.cleanup(5 * time.Minute)
	return s
}

// Put stores a run under its outcome's run id, or a fresh id when there is no outcome.
func (s *RunStore) Put(n *model.Network, out *optimize.Outcome, runErr error) *Run {
	id := uuid.New()
	if out != nil {
		id = out.RunID
	}
	now := s.now()
	r := &Run{ID: id, Outcome: out, Network: n, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
	if runErr != nil {
		r.Err = runErr.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[id] = r
	return r
}

// Get returns a run if it exists and has not expired.
func (s *RunStore) Get(id uuid.UUID) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, false
	}
	if s.now().After(r.ExpiresAt) {
		return nil, false
	}
	return r, true
}

func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Clear removes all runs.
func (s *RunStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = make(map[uuid.UUID]*Run)
}

func (s *RunStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *RunStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, r := range s.runs {
		if now.After(r.ExpiresAt) {
			delete(s.runs, id)
		}
	}
}

// cleanup periodically removes expired runs.
func (s *RunStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stop:
			return
		}
	}
}
