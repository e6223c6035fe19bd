// Package keylock serializes writes per contended key (a mentor, an
// idea) without a process-wide lock. Each key gets its own weighted
// semaphore, so operations on distinct keys proceed fully concurrently
// while operations on the same key queue up. Acquisition is bounded:
// a caller that cannot get the key within the timeout gets an error
// instead of blocking indefinitely. Idle keys are evicted, so the map
// holds only the keys some caller is currently holding or waiting on.
package keylock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// slot is one key's semaphore plus the number of callers referencing
// it. refs is guarded by the owning Ring's mutex.
type slot struct {
	sem  *semaphore.Weighted
	refs int
}

// Ring holds one single-slot semaphore per in-use key.
type Ring struct {
	mu      sync.Mutex
	locks   map[string]*slot
	timeout time.Duration
}

// New returns a Ring whose Acquire gives up after timeout.
func New(timeout time.Duration) *Ring {
	return &Ring{
		locks:   make(map[string]*slot),
		timeout: timeout,
	}
}

func (r *Ring) ref(key string) *slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.locks[key]
	if !ok {
		s = &slot{sem: semaphore.NewWeighted(1)}
		r.locks[key] = s
	}
	s.refs++
	return s
}

func (r *Ring) unref(key string, s *slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(r.locks, key)
	}
}

// Acquire takes the lock for key, waiting at most the configured
// timeout (or until ctx is done, whichever is sooner). On success the
// returned function releases the lock.
func (r *Ring) Acquire(ctx context.Context, key string) (func(), error) {
	s := r.ref(key)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		r.unref(key, s)
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	return func() {
		s.sem.Release(1)
		r.unref(key, s)
	}, nil
}

// MentorKey returns the serialization key for capacity checks.
func MentorKey(mentorID uint) string {
	return fmt.Sprintf("mentor:%d", mentorID)
}

// IdeaKey returns the serialization key for per-idea uniqueness checks.
func IdeaKey(ideaID uint) string {
	return fmt.Sprintf("idea:%d", ideaID)
}
