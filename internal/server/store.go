package server

import (
	"context"
	"sync"
	"time"

	"github.com/ramonerose/dtfgangsheet/pkg/api"
	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

// Job is a finished generate request held for download.
type Job struct {
	ID          string      `json:"id"`
	Filename    string      `json:"filename"`
	ContentType string      `json:"contentType"`
	Payload     []byte      `json:"payload"`
	Result      *api.Result `json:"result"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Store keeps finished jobs until their TTL runs out.
//
// Implementations:
//   - memory: single-instance deployments and tests
//   - redis: multi-instance deployments sharing one job space
type Store interface {
	// Put stores a job under its ID.
	Put(ctx context.Context, job *Job) error

	// Get retrieves a job by ID. A missing or expired job yields a
	// JOB_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Job, error)

	// Delete removes a job.
	Delete(ctx context.Context, id string) error

	// Close releases the backend.
	Close() error
}

type memoryEntry struct {
	job       *Job
	expiresAt time.Time
}

// MemoryStore keeps jobs in process memory. A janitor goroutine sweeps
// expired entries so abandoned jobs do not pile up.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	nowFn   func() time.Time
	done    chan struct{}
	closed  sync.Once
}

// NewMemoryStore creates a memory store whose jobs expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		nowFn:   time.Now,
		done:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Put stores a job under its ID.
func (s *MemoryStore) Put(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[job.ID] = memoryEntry{job: job, expiresAt: s.nowFn().Add(s.ttl)}
	return nil
}

// Get retrieves a job by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || s.nowFn().After(entry.expiresAt) {
		return nil, errors.New(errors.ErrCodeJobNotFound, "job %s not found", id)
	}
	return entry.job, nil
}

// Delete removes a job.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	s.closed.Do(func() { close(s.done) })
	return nil
}

// Cleanup removes every expired entry.
func (s *MemoryStore) Cleanup() {
	now := s.nowFn()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.done:
			return
		}
	}
}
