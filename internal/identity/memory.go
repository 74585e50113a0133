package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps identities in a map. It mirrors the postgres store's
// semantics exactly, including the monotonic approved claim, so tests
// exercise the same contract.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Identity

	// failing simulates an unreachable store; every call errors.
	failing bool
	failErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Identity)}
}

// SetUnavailable makes every subsequent call fail with err, simulating a
// store outage for fail-closed tests.
func (s *MemoryStore) SetUnavailable(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = err != nil
	s.failErr = err
}

func (s *MemoryStore) Upsert(_ context.Context, record Identity) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return Identity{}, s.failErr
	}

	now := time.Now().UTC()
	existing, ok := s.records[record.Subject]
	if ok {
		record.CreatedAt = existing.CreatedAt
		record.Approved = record.Approved || existing.Approved
	} else {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.records[record.Subject] = record
	return record, nil
}

func (s *MemoryStore) Find(_ context.Context, subject string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing {
		return Identity{}, s.failErr
	}
	if record, ok := s.records[subject]; ok {
		return record, nil
	}
	return Identity{}, ErrNotFound
}
