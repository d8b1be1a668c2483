package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/stemsi/quizrunner/internal/quiz"
)

// MemorySessionStore keeps sessions in process memory. Entries idle for
// longer than the TTL are dropped.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	// data is the encoded snapshot, so no caller can alias stored state.
	data     []byte
	lastSeen time.Time
}

// NewMemorySessionStore creates a MemorySessionStore. A ttl <= 0 keeps
// sessions until they are deleted.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the snapshot stored under id.
func (m *MemorySessionStore) Get(_ context.Context, id string) (quiz.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || m.expired(e) {
		delete(m.sessions, id)
		return quiz.Snapshot{}, ErrSessionNotFound
	}
	e.lastSeen = m.now()

	var snap quiz.Snapshot
	if err := json.Unmarshal(e.data, &snap); err != nil {
		return quiz.Snapshot{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return snap, nil
}

// Save stores snap under id, replacing any previous value.
func (m *MemorySessionStore) Save(_ context.Context, id string, snap quiz.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}

	m.mu.Lock()
	m.sessions[id] = &memoryEntry{data: data, lastSeen: m.now()}
	m.mu.Unlock()
	return nil
}

// Delete removes id. Deleting an unknown id is not an error.
func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Len reports how many sessions are held, expired ones included.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemorySessionStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		if m.expired(e) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (m *MemorySessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *MemorySessionStore) expired(e *memoryEntry) bool {
	return m.ttl > 0 && m.now().Sub(e.lastSeen) > m.ttl
}
