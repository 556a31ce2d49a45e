package handoff

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemorySubstrate keeps records in process memory. It suits a single
// instance and tests; records do not survive a restart.
type MemorySubstrate struct {
	mu      sync.Mutex
	entries map[Key]memoryEntry
	now     func() time.Time
}

func NewMemorySubstrate() *MemorySubstrate {
	return &MemorySubstrate{entries: make(map[Key]memoryEntry), now: time.Now}
}

func (m *MemorySubstrate) Put(_ context.Context, key Key, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		payload:   append([]byte(nil), payload...),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *MemorySubstrate) Take(_ context.Context, key Key) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrAbsent
	}
	delete(m.entries, key)
	if !m.now().Before(entry.expiresAt) {
		return nil, ErrAbsent
	}
	return entry.payload, nil
}

// Len reports the number of stored entries, expired ones included.
func (m *MemorySubstrate) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
