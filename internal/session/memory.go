package session

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often Put scans for expired sessions.
const sweepInterval = time.Minute

type MemoryStore struct {
	mu        sync.RWMutex
	items     map[string]Session
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]Session),
		now:   time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	now := m.now()

	m.mu.RLock()
	item, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	if !item.ExpiresAt.After(now) {
		m.mu.Lock()
		item, ok = m.items[id]
		if ok && !item.ExpiresAt.After(now) {
			delete(m.items, id)
		}
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	return cloneSession(item), nil
}

// Put stores a copy of session. Expired entries are swept here, at most once
// per sweepInterval, so ids that are never read again do not pile up.
func (m *MemoryStore) Put(ctx context.Context, session *Session) error {
	now := m.now()

	m.mu.Lock()
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweepLocked(now)
	}
	m.items[session.ID] = *cloneSession(*session)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) sweepLocked(now time.Time) {
	for id, item := range m.items {
		if !item.ExpiresAt.After(now) {
			delete(m.items, id)
		}
	}
	m.lastSweep = now
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func cloneSession(s Session) *Session {
	if s.Flashes != nil {
		s.Flashes = append([]Flash(nil), s.Flashes...)
	}
	return &s
}
