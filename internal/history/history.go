package history

import (
	"sync"
	"time"

	"llama-chatter/internal/transcript"
)

type session struct {
	mu       sync.Mutex
	t        *transcript.Transcript
	lastSeen time.Time
}

// Manager keeps one transcript per session key.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	limit    int
	now      func() time.Time
}

func NewManager(limit int) *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		limit:    limit,
		now:      time.Now,
	}
}

func (m *Manager) lookup(key string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		s = &session{t: transcript.New(m.limit)}
		m.sessions[key] = s
	}
	s.lastSeen = m.now()
	return s
}

// Update runs fn over the session transcript while holding the session lock.
// Requests of other sessions proceed independently.
func (m *Manager) Update(key string, fn func(t *transcript.Transcript)) {
	s := m.lookup(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.t)
}

// Get returns a copy of the session entries.
func (m *Manager) Get(key string) []transcript.Entry {
	var out []transcript.Entry
	m.Update(key, func(t *transcript.Transcript) { out = t.Entries() })
	return out
}

// Delete forgets the session; the next request under key starts empty.
func (m *Manager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions not touched within idle and reports how many went.
func (m *Manager) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-idle)
	n := 0
	for k, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, k)
			n++
		}
	}
	return n
}
