package navigation

import (
	"sort"
	"sync"

	"github.com/burrowbot/burrow/pkg/metrics"
	"github.com/burrowbot/burrow/pkg/pathguard"
)

// Session is one user's browsing state. Only the engine moves it, and only
// after the new location has been confined and listed.
type Session struct {
	UserID int64

	// mu is held for a whole apply. Readers only take locMu, so they never
	// wait behind a slow directory read.
	mu      sync.Mutex
	locMu   sync.RWMutex
	current pathguard.Location
}

func (s *Session) Current() pathguard.Location {
	s.locMu.RLock()
	defer s.locMu.RUnlock()
	return s.current
}

// moveTo commits a new location. The caller holds mu.
func (s *Session) moveTo(loc pathguard.Location) {
	s.locMu.Lock()
	defer s.locMu.Unlock()
	s.current = loc
}

// Registry maps user IDs to sessions. Sessions are created on first access
// and never removed.
type Registry interface {
	Get(userID int64) *Session
	Snapshot() []SessionSnapshot
}

type SessionSnapshot struct {
	UserID   int64
	Location pathguard.Location
}

type MemoryRegistry struct {
	root pathguard.Location

	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewMemoryRegistry(root pathguard.Location) *MemoryRegistry {
	return &MemoryRegistry{
		root:     root,
		sessions: map[int64]*Session{},
	}
}

func (r *MemoryRegistry) Get(userID int64) *Session {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another goroutine may have created it in the meantime.
	if s, ok := r.sessions[userID]; ok {
		return s
	}
	s = &Session{UserID: userID, current: r.root}
	r.sessions[userID] = s
	metrics.SessionCreated()
	return s
}

// Snapshot returns every session's location ordered by user ID.
func (r *MemoryRegistry) Snapshot() []SessionSnapshot {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	out := make([]SessionSnapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionSnapshot{UserID: s.UserID, Location: s.Current()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID < out[j].UserID
	})
	return out
}
