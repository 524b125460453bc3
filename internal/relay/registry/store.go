// Package registry tracks session membership for the relay.
//
// The Store interface decouples routing logic from storage so an
// externally-backed implementation can replace the in-process default
// without touching the relay. Membership is all the registry owns: it
// never inspects or persists relayed payloads.
package registry

import (
	"sync"

	"github.com/lumos-edit/lumos/backend/internal/shared/types"
)

// Member is a session participant the relay can address
type Member interface {
	// ID returns the connection's unique id
	ID() string
	// Enqueue offers a raw message for delivery; it reports false when
	// the member's buffer is full (the message is dropped, never retried)
	Enqueue(msg []byte) bool
}

// Session holds the membership of one session: at most one studio and
// any number of targets
type Session struct {
	ID      string
	Studio  Member
	Targets map[string]Member
}

// Empty reports whether the session has no members left
func (s *Session) Empty() bool {
	return s.Studio == nil && len(s.Targets) == 0
}

// Members returns every current member of the session
func (s *Session) Members() []Member {
	members := make([]Member, 0, len(s.Targets)+1)
	if s.Studio != nil {
		members = append(members, s.Studio)
	}
	for _, t := range s.Targets {
		members = append(members, t)
	}
	return members
}

// Peers returns every member except the one with the given connection id
func (s *Session) Peers(exceptID string) []Member {
	var peers []Member
	for _, m := range s.Members() {
		if m.ID() != exceptID {
			peers = append(peers, m)
		}
	}
	return peers
}

// Role returns the member's role within the session, if present
func (s *Session) Role(connectionID string) (types.Role, bool) {
	if s.Studio != nil && s.Studio.ID() == connectionID {
		return types.RoleStudio, true
	}
	if _, ok := s.Targets[connectionID]; ok {
		return types.RoleTarget, true
	}
	return "", false
}

// Store is the injectable session membership table
type Store interface {
	// Get returns the session with the given id
	Get(id string) (*Session, bool)
	// Update runs fn against the session with the given id, creating it
	// first if absent and deleting it afterwards when left empty. The
	// session must not be retained outside fn.
	Update(id string, fn func(*Session))
	// Len returns the number of live sessions
	Len() int
}

// MemoryStore is the default in-process Store. A RWMutex serializes
// access; unlike the registry's single-threaded ancestors, Go handler
// goroutines touch it concurrently.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

// Get returns the session with the given id
func (s *MemoryStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Update runs fn against the session, creating on demand and reaping
// when empty
func (s *MemoryStore) Update(id string, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		session = &Session{
			ID:      id,
			Targets: make(map[string]Member),
		}
		s.sessions[id] = session
	}

	fn(session)

	if session.Empty() {
		delete(s.sessions, id)
	}
}

// Len returns the number of live sessions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
