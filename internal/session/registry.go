package session

import "sync"

// Registry holds the single live session of each user.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// Put installs s as its user's session, closing the one it replaces.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	prev := r.sessions[s.UserID()]
	r.sessions[s.UserID()] = s
	r.mu.Unlock()
	if prev != nil && prev != s {
		prev.Close()
	}
}

func (r *Registry) Get(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	s := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()
	if s != nil {
		s.Close()
	}
}

// CloseAll stops every timer, for shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[string]*Session{}
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
