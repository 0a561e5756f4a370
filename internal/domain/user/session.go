package user

import "sync"

// Identity exposes the signed-in user to the other collections
type Identity interface {
	Current() (User, bool)
}

// Session holds the single signed-in user of this process
type Session struct {
	mu      sync.RWMutex
	current *User
}

func NewSession() *Session {
	return &Session{}
}

// Current returns a copy of the signed-in user
func (s *Session) Current() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return User{}, false
	}
	return s.current.clone(), true
}

func (s *Session) set(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := u.clone()
	s.current = &c
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Static is an Identity fixed to one user, or to nobody when zero
type Static struct {
	User *User
}

func (s Static) Current() (User, bool) {
	if s.User == nil {
		return User{}, false
	}
	return s.User.clone(), true
}
