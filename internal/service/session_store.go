package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"rentacars/internal/metrics"
)

// SessionStore keeps the shells of live console sessions in memory.
type SessionStore struct {
	newShell func() *Shell
	metrics  *metrics.Collector
	now      func() time.Time

	mu     sync.Mutex
	shells map[string]*Shell
}

func NewSessionStore(newShell func() *Shell, m *metrics.Collector) *SessionStore {
	return &SessionStore{
		newShell: newShell,
		metrics:  m,
		now:      time.Now,
		shells:   make(map[string]*Shell),
	}
}

// Create registers a new logged-out shell under a fresh id.
func (s *SessionStore) Create() (string, *Shell) {
	id := uuid.NewString()
	shell := s.newShell()
	shell.Touch(s.now())

	s.mu.Lock()
	s.shells[id] = shell
	n := len(s.shells)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	return id, shell
}

// Get returns the shell for id and marks it as seen.
func (s *SessionStore) Get(id string) (*Shell, bool) {
	s.mu.Lock()
	shell, ok := s.shells[id]
	s.mu.Unlock()
	if ok {
		shell.Touch(s.now())
	}
	return shell, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	shell, ok := s.shells[id]
	delete(s.shells, id)
	n := len(s.shells)
	s.mu.Unlock()

	if ok {
		shell.Logout()
	}
	s.metrics.SetActiveSessions(n)
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shells)
}

// Sweep drops shells idle for longer than idle and logs out shells whose
// backend token expired. It returns how many shells were dropped and how
// many were logged out.
func (s *SessionStore) Sweep(idle time.Duration) (dropped, expired int) {
	now := s.now()

	s.mu.Lock()
	var stale, live []*Shell
	for id, shell := range s.shells {
		if idle > 0 && now.Sub(shell.LastSeen()) > idle {
			stale = append(stale, shell)
			delete(s.shells, id)
			continue
		}
		live = append(live, shell)
	}
	n := len(s.shells)
	s.mu.Unlock()

	for _, shell := range stale {
		shell.Logout()
	}
	for _, shell := range live {
		if shell.TokenExpired(now) {
			shell.Logout()
			expired++
		}
	}
	s.metrics.SetActiveSessions(n)
	s.metrics.AddSwept(len(stale))
	return len(stale), expired
}
