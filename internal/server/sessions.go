package server

import (
	"errors"
	"sync"

	"github.com/repomind/repomind/core"
)

var (
	errSessionNotFound = errors.New("session not found")
	errSessionBusy     = errors.New("session is busy with another request")
)

type sessionEntry struct {
	session *core.Session
	busy    bool
}

// sessionRegistry maps session ids to sessions. A session is lent to one
// request at a time through acquire.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*sessionEntry)}
}

func (r *sessionRegistry) create() *core.Session {
	s := core.NewSession()
	r.mu.Lock()
	r.sessions[s.ID] = &sessionEntry{session: s}
	r.mu.Unlock()
	return s
}

// get returns a session for read-only use.
func (r *sessionRegistry) get(id string) (*core.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	return e.session, nil
}

// acquire marks the session busy; the returned release must be called when the request ends.
func (r *sessionRegistry) acquire(id string) (*core.Session, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, nil, errSessionNotFound
	}
	if e.busy {
		return nil, nil, errSessionBusy
	}
	e.busy = true
	release := func() {
		r.mu.Lock()
		e.busy = false
		r.mu.Unlock()
	}
	return e.session, release, nil
}

func (r *sessionRegistry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *sessionRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
