package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

// ErrSessionExists is returned by Create when the id is already
// registered. Create never overwrites; callers wanting replacement must
// Remove first.
var ErrSessionExists = fmt.Errorf("session id already registered")

// Registry is the process-lifetime map of session id to session state.
// It is shared by every concurrently running pipeline goroutine and by
// the status-query handlers, so all access is mutex-guarded. Each entry
// is only ever mutated by its own session's pipeline, so entries for
// disjoint ids never interfere.
type Registry struct {
	mu       sync.RWMutex
	log      *logger.Logger
	sessions map[string]*types.Session
}

func NewRegistry(baseLog *logger.Logger) *Registry {
	if baseLog == nil {
		baseLog = logger.NewNop()
	}
	return &Registry{
		log:      baseLog.With("component", "SessionRegistry"),
		sessions: make(map[string]*types.Session),
	}
}

func (r *Registry) Create(id string, req types.GenerationRequest) (*types.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		return nil, ErrSessionExists
	}
	now := time.Now()
	s := &types.Session{
		ID:          id,
		Status:      types.SessionInitializing,
		Request:     req,
		Progress:    0,
		StageLabel:  "Initializing",
		StartTime:   now,
		LastUpdated: now,
	}
	r.sessions[id] = s
	r.log.Debug("Session registered", "session_id", id, "topic", req.Topic)
	return copySession(s), nil
}

// Get returns a copy of the session, or nil when unknown.
func (r *Registry) Get(id string) *types.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	return copySession(s)
}

// Update applies mutate to the live session record under the lock and
// stamps LastUpdated. Returns false when the id is unknown.
func (r *Registry) Update(id string, mutate func(*types.Session)) bool {
	if mutate == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	mutate(s)
	s.LastUpdated = time.Now()
	return true
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// List returns copies of every registered session, newest first.
func (r *Registry) List() []*types.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, copySession(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out
}

func copySession(s *types.Session) *types.Session {
	c := *s
	return &c
}
