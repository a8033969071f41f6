package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/zhouzirui/z-reception/backend/internal/model/chat"
)

var (
	ErrSessionIDRequired = errors.New("session id is required")
	ErrSessionNotFound   = errors.New("session not found")
)

// Store keeps intake conversations keyed by caller-supplied session id.
type Store interface {
	// Update runs fn against the session, creating it on first use. Calls for
	// the same id are serialized; fn's error is returned unchanged and the
	// session keeps whatever fn wrote before failing.
	Update(ctx context.Context, sessionID string, fn func(*chat.Session) error) error
	// Get returns a copy of the session.
	Get(ctx context.Context, sessionID string) (*chat.Session, error)
	// List returns copies of all sessions, oldest first.
	List(ctx context.Context) ([]*chat.Session, error)
}

type entry struct {
	mu      sync.Mutex
	session *chat.Session
}

// MemoryStore is a process-lifetime Store. Nothing is evicted and nothing
// survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewMemoryStore bootstraps an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*entry)}
}

func (s *MemoryStore) entryFor(sessionID string) *entry {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[sessionID]; ok {
		return e
	}
	now := time.Now().UTC()
	e = &entry{session: &chat.Session{
		ID:        sessionID,
		Messages:  make([]chat.Message, 0, 8),
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.entries[sessionID] = e
	return e
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, sessionID string, fn func(*chat.Session) error) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := s.entryFor(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn(e.session)
	e.session.UpdatedAt = time.Now().UTC()
	return err
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*chat.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]*chat.Session, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sessions := make([]*chat.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		sessions = append(sessions, e.session.Clone())
		e.mu.Unlock()
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}
