package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/steelforge/takeoff/internal/common"
	"github.com/steelforge/takeoff/internal/model"
)

// MemoryStore implements Store with in-process storage, suitable for a
// single-instance deployment. Sessions are deep-copied across the store
// boundary so callers never share state with the cache. Expiry is lazy on
// access; a background sweep reclaims memory from sessions nobody touches
// again.
type MemoryStore struct {
	sessions        map[string]*model.ImportSession
	stopCh          chan struct{}
	cleanupInterval time.Duration
	now             func() time.Time
	mu              sync.RWMutex
}

// NewMemoryStore creates an in-memory session store and starts its cleanup
// goroutine. Call Close to stop it.
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		sessions:        make(map[string]*model.ImportSession),
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
		stopCh:          make(chan struct{}),
	}

	go store.cleanupLoop()

	return store
}

// Create stores a new session under its id.
func (s *MemoryStore) Create(ctx context.Context, session *model.ImportSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if session == nil || session.ID == "" {
		return fmt.Errorf("session with an id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session already exists: %s", session.ID)
	}

	copied, err := deepCopySession(session)
	if err != nil {
		return err
	}
	s.sessions[session.ID] = copied

	return nil
}

// Get returns a copy of an unexpired session.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.ImportSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists || session.Expired(s.now()) {
		return nil, common.ErrSessionNotFound
	}

	return deepCopySession(session)
}

// Update atomically applies fn under the store lock. fn receives a copy;
// only a successful return publishes it back.
func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*model.ImportSession) error) (*model.ImportSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists || session.Expired(s.now()) {
		return nil, common.ErrSessionNotFound
	}

	working, err := deepCopySession(session)
	if err != nil {
		return nil, err
	}
	if err := fn(working); err != nil {
		return nil, err
	}
	s.sessions[id] = working

	return deepCopySession(working)
}

// Remove evicts a session.
func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists || session.Expired(s.now()) {
		delete(s.sessions, id)
		return common.ErrSessionNotFound
	}

	delete(s.sessions, id)
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	close(s.stopCh)
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
		}
	}
}

// deepCopySession copies a session through JSON so no caller aliases cached
// part or assembly pointers.
func deepCopySession(session *model.ImportSession) (*model.ImportSession, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to copy session: %w", err)
	}

	var copied model.ImportSession
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, fmt.Errorf("failed to copy session: %w", err)
	}

	return &copied, nil
}
