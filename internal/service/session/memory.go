package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
)

const (
	DefaultTTL             = 24 * time.Hour
	DefaultCleanupInterval = 5 * time.Minute
)

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL sets how long an untouched session is retained.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often expired sessions are evicted.
func WithCleanupInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// WithLogger sets the logger used by the cleanup loop.
func WithLogger(logger *zap.Logger) MemoryOption {
	return func(s *MemoryStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// MemoryStore is the default volatile store. Sessions expire ttl after their
// last update and are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]diagnosis.Session

	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	logger          *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore starts a store together with its cleanup loop. Call Close to
// stop the loop.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions:        make(map[string]diagnosis.Session),
		ttl:             DefaultTTL,
		cleanupInterval: DefaultCleanupInterval,
		now:             func() time.Time { return time.Now().UTC() },
		logger:          zap.NewNop(),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()
	return s
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, seed diagnosis.Session) (diagnosis.Session, error) {
	now := s.now()
	session := seed.Clone()
	session.ID = uuid.NewString()
	session.Status = diagnosis.StatusCreated
	session.CreatedAt = now
	session.UpdatedAt = now

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session.Clone(), nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (diagnosis.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		return diagnosis.Session{}, ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, id string, fn Mutator) (diagnosis.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[id]
	if !ok || s.expired(current) {
		return diagnosis.Session{}, ErrSessionNotFound
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return diagnosis.Session{}, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()
	s.sessions[id] = next

	return next.Clone(), nil
}

// Len returns the number of retained sessions, expired ones included until
// the next sweep.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the cleanup loop.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	return nil
}

func (s *MemoryStore) expired(session diagnosis.Session) bool {
	return s.now().Sub(session.UpdatedAt) > s.ttl
}

func (s *MemoryStore) cleanupLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if evicted := s.sweep(); evicted > 0 {
				s.logger.Info("evicted expired sessions", zap.Int("count", evicted))
			}
		}
	}
}

func (s *MemoryStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}
