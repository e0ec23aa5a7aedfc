package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainavailability "stayquote/internal/domain/availability"
	domainselection "stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/events"
)

// SessionRepository keeps selection sessions in memory. Sessions idle for longer than ttl
// are dropped lazily; a zero ttl keeps them forever.
type SessionRepository struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[domainselection.SessionID]*domainselection.Session
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[domainselection.SessionID]*domainselection.Session),
	}
}

func cloneSession(s *domainselection.Session) *domainselection.Session {
	c := *s
	c.EventRecorder = events.EventRecorder{}
	c.UseIDGenerator(nil)
	if s.Search.Stay != nil {
		stay := *s.Search.Stay
		c.Search.Stay = &stay
	}
	c.Snapshot = append([]domainavailability.GroupAvailability(nil), s.Snapshot...)
	c.Items = append([]domainselection.SelectedRoomInstance(nil), s.Items...)
	return &c
}

func (r *SessionRepository) expired(s *domainselection.Session) bool {
	return r.ttl > 0 && r.now().Sub(s.UpdatedAt) > r.ttl
}

func (r *SessionRepository) Get(ctx context.Context, id domainselection.SessionID) (*domainselection.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok || r.expired(s) {
		delete(r.items, id)
		return nil, fmt.Errorf("%w: %s", domainselection.ErrSessionNotFound, id)
	}
	return cloneSession(s), nil
}

func (r *SessionRepository) Save(ctx context.Context, s *domainselection.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := int64(0)
	if stored, ok := r.items[s.ID]; ok {
		current = stored.Version
	}
	if current != s.Version {
		return fmt.Errorf("%w: %s at version %d, have %d", domainselection.ErrConcurrentUpdate, s.ID, current, s.Version)
	}
	s.Version++
	r.items[s.ID] = cloneSession(s)
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id domainselection.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

var _ domainselection.Repository = (*SessionRepository)(nil)
