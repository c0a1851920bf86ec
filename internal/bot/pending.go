package bot

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pending holds an order whose customer could not be resolved, waiting for
// the sender to confirm registration of a new customer.
type Pending struct {
	ID           string
	UserID       int64
	ChatID       int64
	Name         string
	Amount       float64
	Product      string
	Sender       string
	Source       string
	AwaitingName bool
	Created      time.Time
}

// PendingStore keeps at most one pending registration per user. Entries are
// best-effort: expiry or restart just drops them.
type PendingStore struct {
	mu      sync.Mutex
	timeout time.Duration
	byUser  map[int64]*Pending
}

func NewPendingStore(timeout time.Duration) *PendingStore {
	return &PendingStore{
		timeout: timeout,
		byUser:  make(map[int64]*Pending),
	}
}

// Put stages a pending registration, replacing any earlier one for the same
// user, and returns its id for the confirmation callback.
func (s *PendingStore) Put(p *Pending) string {
	p.ID = uuid.NewString()
	p.Created = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[p.UserID] = p
	return p.ID
}

func (s *PendingStore) Get(userID int64) (*Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byUser[userID]
	if !ok {
		return nil, false
	}
	if time.Since(p.Created) > s.timeout {
		delete(s.byUser, userID)
		return nil, false
	}
	return p, true
}

// GetByID finds a pending registration by callback id.
func (s *PendingStore) GetByID(id string) (*Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, p := range s.byUser {
		if p.ID != id {
			continue
		}
		if time.Since(p.Created) > s.timeout {
			delete(s.byUser, userID)
			return nil, false
		}
		return p, true
	}
	return nil, false
}

func (s *PendingStore) Remove(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}

// Sweep drops expired entries; called periodically by the bot loop.
func (s *PendingStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for userID, p := range s.byUser {
		if now.Sub(p.Created) > s.timeout {
			delete(s.byUser, userID)
		}
	}
}

// Len returns the number of live entries.
func (s *PendingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser)
}
