// Package session keeps per-customer conversational state that does not
// belong in the relational schema: profile fragments collected mid-dialogue,
// the last product discussed, and the order currently awaiting payment.
// State is keyed by phone number and read-modify-write cycles go through
// Update so concurrent webhook deliveries for one customer never clobber
// each other.
package session

import (
	"context"
	"sync"
	"time"
)

// State is one customer's conversational working set. The zero value is a
// valid fresh session.
type State struct {
	// Name, Email, Address are profile fragments gathered during dialogue,
	// promoted to the user record when an order is placed.
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`

	// LastProductID points at the product most recently discussed, so a
	// bare "add it to my cart" can resolve.
	LastProductID uint `json:"last_product_id,omitempty"`

	// PendingOrderID points at the order awaiting this customer's payment.
	PendingOrderID uint `json:"pending_order_id,omitempty"`

	// UpdatedAt is maintained by the store on every write.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the session persistence contract. Get on an unknown phone returns
// a zero State and no error.
type Store interface {
	Get(ctx context.Context, phone string) (State, error)
	// Update applies fn to the current state under a per-phone lock and
	// persists the result.
	Update(ctx context.Context, phone string, fn func(*State)) (State, error)
	Delete(ctx context.Context, phone string) error
}

// MemoryStore keeps sessions in process memory. Suitable for a single
// instance; multi-instance deployments use RedisStore.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
}

type memorySession struct {
	mu    sync.Mutex
	state State
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memorySession)}
}

func (m *MemoryStore) session(phone string) *memorySession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[phone]
	if !ok {
		s = &memorySession{}
		m.sessions[phone] = s
	}
	return s
}

// Get returns a copy of the customer's session state.
func (m *MemoryStore) Get(_ context.Context, phone string) (State, error) {
	s := m.session(phone)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

// Update applies fn under the per-phone lock and returns the new state.
func (m *MemoryStore) Update(_ context.Context, phone string, fn func(*State)) (State, error) {
	s := m.session(phone)
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.state.UpdatedAt = time.Now().UTC()
	return s.state, nil
}

// Delete discards the customer's session.
func (m *MemoryStore) Delete(_ context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, phone)
	return nil
}
