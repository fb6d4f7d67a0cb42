package record

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines the persistence primitive for incomplete orders. All
// implementations must preserve two invariants: terminal records are never
// mutated, and update paths only touch pending rows.
type Store interface {
	// Create inserts a new record and returns its assigned id. Status,
	// CreatedAt and LastUpdatedAt are set by the store.
	Create(ctx context.Context, o *IncompleteOrder) (string, error)
	// Update overwrites the snapshot fields of an existing pending record
	// and refreshes LastUpdatedAt. Updating a terminal record is a no-op.
	Update(ctx context.Context, id string, o *IncompleteOrder) error
	// FindPendingBySession returns the pending record for a session, or
	// (nil, nil) when none exists.
	FindPendingBySession(ctx context.Context, sessionID string) (*IncompleteOrder, error)
	// MarkConverted transitions every pending record for the session to
	// converted, stamping the real order id. Returns the number of rows
	// transitioned.
	MarkConverted(ctx context.Context, sessionID, orderID string) (int, error)
	// ListPending returns pending records ordered by most recent update,
	// for back-office triage.
	ListPending(ctx context.Context, limit int) ([]*IncompleteOrder, error)
	// GetByID returns a record by id, or (nil, nil) when absent.
	GetByID(ctx context.Context, id string) (*IncompleteOrder, error)
}

// MemoryStore is an in-memory Store used in tests and single-process
// development setups.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*IncompleteOrder
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*IncompleteOrder)}
}

func (s *MemoryStore) Create(ctx context.Context, o *IncompleteOrder) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneRecord(o)
	cp.ID = uuid.NewString()
	cp.Status = StatusPending
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.LastUpdatedAt = now
	cp.Normalize()
	s.records[cp.ID] = cp
	return cp.ID, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, o *IncompleteOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[id]
	if !ok || existing.Status.Terminal() {
		return nil
	}

	cp := cloneRecord(o)
	cp.ID = existing.ID
	cp.SessionID = existing.SessionID
	cp.Status = existing.Status
	cp.CreatedAt = existing.CreatedAt
	cp.LastUpdatedAt = time.Now().UTC()
	cp.Normalize()
	s.records[id] = cp
	return nil
}

func (s *MemoryStore) FindPendingBySession(ctx context.Context, sessionID string) (*IncompleteOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.SessionID == sessionID && rec.Status == StatusPending {
			return cloneRecord(rec), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) MarkConverted(ctx context.Context, sessionID, orderID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := time.Now().UTC()
	for _, rec := range s.records {
		if rec.SessionID == sessionID && rec.Status == StatusPending {
			rec.Status = StatusConverted
			rec.ConvertedOrderID = orderID
			rec.LastUpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListPending(ctx context.Context, limit int) ([]*IncompleteOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*IncompleteOrder
	for _, rec := range s.records {
		if rec.Status == StatusPending {
			out = append(out, cloneRecord(rec))
		}
	}
	// Most recently updated first.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].LastUpdatedAt.After(out[i].LastUpdatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*IncompleteOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func cloneRecord(o *IncompleteOrder) *IncompleteOrder {
	cp := *o
	cp.CartItems = make([]CartItem, len(o.CartItems))
	copy(cp.CartItems, o.CartItems)
	return &cp
}
