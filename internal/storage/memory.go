package storage

import (
	"sync"
	"time"

	"github.com/recuerdame/recuerdame-backend/internal/models"
)

// MemoryStore keeps reminders in memory. Used for tests and when
// USE_MEMORY_STORE=true (not for production: nothing survives a restart).
type MemoryStore struct {
	mu        sync.Mutex
	reminders []*models.Reminder
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(reminder *models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *reminder
	m.reminders = append(m.reminders, &copied)
	return nil
}

func (m *MemoryStore) ListAll() ([]*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Reminder, 0, len(m.reminders))
	for _, r := range m.reminders {
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MemoryStore) ListPendingByOwner(ownerID string) ([]*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := []*models.Reminder{}
	for _, r := range m.reminders {
		if !r.Delivered && r.OwnerID == ownerID {
			copied := *r
			pending = append(pending, &copied)
		}
	}
	return pending, nil
}

func (m *MemoryStore) MarkDelivered(id string, deliveredAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.reminders {
		if r.ID != id {
			continue
		}
		if r.Delivered {
			return false, nil
		}
		r.Delivered = true
		at := deliveredAt
		r.DeliveredAt = &at
		return true, nil
	}
	return false, nil
}
