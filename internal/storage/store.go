package storage

import (
	"errors"
	"time"

	"github.com/recuerdame/recuerdame-backend/internal/models"
)

// ErrWriteFailed wraps failures to persist the reminder collection. The
// previous durable state is left untouched when it is returned.
var ErrWriteFailed = errors.New("storage: write failed")

// Store defines the interface for reminder persistence. Implementations must
// serialize their mutating operations internally: the whole read-modify-write
// cycle runs under one exclusion gate so concurrent writers can never lose
// each other's updates.
type Store interface {
	// Append adds a new reminder to the end of the collection.
	Append(reminder *models.Reminder) error

	// ListAll returns every reminder in append order.
	ListAll() ([]*models.Reminder, error)

	// ListPendingByOwner returns the undelivered reminders of one chat,
	// in append order.
	ListPendingByOwner(ownerID string) ([]*models.Reminder, error)

	// MarkDelivered flips a reminder to delivered and stamps the delivery
	// time. Returns false when the id is unknown or already delivered.
	MarkDelivered(id string, deliveredAt time.Time) (bool, error)
}
