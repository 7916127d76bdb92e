package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/recuerdame/recuerdame-backend/internal/models"
)

// FileStore persists reminders as a JSON array in a single flat file.
// Every mutation is a full read-modify-write of that file; mu is held across
// the whole cycle so a conversation completing and the delivery job marking
// a reminder sent can never interleave and drop each other's update.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store at the given path. The file is
// created lazily on the first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Append adds a reminder to the end of the collection.
func (f *FileStore) Append(reminder *models.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	reminders := f.load()
	reminders = append(reminders, reminder)
	return f.save(reminders)
}

// ListAll returns every reminder in append order.
func (f *FileStore) ListAll() ([]*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.load(), nil
}

// ListPendingByOwner returns the undelivered reminders of one chat.
func (f *FileStore) ListPendingByOwner(ownerID string) ([]*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pending := []*models.Reminder{}
	for _, r := range f.load() {
		if !r.Delivered && r.OwnerID == ownerID {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// MarkDelivered flips a reminder to delivered exactly once. Returns false
// when the id is unknown or the reminder was already delivered.
func (f *FileStore) MarkDelivered(id string, deliveredAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reminders := f.load()
	for _, r := range reminders {
		if r.ID != id {
			continue
		}
		if r.Delivered {
			return false, nil
		}
		r.Delivered = true
		at := deliveredAt
		r.DeliveredAt = &at
		if err := f.save(reminders); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// load reads the current collection. A missing, empty or corrupt file is
// treated as an empty collection so a fresh deployment starts clean.
func (f *FileStore) load() []*models.Reminder {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️  Failed to read reminders file: %v", err)
		}
		return []*models.Reminder{}
	}

	var reminders []*models.Reminder
	if err := json.Unmarshal(data, &reminders); err != nil {
		log.Printf("⚠️  Reminders file is malformed, treating as empty: %v", err)
		return []*models.Reminder{}
	}
	return reminders
}

// save writes the full collection to a temp file and renames it over the
// previous one, so a failed write never truncates the durable state.
func (f *FileStore) save(reminders []*models.Reminder) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	data, err := json.MarshalIndent(reminders, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}
