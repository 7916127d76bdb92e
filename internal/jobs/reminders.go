package jobs

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/recuerdame/recuerdame-backend/internal/models"
	"github.com/recuerdame/recuerdame-backend/internal/services"
	"github.com/recuerdame/recuerdame-backend/internal/storage"
)

// ReminderJob periodically scans the store and delivers the reminders whose
// scheduled instant falls inside the delivery window. A reminder is marked
// delivered only after a successful send, so a failed send is retried on the
// next tick while the window is still open. Once the window closes an
// undelivered reminder is permanently missed; that trade-off is deliberate
// (there is no missed-reminder policy).
type ReminderJob struct {
	store    storage.Store
	sender   services.Sender
	interval time.Duration
	window   time.Duration

	tickMu    sync.Mutex // single-flight guard: a tick never overlaps itself
	isRunning bool
	stop      chan struct{}
}

// NewReminderJob creates the delivery scheduler with a one-minute tick and a
// one-minute delivery window.
func NewReminderJob(store storage.Store, sender services.Sender) *ReminderJob {
	return &ReminderJob{
		store:    store,
		sender:   sender,
		interval: time.Minute,
		window:   time.Minute,
		stop:     make(chan struct{}),
	}
}

// Start begins the periodic delivery ticks.
func (j *ReminderJob) Start() {
	if j.isRunning {
		log.Println("Reminder job already running")
		return
	}
	j.isRunning = true

	go j.run()
	log.Printf("🕒 Reminder job started - checking every %v", j.interval)
}

// Stop halts the periodic ticks. A tick already in progress finishes.
func (j *ReminderJob) Stop() {
	if !j.isRunning {
		return
	}
	j.isRunning = false
	close(j.stop)
	log.Println("⏹️  Reminder job stopped")
}

func (j *ReminderJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.Tick()
		case <-j.stop:
			return
		}
	}
}

// Tick runs one delivery pass. Concurrent firings are skipped, never run in
// parallel, so the same reminder cannot be sent twice by overlapping passes.
func (j *ReminderJob) Tick() {
	if !j.tickMu.TryLock() {
		log.Println("⏭️  Previous delivery pass still running, skipping tick")
		return
	}
	defer j.tickMu.Unlock()

	j.deliverDue(time.Now())
}

// deliverDue sends every pending reminder due at now. A single failure does
// not abort the rest of the batch.
func (j *ReminderJob) deliverDue(now time.Time) {
	reminders, err := j.store.ListAll()
	if err != nil {
		log.Printf("❌ Failed to read reminders: %v", err)
		return
	}

	sent := 0
	for _, r := range reminders {
		if r.Delivered {
			continue
		}

		scheduled, err := scheduledInstant(r)
		if err != nil {
			log.Printf("⚠️  Reminder %s has an unparseable schedule (%s %s): %v", r.ID, r.Date, r.Time, err)
			continue
		}

		// Due window: never early, and never re-send something whose
		// moment passed while the process was down.
		elapsed := now.Sub(scheduled)
		if elapsed < 0 || elapsed >= j.window {
			continue
		}

		if err := j.sender.SendWhatsAppMessage(r.OwnerID, services.ReminderMessage(r)); err != nil {
			log.Printf("❌ Failed to send reminder %s to %s: %v", r.ID, r.OwnerID, err)
			continue // left undelivered, retried next tick while the window is open
		}

		marked, err := j.store.MarkDelivered(r.ID, now)
		if err != nil {
			log.Printf("❌ Failed to mark reminder %s delivered: %v", r.ID, err)
			continue
		}
		if !marked {
			log.Printf("⚠️  Reminder %s was already delivered", r.ID)
			continue
		}

		sent++
		log.Printf("📤 Reminder delivered: %q to %s", r.Title, r.OwnerID)
	}

	if sent > 0 {
		log.Printf("✅ Delivery pass complete: %d reminder(s) sent", sent)
	}
}

// scheduledInstant combines a reminder's date and time against the host's
// local clock.
func scheduledInstant(r *models.Reminder) (time.Time, error) {
	return time.ParseInLocation("02/01/2006 15:04", fmt.Sprintf("%s %s", r.Date, r.Time), time.Local)
}
