package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/recuerdame/recuerdame-backend/internal/models"
	"github.com/recuerdame/recuerdame-backend/internal/storage"
	"github.com/recuerdame/recuerdame-backend/internal/utils"
)

const testOwner = "+5491122334455"

// mustAdvance feeds one message and fails the test if no session consumed it.
func mustAdvance(t *testing.T, sm *SessionManager, owner, text string) string {
	t.Helper()
	reply, ok := sm.Advance(owner, text)
	if !ok {
		t.Fatalf("expected a live session for %s to consume %q", owner, text)
	}
	return reply
}

func TestIntakeHappyPath(t *testing.T) {
	store := storage.NewMemoryStore()
	sm := NewSessionManager(store)

	if reply := sm.Start(testOwner); reply != msgPromptTitle {
		t.Fatalf("expected title prompt, got %q", reply)
	}
	if reply := mustAdvance(t, sm, testOwner, "Cumpleaños"); reply != msgPromptDescription {
		t.Fatalf("expected description prompt, got %q", reply)
	}
	if reply := mustAdvance(t, sm, testOwner, "Llamar a mamá"); reply != msgPromptDate {
		t.Fatalf("expected date prompt, got %q", reply)
	}
	if reply := mustAdvance(t, sm, testOwner, "25/12/2030"); reply != msgPromptTime {
		t.Fatalf("expected time prompt, got %q", reply)
	}
	reply := mustAdvance(t, sm, testOwner, "14:30")
	if !strings.Contains(reply, "Cumpleaños") || !strings.Contains(reply, "25/12/2030") {
		t.Fatalf("expected confirmation with reminder fields, got %q", reply)
	}

	reminders, _ := store.ListAll()
	if len(reminders) != 1 {
		t.Fatalf("expected exactly one persisted reminder, got %d", len(reminders))
	}
	r := reminders[0]
	if r.ID == "" {
		t.Error("expected a minted id")
	}
	if r.OwnerID != testOwner || r.Title != "Cumpleaños" || r.Description != "Llamar a mamá" ||
		r.Date != "25/12/2030" || r.Time != "14:30" {
		t.Errorf("persisted reminder has wrong fields: %+v", r)
	}
	if r.Delivered {
		t.Error("new reminder must not be delivered")
	}
	if r.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	if sm.ActiveCount() != 0 {
		t.Error("expected session to be removed after completion")
	}
}

func TestIntakeReentrancyGuard(t *testing.T) {
	sm := NewSessionManager(storage.NewMemoryStore())

	sm.Start(testOwner)
	mustAdvance(t, sm, testOwner, "Título original")

	// A second intake keyword must warn and leave the session untouched.
	if reply := sm.Start(testOwner); reply != msgAlreadyInProgress {
		t.Fatalf("expected in-progress warning, got %q", reply)
	}

	sm.mu.Lock()
	session := sm.sessions[testOwner]
	sm.mu.Unlock()
	if session.State != StateAwaitingDescription || session.Title != "Título original" {
		t.Errorf("existing session was altered: %+v", session)
	}
}

func TestIntakeRejectsReservedPrefix(t *testing.T) {
	store := storage.NewMemoryStore()
	sm := NewSessionManager(store)
	sm.Start(testOwner)

	// A command-like answer is rejected in every field.
	steps := []struct {
		rejected string
		accepted string
	}{
		{".ver", "Cumpleaños"},
		{".lista", "Llamar a mamá"},
		{".recordatorios", "hoy"},
		{".x", "14:30"},
	}
	for _, step := range steps {
		reply := mustAdvance(t, sm, testOwner, step.rejected)
		if !strings.Contains(reply, "comando") {
			t.Fatalf("expected command rejection for %q, got %q", step.rejected, reply)
		}
		mustAdvance(t, sm, testOwner, step.accepted)
	}

	reminders, _ := store.ListAll()
	if len(reminders) != 1 {
		t.Fatalf("expected completed reminder after rejections, got %d", len(reminders))
	}
	if strings.HasPrefix(reminders[0].Title, CommandPrefix) {
		t.Errorf("command leaked into a field: %+v", reminders[0])
	}
}

func TestIntakeRepromptsOnInvalidInput(t *testing.T) {
	sm := NewSessionManager(storage.NewMemoryStore())
	sm.Start(testOwner)
	mustAdvance(t, sm, testOwner, "Cumpleaños")
	mustAdvance(t, sm, testOwner, "Llamar a mamá")

	if reply := mustAdvance(t, sm, testOwner, "el viernes que viene"); !strings.Contains(reply, "Fecha no válida") {
		t.Fatalf("expected date rejection with examples, got %q", reply)
	}
	// Still awaiting the date.
	mustAdvance(t, sm, testOwner, "mañana")

	if reply := mustAdvance(t, sm, testOwner, "25:99"); !strings.Contains(reply, "hora inválido") {
		t.Fatalf("expected time rejection, got %q", reply)
	}
	reply := mustAdvance(t, sm, testOwner, "09:15")
	if !strings.Contains(reply, "guardado exitosamente") {
		t.Fatalf("expected confirmation after retry, got %q", reply)
	}
}

func TestIntakeCancel(t *testing.T) {
	store := storage.NewMemoryStore()
	sm := NewSessionManager(store)

	if reply := sm.Cancel(testOwner); reply != msgNothingToCancel {
		t.Fatalf("expected nothing-to-cancel notice, got %q", reply)
	}

	sm.Start(testOwner)
	mustAdvance(t, sm, testOwner, "Cumpleaños")
	if reply := sm.Cancel(testOwner); reply != msgCancelled {
		t.Fatalf("expected cancel confirmation, got %q", reply)
	}

	if _, ok := sm.Advance(testOwner, "anything"); ok {
		t.Fatal("expected no live session after cancel")
	}
	if reminders, _ := store.ListAll(); len(reminders) != 0 {
		t.Fatal("no partial reminder may ever be persisted")
	}
}

func TestStaleSessionIsEvicted(t *testing.T) {
	sm := NewSessionManager(storage.NewMemoryStore())
	sm.sessionTTL = time.Minute

	sm.Start(testOwner)
	mustAdvance(t, sm, testOwner, "Cumpleaños")

	sm.mu.Lock()
	sm.sessions[testOwner].LastActive = time.Now().Add(-2 * time.Minute)
	sm.mu.Unlock()

	// The sweep discards idle sessions...
	if evicted := sm.evictStale(time.Now()); evicted != 1 {
		t.Fatalf("expected 1 evicted session, got %d", evicted)
	}
	if _, ok := sm.Advance(testOwner, "hola"); ok {
		t.Fatal("expected stale session to be unreachable")
	}

	// ...and a stale session is also unreachable before the sweep runs.
	sm.Start(testOwner)
	sm.mu.Lock()
	sm.sessions[testOwner].LastActive = time.Now().Add(-2 * time.Minute)
	sm.mu.Unlock()
	if _, ok := sm.Advance(testOwner, "hola"); ok {
		t.Fatal("expected lazy staleness check to evict the session")
	}

	// A fresh intake starts from the title again.
	if reply := sm.Start(testOwner); reply != msgPromptTitle {
		t.Fatalf("expected fresh session after eviction, got %q", reply)
	}
}

// flakyStore fails Append until the flag is cleared.
type flakyStore struct {
	storage.Store
	mu   sync.Mutex
	fail bool
}

func (f *flakyStore) Append(r *models.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("%w: disk full", storage.ErrWriteFailed)
	}
	return f.Store.Append(r)
}

func TestWriteFailureKeepsSessionForRetry(t *testing.T) {
	backing := storage.NewMemoryStore()
	store := &flakyStore{Store: backing, fail: true}
	sm := NewSessionManager(store)

	sm.Start(testOwner)
	mustAdvance(t, sm, testOwner, "Cumpleaños")
	mustAdvance(t, sm, testOwner, "Llamar a mamá")
	mustAdvance(t, sm, testOwner, "mañana")

	if reply := mustAdvance(t, sm, testOwner, "14:30"); reply != msgSaveFailed {
		t.Fatalf("expected save-failed notice, got %q", reply)
	}
	if sm.ActiveCount() != 1 {
		t.Fatal("session must be retained after a write failure")
	}

	// Re-sending just the time completes the intake.
	store.mu.Lock()
	store.fail = false
	store.mu.Unlock()

	if reply := mustAdvance(t, sm, testOwner, "14:30"); !strings.Contains(reply, "guardado exitosamente") {
		t.Fatalf("expected confirmation on retry, got %q", reply)
	}
	reminders, _ := backing.ListAll()
	if len(reminders) != 1 {
		t.Fatalf("expected one reminder after retry, got %d", len(reminders))
	}
}

func TestConcurrentCompletionsForDistinctOwners(t *testing.T) {
	store := storage.NewFileStore(t.TempDir() + "/recordatorios.json")
	sm := NewSessionManager(store)

	owners := []string{"+111", "+222"}
	for _, owner := range owners {
		sm.Start(owner)
		mustAdvance(t, sm, owner, "Título "+owner)
		mustAdvance(t, sm, owner, "Descripción")
		mustAdvance(t, sm, owner, "hoy")
	}

	var wg sync.WaitGroup
	for _, owner := range owners {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			if _, ok := sm.Advance(owner, "23:59"); !ok {
				t.Errorf("expected completion for %s", owner)
			}
		}(owner)
	}
	wg.Wait()

	reminders, err := store.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(reminders) != 2 {
		t.Fatalf("lost update: expected both completions persisted, got %d", len(reminders))
	}
}

func TestDateFieldStoresNormalizedDate(t *testing.T) {
	store := storage.NewMemoryStore()
	sm := NewSessionManager(store)

	sm.Start(testOwner)
	mustAdvance(t, sm, testOwner, "Cumpleaños")
	mustAdvance(t, sm, testOwner, "Llamar a mamá")
	mustAdvance(t, sm, testOwner, "  MAÑANA  ")
	mustAdvance(t, sm, testOwner, "09:15")

	want := utils.FormatDate(time.Now().AddDate(0, 0, 1))
	reminders, _ := store.ListAll()
	if len(reminders) != 1 || reminders[0].Date != want {
		t.Fatalf("expected normalized date %q, got %+v", want, reminders)
	}
}
