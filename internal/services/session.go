package services

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recuerdame/recuerdame-backend/internal/models"
	"github.com/recuerdame/recuerdame-backend/internal/storage"
	"github.com/recuerdame/recuerdame-backend/internal/utils"
)

// SessionState is the step of the intake conversation an owner is at.
type SessionState int

const (
	StateAwaitingTitle SessionState = iota
	StateAwaitingDescription
	StateAwaitingDate
	StateAwaitingTime
)

// IntakeSession is the in-memory state of one owner's reminder intake.
// It only ever lives in the SessionManager's map, never on disk.
type IntakeSession struct {
	OwnerID     string
	State       SessionState
	Title       string
	Description string
	Date        string
	StartedAt   time.Time
	LastActive  time.Time
}

// SessionManager drives the multi-turn intake conversation. It owns the
// per-owner session table exclusively; at most one live session exists per
// owner, and a completed session becomes exactly one persisted reminder.
type SessionManager struct {
	store      storage.Store
	sessions   map[string]*IntakeSession
	mu         sync.Mutex
	sessionTTL time.Duration
	sweepEvery time.Duration
}

// NewSessionManager creates a session manager backed by the given store.
func NewSessionManager(store storage.Store) *SessionManager {
	sm := &SessionManager{
		store:      store,
		sessions:   make(map[string]*IntakeSession),
		sessionTTL: 30 * time.Minute,
		sweepEvery: time.Minute,
	}

	go sm.sweepLoop()

	return sm
}

// Start begins a new intake for an owner. If one is already in progress it is
// left untouched and the owner is warned instead.
func (sm *SessionManager) Start(ownerID string) string {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if s, exists := sm.sessions[ownerID]; exists && !sm.isStale(s, time.Now()) {
		return msgAlreadyInProgress
	}

	now := time.Now()
	sm.sessions[ownerID] = &IntakeSession{
		OwnerID:    ownerID,
		State:      StateAwaitingTitle,
		StartedAt:  now,
		LastActive: now,
	}
	log.Printf("📝 Intake started for %s", ownerID)

	return msgPromptTitle
}

// Cancel discards the owner's in-progress intake, if any.
func (sm *SessionManager) Cancel(ownerID string) string {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[ownerID]; !exists {
		return msgNothingToCancel
	}

	delete(sm.sessions, ownerID)
	log.Printf("❌ Intake cancelled by %s", ownerID)
	return msgCancelled
}

// Advance feeds one inbound message into the owner's intake session.
// ok is false when the owner has no live session, in which case the message
// should be handled as a regular command instead.
func (sm *SessionManager) Advance(ownerID, text string) (reply string, ok bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, exists := sm.sessions[ownerID]
	if !exists {
		return "", false
	}
	if sm.isStale(session, time.Now()) {
		delete(sm.sessions, ownerID)
		log.Printf("🕒 Stale intake session evicted for %s", ownerID)
		return "", false
	}

	session.LastActive = time.Now()
	return sm.advance(session, strings.TrimSpace(text)), true
}

// advance runs one state transition. Invalid input keeps the session in the
// same state and repeats the prompt of the field still being requested.
func (sm *SessionManager) advance(session *IntakeSession, text string) string {
	prompt := sm.promptFor(session.State)

	if text == "" {
		return prompt
	}
	// A mistyped command must never be swallowed into a reminder field.
	if strings.HasPrefix(text, CommandPrefix) {
		return commandRejected(prompt)
	}

	switch session.State {
	case StateAwaitingTitle:
		session.Title = text
		session.State = StateAwaitingDescription
		return msgPromptDescription

	case StateAwaitingDescription:
		session.Description = text
		session.State = StateAwaitingDate
		return msgPromptDate

	case StateAwaitingDate:
		date, recognized := utils.ParseDate(text)
		if !recognized {
			return msgInvalidDate + "\n\n" + msgPromptDate
		}
		session.Date = date
		session.State = StateAwaitingTime
		return msgPromptTime

	case StateAwaitingTime:
		if !utils.ValidateTime(text) {
			return msgInvalidTime + "\n\n" + msgPromptTime
		}
		return sm.complete(session, text)
	}

	return prompt
}

// complete persists the finished reminder. On a write failure the session is
// kept in the time step so the owner can retry without re-entering the other
// fields.
func (sm *SessionManager) complete(session *IntakeSession, timeOfDay string) string {
	reminder := &models.Reminder{
		ID:          uuid.NewString(),
		OwnerID:     session.OwnerID,
		Title:       session.Title,
		Description: session.Description,
		Date:        session.Date,
		Time:        timeOfDay,
		Delivered:   false,
		CreatedAt:   time.Now(),
	}

	if err := sm.store.Append(reminder); err != nil {
		log.Printf("❌ Failed to persist reminder for %s: %v", session.OwnerID, err)
		return msgSaveFailed
	}

	delete(sm.sessions, session.OwnerID)
	log.Printf("✅ Reminder %s saved for %s (%s %s)", reminder.ID, reminder.OwnerID, reminder.Date, reminder.Time)
	return saveConfirmation(reminder)
}

func (sm *SessionManager) promptFor(state SessionState) string {
	switch state {
	case StateAwaitingTitle:
		return msgPromptTitle
	case StateAwaitingDescription:
		return msgPromptDescription
	case StateAwaitingDate:
		return msgPromptDate
	default:
		return msgPromptTime
	}
}

func (sm *SessionManager) isStale(s *IntakeSession, now time.Time) bool {
	return now.Sub(s.LastActive) > sm.sessionTTL
}

// ActiveCount returns the number of live intake sessions (for monitoring).
func (sm *SessionManager) ActiveCount() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return len(sm.sessions)
}

// sweepLoop periodically evicts abandoned sessions. Eviction is silent for
// the owner; no partial reminder is ever persisted.
func (sm *SessionManager) sweepLoop() {
	ticker := time.NewTicker(sm.sweepEvery)
	defer ticker.Stop()

	for range ticker.C {
		if evicted := sm.evictStale(time.Now()); evicted > 0 {
			log.Printf("🕒 Evicted %d stale intake session(s)", evicted)
		}
	}
}

// evictStale discards every session idle past the TTL and reports how many.
func (sm *SessionManager) evictStale(now time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	evicted := 0
	for ownerID, session := range sm.sessions {
		if sm.isStale(session, now) {
			delete(sm.sessions, ownerID)
			evicted++
		}
	}
	return evicted
}
