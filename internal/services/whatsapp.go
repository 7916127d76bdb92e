package services

import (
	"log"
	"strings"

	"github.com/recuerdame/recuerdame-backend/internal/storage"
	"github.com/recuerdame/recuerdame-backend/internal/utils"
)

// CommandPrefix marks a message as a bot command. The same prefix is what the
// intake flow rejects inside free-text answers.
const CommandPrefix = "."

// WhatsAppService routes inbound WhatsApp messages: commands are dispatched
// here, everything else is fed to the owner's in-flight intake session.
type WhatsAppService struct {
	store    storage.Store
	sessions *SessionManager
}

// NewWhatsAppService creates the inbound message dispatcher.
func NewWhatsAppService(store storage.Store, sessions *SessionManager) *WhatsAppService {
	return &WhatsAppService{
		store:    store,
		sessions: sessions,
	}
}

// ProcessMessage handles one inbound message and returns the reply to send.
// An empty reply means the message is ignored (the bot only reacts to its
// keywords and to in-flight intakes).
func (w *WhatsAppService) ProcessMessage(from, body string) (string, error) {
	text := strings.TrimSpace(body)
	command := utils.NormalizeText(text)

	log.Printf("📱 Processing message from %s: %q", from, text)

	// Cancel and intake keywords win over everything, including an
	// in-flight session.
	switch command {
	case ".cancelar", "cancelar":
		return w.sessions.Cancel(from), nil
	case ".recordatorio", ".r":
		return w.sessions.Start(from), nil
	}

	// An in-flight intake consumes the message next, so ".ver" typed as an
	// answer is rejected by the session instead of listing reminders.
	if reply, ok := w.sessions.Advance(from, text); ok {
		return reply, nil
	}

	switch command {
	case ".ver", ".lista":
		return w.listPending(from)
	case ".ayuda", ".help":
		return msgHelp, nil
	}

	return "", nil
}

func (w *WhatsAppService) listPending(ownerID string) (string, error) {
	pending, err := w.store.ListPendingByOwner(ownerID)
	if err != nil {
		return "", err
	}
	if len(pending) == 0 {
		return msgNoPending, nil
	}
	return pendingList(pending), nil
}
